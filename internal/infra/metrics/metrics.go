package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder junta las métricas del sync de displays.
type Recorder struct {
	refreshes *prometheus.CounterVec
	targets   *prometheus.CounterVec
	truncated prometheus.Counter
	duration  prometheus.Histogram
	http      *prometheus.CounterVec
}

// New registra los collectors en reg (prometheus.DefaultRegisterer en serve).
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_display_refresh_total",
			Help: "Display refreshes by result (ok, noop, error).",
		}, []string{"result"}),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_display_target_total",
			Help: "Per-display outcomes during a refresh.",
		}, []string{"outcome"}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_display_truncated_total",
			Help: "Renders that dropped entries to fit the embed limit.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "queue_display_refresh_seconds",
			Help:    "Refresh duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		http: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_display_events_http_total",
			Help: "Refresh events received over HTTP by status.",
		}, []string{"status"}),
	}
	reg.MustRegister(r.refreshes, r.targets, r.truncated, r.duration, r.http)
	return r
}

func (r *Recorder) Refresh(result string, took time.Duration) {
	r.refreshes.WithLabelValues(result).Inc()
	r.duration.Observe(took.Seconds())
}

func (r *Recorder) Target(outcome string) { r.targets.WithLabelValues(outcome).Inc() }

func (r *Recorder) Truncated() { r.truncated.Inc() }

func (r *Recorder) Event(status string) { r.http.WithLabelValues(status).Inc() }

// Handler expone /metrics para el gatherer dado.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
