package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// SecretHeader lleva el secreto compartido de los emisores de eventos.
const SecretHeader = "X-Events-Secret"

type Publisher interface {
	Publish(ctx context.Context, queueID string) error
}

// Lo implementa metrics.Recorder
type EventRecorder interface {
	Event(status string)
}

// Pinger: *sql.DB sirve tal cual.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	secret  string
	pub     Publisher
	rec     EventRecorder
	metrics http.Handler
	db      Pinger
	log     logger.Logger
	mux     *http.ServeMux
}

type Options struct {
	Secret  string
	Metrics http.Handler // nil = sin /metrics
	DB      Pinger       // nil = /healthz siempre ok
	Log     logger.Logger
}

func New(pub Publisher, rec EventRecorder, o Options) *Server {
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	s := &Server{
		secret:  o.Secret,
		pub:     pub,
		rec:     rec,
		metrics: o.Metrics,
		db:      o.DB,
		log:     o.Log,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/events/queue", s.handleQueueEvent)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type queueEvent struct {
	QueueID string `json:"queue_id"`
}

func (s *Server) handleQueueEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.fail(w, "method", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		s.fail(w, "forbidden", http.StatusForbidden)
		return
	}

	var evt queueEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&evt); err != nil {
		s.fail(w, "bad_request", http.StatusBadRequest)
		return
	}
	evt.QueueID = strings.TrimSpace(evt.QueueID)
	if evt.QueueID == "" {
		s.fail(w, "bad_request", http.StatusBadRequest)
		return
	}

	if err := s.pub.Publish(r.Context(), evt.QueueID); err != nil {
		s.log.Warn("[http.events] publish", "queue_id", evt.QueueID, "error", err)
		s.fail(w, "error", http.StatusServiceUnavailable)
		return
	}
	s.rec.Event("accepted")
	w.WriteHeader(http.StatusAccepted)
}

// authorized: sin secreto configurado el endpoint queda cerrado.
func (s *Server) authorized(r *http.Request) bool {
	if s.secret == "" {
		return false
	}
	got := r.Header.Get(SecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) fail(w http.ResponseWriter, status string, code int) {
	s.rec.Event(status)
	http.Error(w, http.StatusText(code), code)
}

// Start sirve hasta que ctx se cancela; después hace shutdown ordenado.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("[http] listening", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
