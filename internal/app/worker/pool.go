package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/queue-display-bot/internal/infra/events"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// Lo implementa service.DisplayService
type Refresher interface {
	Refresh(ctx context.Context, queueID string) error
}

// Lo implementa events.Queue
type Source interface {
	Next(ctx context.Context) (string, error)
}

type Config struct {
	Workers  int
	Debounce time.Duration
	Timeout  time.Duration // por refresh
}

// Pool consume pedidos de refresh, los agrupa por cola (debounce) y los
// reparte entre N workers. Una misma cola puede refrescarse en paralelo.
type Pool struct {
	src Source
	ref Refresher
	cfg Config
	log logger.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

func New(src Source, ref Refresher, cfg Config, log logger.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pool{
		src:     src,
		ref:     ref,
		cfg:     cfg,
		log:     log,
		pending: map[string]*time.Timer{},
		ready:   make(chan string, cfg.Workers*4),
	}
}

// Run bloquea hasta que ctx se cancele o se cierre la fuente.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.consume(ctx) })
	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error { return p.work(ctx) })
	}
	return g.Wait()
}

func (p *Pool) consume(ctx context.Context) error {
	for {
		id, err := p.src.Next(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, events.ErrClosed):
			p.log.Info("[worker] source closed")
			return err
		case err != nil:
			p.log.Warn("[worker] next", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		p.schedule(ctx, id)
	}
}

// schedule: cada pedido nuevo de la misma cola reinicia su timer.
func (p *Pool) schedule(ctx context.Context, queueID string) {
	if p.cfg.Debounce <= 0 {
		p.dispatch(ctx, queueID)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.pending[queueID]; ok && t.Stop() {
		t.Reset(p.cfg.Debounce)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(p.cfg.Debounce, func() {
		p.release(queueID, t)
		p.dispatch(ctx, queueID)
	})
	p.pending[queueID] = t
}

// release saca el timer de pending sólo si sigue siendo el vigente; un
// callback atrasado no debe pisar al timer que lo reemplazó.
func (p *Pool) release(queueID string, t *time.Timer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending[queueID] == t {
		delete(p.pending, queueID)
	}
}

func (p *Pool) dispatch(ctx context.Context, queueID string) {
	select {
	case p.ready <- queueID:
	case <-ctx.Done():
	}
}

func (p *Pool) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-p.ready:
			p.refresh(ctx, id)
		}
	}
}

func (p *Pool) refresh(ctx context.Context, queueID string) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("[worker] refresh panic", "queue_id", queueID, "panic", rec)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := p.ref.Refresh(ctx, queueID); err != nil {
		p.log.Warn("[worker] refresh", "queue_id", queueID, "error", err)
	}
}
