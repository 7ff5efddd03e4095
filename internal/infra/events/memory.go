package events

import (
	"context"
	"sync"
)

// Memory es la cola in-process; sirve cuando corre un solo bot.
type Memory struct {
	ch     chan string
	done   chan struct{}
	closed sync.Once
}

func NewMemory(size int) *Memory {
	return &Memory{ch: make(chan string, size), done: make(chan struct{})}
}

func (m *Memory) Publish(ctx context.Context, queueID string) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case m.ch <- queueID:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Next(ctx context.Context) (string, error) {
	select {
	case id := <-m.ch:
		return id, nil
	case <-m.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Memory) Close() error {
	m.closed.Do(func() { close(m.done) })
	return nil
}
