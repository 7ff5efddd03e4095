package events

import (
	"context"
	"errors"
)

// Queue es la cola de pedidos de refresh. El payload es el queue id.
type Queue interface {
	Publish(ctx context.Context, queueID string) error
	// Next bloquea hasta que haya un pedido o se cancele ctx.
	Next(ctx context.Context) (string, error)
	Close() error
}

var ErrClosed = errors.New("event queue closed")

// Open elige backend: Redis si hay URL, si no memoria (un solo proceso).
func Open(ctx context.Context, redisURL, key string) (Queue, error) {
	if redisURL == "" {
		return NewMemory(1024), nil
	}
	return NewRedis(ctx, redisURL, key)
}
