package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "queue-display:refresh"

// Client es el subconjunto de redis que usamos; los tests lo reemplazan.
type Client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Close() error
}

// Redis usa una lista: LPUSH para publicar, BRPOP para consumir (FIFO).
// Varios bots pueden consumir la misma lista.
type Redis struct {
	rdb        Client
	key        string
	popTimeout time.Duration
}

func NewRedis(ctx context.Context, url, key string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	c := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisWithClient(c, key), nil
}

func newRedisWithClient(c Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{rdb: c, key: key, popTimeout: 2 * time.Second}
}

func (r *Redis) Publish(ctx context.Context, queueID string) error {
	return r.rdb.LPush(ctx, r.key, queueID).Err()
}

// Next usa un timeout corto de BRPOP para poder cortar con ctx.
func (r *Redis) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := r.rdb.BRPop(ctx, r.popTimeout, r.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if errors.Is(err, redis.ErrClosed) {
				return "", ErrClosed
			}
			return "", err
		}
		// [key, value]
		if len(res) == 2 {
			return res[1], nil
		}
	}
}

func (r *Redis) Close() error { return r.rdb.Close() }
