package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemory_FIFO(t *testing.T) {
	m := NewMemory(4)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := m.Publish(ctx, id); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := m.Next(ctx)
		if err != nil || got != want {
			t.Fatalf("next = %q, %v; want %q", got, err, want)
		}
	}
}

func TestMemory_NextHonorsContext(t *testing.T) {
	m := NewMemory(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestMemory_Close(t *testing.T) {
	m := NewMemory(1)
	_ = m.Close()
	_ = m.Close()

	if err := m.Publish(context.Background(), "a"); !errors.Is(err, ErrClosed) {
		t.Fatalf("publish err = %v", err)
	}
	if _, err := m.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("next err = %v", err)
	}
}

type fakeRedis struct {
	pushed []string
	pops   [][]string // nil = redis.Nil
	closed bool
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		f.pushed = append(f.pushed, v.(string))
	}
	return redis.NewIntResult(int64(len(f.pushed)), nil)
}

func (f *fakeRedis) BRPop(_ context.Context, _ time.Duration, _ ...string) *redis.StringSliceCmd {
	if len(f.pops) == 0 {
		return redis.NewStringSliceResult(nil, redis.ErrClosed)
	}
	next := f.pops[0]
	f.pops = f.pops[1:]
	if next == nil {
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	return redis.NewStringSliceResult(next, nil)
}

func (f *fakeRedis) Close() error { f.closed = true; return nil }

func TestRedis_PublishAndNext(t *testing.T) {
	f := &fakeRedis{pops: [][]string{nil, {DefaultKey, "q1"}}}
	r := newRedisWithClient(f, "")
	ctx := context.Background()

	if err := r.Publish(ctx, "q1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(f.pushed) != 1 || f.pushed[0] != "q1" {
		t.Fatalf("pushed = %v", f.pushed)
	}

	// el primer BRPOP vence (redis.Nil) y se reintenta
	got, err := r.Next(ctx)
	if err != nil || got != "q1" {
		t.Fatalf("next = %q, %v", got, err)
	}

	if _, err := r.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v", err)
	}
	_ = r.Close()
	if !f.closed {
		t.Fatal("client not closed")
	}
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	q, err := Open(context.Background(), "", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := q.(*Memory); !ok {
		t.Fatalf("got %T", q)
	}
}
