package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter: un token por ventana y por usuario, para los clicks del botón.
type userLimiter struct {
	mu    sync.Mutex
	users map[string]*userEntry
	win   time.Duration
	ttl   time.Duration
	now   func() time.Time
}

type userEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{users: map[string]*userEntry{}, win: window, ttl: 10 * time.Minute, now: time.Now}
}

func (l *userLimiter) Allow(userID string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.users[userID]
	if !ok {
		e = &userEntry{lim: rate.NewLimiter(rate.Every(l.win), 1)}
		l.users[userID] = e
		if len(l.users)%256 == 0 {
			l.gc(now)
		}
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

func (l *userLimiter) gc(now time.Time) {
	for id, e := range l.users {
		if now.Sub(e.seen) > l.ttl {
			delete(l.users, id)
		}
	}
}
