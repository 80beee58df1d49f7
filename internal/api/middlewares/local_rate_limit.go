package middlewares

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is the in-process token bucket used when Redis is absent.
// Limits are per instance.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	rate     rate.Limit
	burst    int
	keyFn    KeyFunc
	idle     time.Duration
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter evicts idle keys until ctx is done.
func NewLocalLimiter(ctx context.Context, ratePerSecond float64, burst int, keyFn KeyFunc) *LocalLimiter {
	l := &LocalLimiter{
		limiters: make(map[string]*localEntry),
		rate:     rate.Limit(ratePerSecond),
		burst:    burst,
		keyFn:    keyFn,
		idle:     5 * time.Minute,
	}
	go l.evict(ctx)
	return l
}

func (l *LocalLimiter) evict(ctx context.Context) {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			for k, e := range l.limiters {
				if time.Since(e.lastSeen) > l.idle {
					delete(l.limiters, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *LocalLimiter) allow(key string) bool {
	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

func (l *LocalLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.keyFn(r)) {
			w.Header().Set("Retry-After", "1")
			tooMany(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
