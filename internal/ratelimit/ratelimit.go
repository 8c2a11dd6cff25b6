// Package ratelimit provides per-key token buckets on top of x/time/rate.
// The API layer keys buckets by client IP to shield the auth endpoints from
// credential stuffing.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter lazily creates one token bucket per key. All buckets
// share the same rate and burst.
type KeyedRateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// New creates a limiter allowing rps requests per second with the given
// burst headroom per key.
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Allow reports whether the key has a token available right now.
func (l *KeyedRateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Wait blocks until the key has a token or the context is canceled.
func (l *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Stop releases the limiter. Nothing needs tearing down today; the method
// exists so callers already defer it when eviction is added later.
func (l *KeyedRateLimiter) Stop() {}

func (l *KeyedRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another goroutine may have won the race for this key.
	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = rate.NewLimiter(l.rps, l.burst)
	l.buckets[key] = b

	// Buckets are never evicted. The key space is client IPs of a
	// self-hosted deployment, which stays small; revisit with an
	// last-access sweep if that assumption breaks.
	return b
}
