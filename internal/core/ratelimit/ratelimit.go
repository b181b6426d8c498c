// Package ratelimit provides the per-source ingestion pacing described in
// spec.md §5: a small in-memory map of rate limiters keyed by source/chat,
// the same per-key lazy-limiter idiom the link fetchers use for
// per-domain pacing.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBurst = 1

// DefaultInterval is the default minimum spacing between messages from
// the same chat/source key.
const DefaultInterval = 2500 * time.Millisecond

// PerKeyLimiter enforces a minimum interval between Allow calls sharing
// the same key, creating a new token-bucket limiter per key on first use.
type PerKeyLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// New builds a limiter with the given minimum spacing between events for
// the same key. interval <= 0 uses DefaultInterval.
func New(interval time.Duration) *PerKeyLimiter {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &PerKeyLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Allow reports whether an event for key may proceed now, consuming a
// token if so. It never blocks.
func (l *PerKeyLimiter) Allow(key string) bool {
	return l.limiterFor(key).Allow()
}

func (l *PerKeyLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[key]
	l.mu.RUnlock()

	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[key]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Every(l.interval), defaultBurst)
	l.limiters[key] = limiter

	return limiter
}
