// Package ratelimit throttles brute-forceable endpoints such as code
// validation and redemption.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(count, limit int, untilReset time.Duration) Decision {
	d := Decision{Allowed: count <= limit, Limit: limit, Remaining: limit - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = untilReset
	}
	return d
}

// MemoryLimiter is a per-process fixed window limiter used when Redis is
// not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	start time.Time
	count int
}

// NewMemoryLimiter allows limit requests per key per window
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow counts one request for key
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Truncate(l.window)
	b, ok := l.buckets[key]
	if !ok || !b.start.Equal(start) {
		if len(l.buckets) > 10000 {
			l.evict(start)
		}
		b = &bucket{start: start}
		l.buckets[key] = b
	}
	b.count++

	return decide(b.count, l.limit, start.Add(l.window).Sub(now)), nil
}

// evict drops buckets from earlier windows
func (l *MemoryLimiter) evict(current time.Time) {
	for k, b := range l.buckets {
		if b.start.Before(current) {
			delete(l.buckets, k)
		}
	}
}
