package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter throttles calls per tool name with a token bucket per key,
// so one noisy tool cannot starve the others behind a shared limit.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	new      func() *rate.Limiter
}

// NewRateLimiter returns a RateLimiter allowing rps sustained calls per
// second per tool name, with burst as the bucket size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	r := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
	r.new = func() *rate.Limiter { return rate.NewLimiter(r.rps, r.burst) }
	return r
}

// Wait blocks until key's bucket has a token to spend, or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, key string) error {
	return r.limiterFor(key).Wait(ctx)
}

// Allow reports whether key currently has a token available, without
// blocking or consuming tokens from any other key.
func (r *RateLimiter) Allow(key string) bool {
	return r.limiterFor(key).Allow()
}

func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[key]; ok {
		return l
	}
	l := r.new()
	r.limiters[key] = l
	return l
}
