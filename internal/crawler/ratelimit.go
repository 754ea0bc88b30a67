package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter spaces requests to the same origin by a minimum delay.
// Each origin gets its own token bucket with burst 1 refilling every delay,
// so the first request to an origin proceeds immediately and subsequent
// ones wait out the remainder of the interval. Reserving the token and
// recording the permission time are one atomic operation inside
// rate.Limiter, so two concurrent callers for one origin can never both
// proceed early.
type rateLimiter struct {
	delay time.Duration

	mu      sync.Mutex
	origins map[string]*rate.Limiter
}

// newRateLimiter creates a limiter enforcing the given inter-request delay
// per origin. A non-positive delay disables waiting entirely.
func newRateLimiter(delay time.Duration) *rateLimiter {
	return &rateLimiter{
		delay:   delay,
		origins: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to the origin is permitted, or until ctx is
// done. Origins are independent: one origin's delay never stalls another.
func (rl *rateLimiter) Wait(ctx context.Context, origin string) error {
	if rl.delay <= 0 {
		return nil
	}

	rl.mu.Lock()
	limiter, ok := rl.origins[origin]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(rl.delay), 1)
		rl.origins[origin] = limiter
	}
	rl.mu.Unlock()

	return limiter.Wait(ctx)
}
