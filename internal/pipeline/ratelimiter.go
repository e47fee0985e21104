package pipeline

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter bounds the rate of analysis backend calls so a burst of
// submissions cannot overwhelm the model sidecar.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter.
// rps: requests per second; burst defaults to rps when non-positive.
func NewRateLimiter(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = rps
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until the rate limit allows another call or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
