// Package fetch performs rate-limited, retrying HTTP retrieval for the
// crawl core.
package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a global minimum spacing between outbound requests.
// One instance is shared by every fetch in a run; grants are serialized, so
// concurrent callers are released one at a time, each at least an interval
// after the previous grant.
type RateLimiter struct {
	lim      *rate.Limiter
	interval time.Duration
}

// NewRateLimiter spaces grants 60/requestsPerMinute seconds apart. A
// non-positive argument disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return &RateLimiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimiter{
		lim:      rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Acquire blocks until the spacing invariant allows another request or ctx
// ends.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	if err := r.lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Interval reports the configured minimum spacing.
func (r *RateLimiter) Interval() time.Duration { return r.interval }
