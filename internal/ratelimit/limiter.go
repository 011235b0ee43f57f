// Package ratelimit throttles updates per sender with a sliding window.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait, rounded up to a second.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r == nil || r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	d := r.ResetAt.Sub(now)
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

// Limiter describes a rate-limiting strategy.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Sweeper drops tracking data for keys idle longer than maxAge.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")
