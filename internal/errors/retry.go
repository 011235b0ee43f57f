package errors

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often and how patiently a failing call is repeated.
type RetryPolicy struct {
	// Retries is the number of calls made after the first one fails.
	Retries int
	Base    time.Duration
	Cap     time.Duration
}

// DefaultRetryPolicy waits 200ms, 400ms and 800ms between four calls.
var DefaultRetryPolicy = RetryPolicy{
	Retries: 3,
	Base:    200 * time.Millisecond,
	Cap:     5 * time.Second,
}

// WithRetry runs fn under DefaultRetryPolicy.
func WithRetry(ctx context.Context, fn func() error) error {
	return DefaultRetryPolicy.Do(ctx, fn)
}

// Do calls fn until it succeeds, fails permanently or the retries run out.
// Only errors for which IsRetryable holds are repeated. The last error wins.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil || attempt >= p.Retries || !IsRetryable(err) {
			return err
		}

		if err := pause(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}
}

// Delay is the wait after the given zero-based failed attempt: Base doubled
// once per attempt, never above Cap.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		if p.Cap > 0 && d >= p.Cap {
			break
		}
		d <<= 1
	}
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	return d
}

// IsRetryable reports whether err wraps an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.Retryable
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
