package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type bucket struct {
	requests []time.Time
}

// MemoryLimiter is an in-process sliding-window Limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	log     *slog.Logger
	now     func() time.Time
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Sweeper = (*MemoryLimiter)(nil)
)

// NewMemoryLimiter returns an in-memory limiter. A nil clock defaults to time.Now.
func NewMemoryLimiter(log *slog.Logger, now func() time.Time) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}

	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		log:     log,
		now:     now,
	}
}

// Check enforces a sliding-window limit for key. Rejected requests are not counted.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	bkt, ok := m.buckets[key]
	if !ok {
		bkt = &bucket{requests: make([]time.Time, 0, 8)}
		m.buckets[key] = bkt
	}

	bkt.requests = keepRecent(bkt.requests, windowStart)
	count := len(bkt.requests)

	allowed := count < limit
	if allowed {
		bkt.requests = append(bkt.requests, now)
		count++
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(window)
	if len(bkt.requests) > 0 {
		resetAt = bkt.requests[0].Add(window)
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt,
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Sweep removes buckets whose latest request is older than maxAge.
func (m *MemoryLimiter) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, bkt := range m.buckets {
		if len(bkt.requests) == 0 || bkt.requests[len(bkt.requests)-1].Before(cutoff) {
			delete(m.buckets, key)
			removed++
		}
	}

	return removed, nil
}

func keepRecent(reqs []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(reqs) && !reqs[firstIdx].After(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return reqs
	}

	if firstIdx >= len(reqs) {
		return reqs[:0]
	}

	copy(reqs, reqs[firstIdx:])
	return reqs[:len(reqs)-firstIdx]
}
