package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically drops rate-limit data for idle senders.
type Cleaner struct {
	sweeper  Sweeper
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewCleaner constructs a Cleaner. Keys idle for longer than maxAge are removed.
func NewCleaner(sweeper Sweeper, log *slog.Logger, interval, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		sweeper:  sweeper,
		log:      log,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run starts the cleaner loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.sweeper == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("sweeper stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	removed, err := c.sweeper.Sweep(ctx, c.maxAge)
	if err != nil {
		c.log.Error("sweep failed", slog.Any("error", err))
		return
	}

	if removed > 0 {
		c.log.Info("expired keys cleaned", slog.Int("keys_removed", removed))
	}
}
