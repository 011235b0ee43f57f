package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes expired conversation states on a schedule.
type Cleaner struct {
	expirer  Expirer
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(expirer Expirer, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		expirer:  expirer,
		log:      log,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.expirer == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("state cleaner stopped", slog.Any("reason", ctx.Err()))
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

	removed, err := c.expirer.PurgeExpired(ctx)
	if err != nil {
		c.log.Error("state cleaner failed to purge expired states", slog.Any("error", err))
		return
	}

	if removed > 0 {
		c.log.Info("expired conversation states cleared", slog.Int("removed", removed))
	}
}
