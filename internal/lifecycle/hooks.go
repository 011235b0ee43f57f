// Package lifecycle orders the release of long-lived resources on exit.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// HookFunc releases one resource. It should give up once ctx is done.
type HookFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   HookFunc
}

// run calls the hook and logs how long it took. A panic is turned into an
// error so the hooks after it still run.
func (h hook) run(ctx context.Context, log *slog.Logger) (err error) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}

		attrs := []any{slog.String("hook", h.name), slog.Duration("took", time.Since(started))}
		if err != nil {
			log.Error("shutdown hook failed", append(attrs, slog.Any("error", err))...)
			err = fmt.Errorf("%s: %w", h.name, err)
			return
		}
		log.Info("shutdown hook completed", attrs...)
	}()

	return h.fn(ctx)
}
