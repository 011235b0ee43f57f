package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Shutdown runs registered hooks in reverse registration order, the way
// deferred calls unwind: the bot stops taking updates before the store closes.
type Shutdown struct {
	mu    sync.Mutex
	hooks []hook
	log   *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds a named shutdown hook.
func (s *Shutdown) Register(name string, fn HookFunc) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// Execute runs every hook once, even after failures, and joins their errors.
// Hooks still running when ctx ends see a canceled context.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].run(ctx, s.log); err != nil {
			errs = append(errs, err)
		}
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}
