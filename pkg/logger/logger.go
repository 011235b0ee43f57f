// Package logger builds the application slog logger.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hadis11/study.bot/pkg/config"
)

// Logger wraps slog.Logger together with its adjustable level and output sinks.
type Logger struct {
	*slog.Logger
	Level   *slog.LevelVar
	closers []io.Closer
}

// New creates a Logger configured from cfg: JSON or text to stdout, optionally
// tee'd to a rotating file, with sensitive attributes masked and errors
// forwarded to Sentry when enabled.
func New(cfg config.Config) *Logger {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Logger.Level))

	var (
		out     io.Writer = os.Stdout
		closers []io.Closer
	)

	if cfg.Logger.File.Enabled && cfg.Logger.File.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Logger.File.Path,
			MaxSize:    cfg.Logger.File.MaxSizeMB,
			MaxBackups: cfg.Logger.File.MaxBackups,
			MaxAge:     cfg.Logger.File.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
		closers = append(closers, file)
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if cfg.Logger.Format == "text" {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}

	handler := slog.Handler(NewContextHandler(NewMaskingHandler(base)))

	if cfg.Sentry.Enabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelError, AddSource: true}.NewSentryHandler()
		handler = newFanoutHandler(handler, NewMaskingHandler(sentryHandler))
	}

	l := slog.New(handler).With(slog.String("env", cfg.AppEnv))

	return &Logger{Logger: l, Level: level, closers: closers}
}

// Close flushes and closes file sinks.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// ParseLevel converts a textual level into slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// fanoutHandler forwards each record to every wrapped handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, next := range h.handlers {
		if next.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, next := range h.handlers {
		if !next.Enabled(ctx, record.Level) {
			continue
		}
		errs = append(errs, next.Handle(ctx, record.Clone()))
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
