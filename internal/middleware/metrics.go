package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/handlers"
	"github.com/hadis11/study.bot/pkg/metrics"
)

const (
	statusOK    = "ok"
	statusError = "error"
	statusPanic = "panic"
)

// Metrics times each handler run and counts it by action and outcome.
// A panicking handler is counted as "panic" and the panic keeps unwinding
// towards Recovery.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		started := time.Now()
		status := statusPanic
		defer func() {
			metrics.RecordCommand(actionLabel(c), status, time.Since(started))
		}()

		err := next(c)
		if err != nil {
			status = statusError
		} else {
			status = statusOK
		}
		return err
	}
}

// actionLabel keeps label cardinality bounded. Free text is "text", whatever it says.
func actionLabel(c telebot.Context) string {
	switch {
	case c == nil:
		return "unknown"
	case c.Callback() != nil:
		return "callback"
	}

	cmd := handlers.CommandName(c.Text())
	if cmd == "" {
		return "text"
	}
	return cmd
}
