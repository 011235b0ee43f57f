package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/handlers"
	errors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/i18n"
	"github.com/hadis11/study.bot/pkg/logger"
)

func translatorFor(c telebot.Context, tr *i18n.Manager) i18n.Translator {
	lang := ""
	if c != nil && c.Sender() != nil {
		lang = c.Sender().LanguageCode
	}
	return tr.Translator(lang)
}

// RecoveryMiddleware catches panics, reports them via the centralized handler and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, tr *i18n.Manager) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					t := translatorFor(c, tr)
					userMsg := t.T("errors.generic")
					if errHandler != nil {
						appErr := errors.NewDatabaseError(fmt.Errorf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(handlers.RequestContext(c), t, appErr); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware turns handler errors into a localized chat reply.
func ErrorHandlingMiddleware(errHandler *errors.Handler, tr *i18n.Manager) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			t := translatorFor(c, tr)
			userMsg := t.T("errors.generic")
			if errHandler != nil {
				if msg, _ := errHandler.Handle(handlers.RequestContext(c), t, err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}

// LoggingMiddleware attaches a correlation id to the update and logs its handling.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			ctx := logger.WithCorrelationID(handlers.RequestContext(c))
			handlers.WithRequestContext(c, ctx)

			start := time.Now()
			userID := int64(0)
			if c.Sender() != nil {
				userID = c.Sender().ID
			}

			action := "text"
			if cb := c.Callback(); cb != nil {
				action = cb.Data
			} else if cmd := handlers.CommandName(c.Text()); cmd != "" {
				action = cmd
			}

			log.InfoContext(ctx, "handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// RegistrationMiddleware ensures every sender has a user record before a command runs.
// Failures are logged and recorded on the update; handlers that need the record decide.
func RegistrationMiddleware(svc handlers.StudyService) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if svc == nil || c.Sender() == nil || handlers.CommandName(c.Text()) == "" {
				return next(c)
			}

			ok := svc.EnsureUser(handlers.RequestContext(c), handlers.Participant(c.Sender()))
			handlers.MarkRegistered(c, ok)

			return next(c)
		}
	}
}
