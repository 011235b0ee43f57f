package middleware

import (
	"context"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/idempotency"
)

// Idempotency drops updates that were already handled, which Telegram may
// redeliver after a webhook timeout or a poller restart. Store failures let the
// update through.
func Idempotency(store idempotency.Store, ttl time.Duration, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if store == nil {
				return next(c)
			}

			updateID := c.Update().ID
			if updateID == 0 {
				return next(c)
			}

			claimed, err := store.Claim(context.Background(), idempotency.UpdateKey(updateID), ttl)
			if err != nil {
				log.Warn("idempotency store error", slog.Int("update_id", updateID), slog.Any("error", err))
				return next(c)
			}
			if !claimed {
				log.Info("skipping duplicate update", slog.Int("update_id", updateID))
				return nil
			}

			return next(c)
		}
	}
}
