package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/i18n"
	"github.com/hadis11/study.bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	i18n    *i18n.Manager
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, tr *i18n.Manager, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		i18n:    tr,
		log:     log,
		now:     time.Now,
	}
}

// Handle returns a telebot middleware that enforces per-user rate limits.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		limit, window, err := m.rules.GetPerUserLimit()
		if err != nil {
			m.log.Error("failed to load per-user rate limit", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		result, err := m.limiter.Check(context.Background(), "user:"+strconv.FormatInt(userID, 10), limit, window)
		if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if result != nil && !result.Allowed {
			retryAfter := int(result.RetryAfter(m.now()) / time.Second)
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID), slog.Int("retry_after_s", retryAfter))

			if cb := c.Callback(); cb != nil {
				return c.Respond()
			}
			return c.Send(m.i18n.Translator(sender.LanguageCode).Tf("errors.rate_limited", retryAfter))
		}

		return next(c)
	}
}
