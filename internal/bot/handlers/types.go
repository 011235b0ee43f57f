// Package handlers implements the bot commands and the dialogue steps.
package handlers

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

const (
	contextKey    = "request_ctx"
	registeredKey = "registered"
)

// WithRequestContext stores ctx on the update for downstream handlers.
func WithRequestContext(c telebot.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// RequestContext returns the context stored by WithRequestContext, or Background.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// MarkRegistered records the outcome of sender registration on the update.
func MarkRegistered(c telebot.Context, ok bool) {
	c.Set(registeredKey, ok)
}

// registration returns the recorded registration outcome, if any.
func registration(c telebot.Context) (ok, known bool) {
	ok, known = c.Get(registeredKey).(bool)
	return ok, known
}

// CommandName extracts "/cmd" from "/cmd@bot args". It returns "" for plain text.
func CommandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}
