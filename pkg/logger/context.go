package logger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// correlationIDKey marks the context storage slot for the correlation identifier.
type correlationIDKey struct{}

// WithCorrelationID returns a child context carrying a freshly generated correlation identifier.
func WithCorrelationID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationIDKey{}, uuid.NewString())
}

// CorrelationIDFromContext returns the correlation identifier stored in ctx, or an empty string when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return ""
}

// Middleware injects a correlation identifier into the request context before delegating to the next handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context())))
	})
}

// ContextHandler adds the correlation identifier from the record context, if any.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next with correlation id enrichment.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

// Enabled reports whether the wrapped handler accepts level.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle appends correlation_id when present and delegates.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		record.AddAttrs(slog.String("correlation_id", id))
	}
	return h.next.Handle(ctx, record)
}

// WithAttrs returns a new handler with additional attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup returns a new handler with an appended group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
