package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/handlers"
	"github.com/hadis11/study.bot/internal/bot/keyboard"
)

// Router dispatches commands, callbacks and state-aware updates.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	dispatcher     *Dispatcher
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/report".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd)] = h
}

// RegisterCallback registers a handler for a callback action.
func (r *Router) RegisterCallback(action string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[action] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for unmatched commands or states.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route runs the middleware chain around the handler matching the update.
// Resolution happens inside the chain so it sees the request context.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	return r.executeHandler(r.resolve, c)
}

func (r *Router) resolve(c telebot.Context) error {
	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	action, _, err := keyboard.DecodeCallback(data)
	if err != nil {
		r.log.Info("malformed callback data", "data", data, "error", err)
		return c.Respond()
	}

	handler := r.getCallbackHandler(action)
	if handler == nil {
		r.log.Info("no callback handler found", "data", data)
		return c.Respond()
	}

	return handler(c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	if cmd := handlers.CommandName(c.Text()); cmd != "" {
		if r.dispatcher != nil {
			if err := r.dispatcher.Abandon(c); err != nil {
				r.log.Warn("failed to clear pending dialogue", "command", cmd, "error", err)
			}
		}
		if handler := r.getCommandHandler(cmd); handler != nil {
			return handler(c)
		}
		return r.runDefault(c)
	}

	if r.dispatcher != nil {
		handler, err := r.dispatcher.Resolve(c)
		if err != nil {
			return err
		}
		if handler != nil {
			return handler(c)
		}
	}

	return r.runDefault(c)
}

func (r *Router) runDefault(c telebot.Context) error {
	if handler := r.getDefaultHandler(); handler != nil {
		return handler(c)
	}
	return nil
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCallbackHandler(action string) handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks[action]
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
// The first registered middleware is the outermost.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
