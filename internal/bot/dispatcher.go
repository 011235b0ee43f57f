package bot

import (
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/handlers"
	"github.com/hadis11/study.bot/internal/state"
)

// Dispatcher routes free text to the handler of the sender's dialogue state.
type Dispatcher struct {
	fsm           state.StateMachine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.StateMachine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Resolve returns the handler for the sender's current state, or nil when
// the sender is idle or the state has no handler.
func (d *Dispatcher) Resolve(c telebot.Context) (handlers.Handler, error) {
	if c == nil || c.Sender() == nil {
		d.log.Warn("cannot dispatch without sender information")
		return nil, nil
	}

	userID := c.Sender().ID
	current, err := d.fsm.Current(handlers.RequestContext(c), userID)
	if err != nil {
		return nil, err
	}

	handler := d.getHandler(current)
	if handler == nil && current != state.StateIdle {
		d.log.Info("no handler registered for state", "state", current, "user_id", userID)
	}

	return handler, nil
}

// Abandon drops any dialogue the sender left pending. A command always ends
// the dialogue; /report and /award start a fresh one afterwards.
func (d *Dispatcher) Abandon(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		return nil
	}

	ctx := handlers.RequestContext(c)
	userID := c.Sender().ID

	current, err := d.fsm.Current(ctx, userID)
	if err != nil {
		return err
	}
	if current == state.StateIdle {
		return nil
	}

	d.log.Debug("dialogue abandoned by command", "state", current, "user_id", userID)
	return d.fsm.ClearState(ctx, userID)
}

func (d *Dispatcher) getHandler(s state.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
