package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "studybot:lock:%d"
	lockTTL            = 5 * time.Second
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user state record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the FSM controller.
type StateMachine interface {
	// Current returns the user's state, treating a missing or expired record as idle.
	Current(ctx context.Context, userID int64) (State, error)
	GetState(ctx context.Context, userID int64) (*UserState, error)
	SetState(ctx context.Context, userID int64, state State, contextData map[string]interface{}) error
	TransitionTo(ctx context.Context, userID int64, newState State) error
	ClearState(ctx context.Context, userID int64) error
	GetAllStates(ctx context.Context) ([]*UserState, error)
}

// machine is a concrete implementation of StateMachine backed by Storage and optional Redis locking.
type machine struct {
	storage     Storage
	log         *slog.Logger
	redisClient *redis.Client
}

// NewStateMachine creates a FSM controller using the provided storage backend.
// redisClient may be nil, in which case no cross-process locking is done.
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage:     storage,
		log:         log,
		redisClient: redisClient,
	}
}

func (m *machine) Current(ctx context.Context, userID int64) (State, error) {
	userState, err := m.storage.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return StateIdle, nil
		}
		return StateIdle, err
	}

	if userState == nil || userState.CurrentState == "" {
		return StateIdle, nil
	}

	return userState.CurrentState, nil
}

// GetState proxies to the underlying storage implementation.
func (m *machine) GetState(ctx context.Context, userID int64) (*UserState, error) {
	return m.storage.GetState(ctx, userID)
}

// GetAllStates returns every persisted user state.
func (m *machine) GetAllStates(ctx context.Context) ([]*UserState, error) {
	return m.storage.GetAllStates(ctx)
}

// SetState composes a UserState and persists it via storage under a lock.
func (m *machine) SetState(ctx context.Context, userID int64, state State, contextData map[string]interface{}) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	return m.saveState(ctx, userID, state, contextData)
}

// TransitionTo changes the state if the transition is allowed, guarded by a lock.
func (m *machine) TransitionTo(ctx context.Context, userID int64, newState State) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	current, err := m.Current(ctx, userID)
	if err != nil {
		return err
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid state transition", "user_id", userID, "from", current, "to", newState)
		return ErrInvalidTransition
	}

	transitionRecorder(string(current), string(newState))

	if newState == StateIdle {
		return m.storage.ClearState(ctx, userID)
	}

	return m.saveState(ctx, userID, newState, nil)
}

// ClearState returns the user to idle by removing the stored state while holding the lock.
func (m *machine) ClearState(ctx context.Context, userID int64) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(ctx, userID)

	current, err := m.Current(ctx, userID)
	if err != nil {
		return err
	}
	if current != StateIdle {
		transitionRecorder(string(current), string(StateIdle))
	}

	return m.storage.ClearState(ctx, userID)
}

func (m *machine) saveState(ctx context.Context, userID int64, state State, contextData map[string]interface{}) error {
	userState := &UserState{
		UserID:       userID,
		CurrentState: state,
		Context:      contextData,
	}

	return m.storage.SetState(ctx, userID, userState)
}

func (m *machine) lock(ctx context.Context, userID int64) error {
	if m.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := m.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		m.log.Error("failed to acquire user state lock", "user_id", userID, "error", err)
		return err
	}

	if !acquired {
		m.log.Warn("user state lock already held", "user_id", userID)
		return ErrStateLocked
	}

	return nil
}

func (m *machine) unlock(ctx context.Context, userID int64) {
	if m.redisClient == nil {
		return
	}

	key := fmt.Sprintf(userLockKeyPattern, userID)
	if err := m.redisClient.Del(ctx, key).Err(); err != nil {
		m.log.Error("failed to release user state lock", "user_id", userID, "error", err)
	}
}
