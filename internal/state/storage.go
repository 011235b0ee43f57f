// Package state manages per-user conversation state for multi-step commands.
package state

import "context"

// Storage defines the persistence contract for user conversation state.
// Implementations expire states after their configured TTL; an expired state
// behaves exactly like a missing one.
type Storage interface {
	// GetState returns the current state for the specified user or ErrStateNotFound.
	GetState(ctx context.Context, userID int64) (*UserState, error)
	// SetState saves the provided state for the specified user.
	SetState(ctx context.Context, userID int64, state *UserState) error
	// ClearState removes the state for the specified user.
	ClearState(ctx context.Context, userID int64) error
	// GetAllStates returns every live state.
	GetAllStates(ctx context.Context) ([]*UserState, error)
}

// Expirer is implemented by storages that need an explicit sweep of expired states.
type Expirer interface {
	PurgeExpired(ctx context.Context) (int, error)
}
