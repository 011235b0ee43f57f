package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps states in process memory with a TTL.
type MemoryStorage struct {
	mu     sync.Mutex
	states map[int64]*UserState
	ttl    time.Duration
	now    func() time.Time
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Expirer = (*MemoryStorage)(nil)
)

// NewMemoryStorage creates an in-memory Storage. A nil clock defaults to time.Now.
func NewMemoryStorage(ttl time.Duration, now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}

	return &MemoryStorage{
		states: make(map[int64]*UserState),
		ttl:    ttl,
		now:    now,
	}
}

// GetState returns a copy of the stored state or ErrStateNotFound when absent or expired.
func (s *MemoryStorage) GetState(_ context.Context, userID int64) (*UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return nil, ErrStateNotFound
	}

	if st.Expired(s.now(), s.ttl) {
		delete(s.states, userID)
		return nil, ErrStateNotFound
	}

	return cloneState(st), nil
}

// SetState stores a copy of state stamped with the current time.
func (s *MemoryStorage) SetState(_ context.Context, userID int64, state *UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneState(state)
	stored.UserID = userID
	stored.UpdatedAt = s.now().UTC()
	s.states[userID] = stored

	return nil
}

// ClearState removes the state for userID.
func (s *MemoryStorage) ClearState(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

// GetAllStates returns copies of all non-expired states.
func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	result := make([]*UserState, 0, len(s.states))
	for _, st := range s.states {
		if st.Expired(now, s.ttl) {
			continue
		}
		result = append(result, cloneState(st))
	}

	return result, nil
}

// PurgeExpired drops expired states and returns how many were removed.
func (s *MemoryStorage) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, st := range s.states {
		if st.Expired(now, s.ttl) {
			delete(s.states, id)
			removed++
		}
	}

	return removed, nil
}

func cloneState(state *UserState) *UserState {
	if state == nil {
		return &UserState{}
	}

	copyState := *state
	if state.Context != nil {
		ctxCopy := make(map[string]interface{}, len(state.Context))
		for k, v := range state.Context {
			ctxCopy[k] = v
		}
		copyState.Context = ctxCopy
	}
	return &copyState
}
