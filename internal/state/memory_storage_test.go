package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryStorage_SetGetClear(t *testing.T) {
	storage := NewMemoryStorage(time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, storage.SetState(ctx, 10, &UserState{CurrentState: StateAwaitingStudyHours}))

	got, err := storage.GetState(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.UserID)
	assert.Equal(t, StateAwaitingStudyHours, got.CurrentState)

	got.CurrentState = StateIdle
	again, err := storage.GetState(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingStudyHours, again.CurrentState, "returned state must be a copy")

	require.NoError(t, storage.ClearState(ctx, 10))
	_, err = storage.GetState(ctx, 10)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestMemoryStorage_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	storage := NewMemoryStorage(10*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, storage.SetState(ctx, 1, &UserState{CurrentState: StateAwaitingStudyHours}))
	require.NoError(t, storage.SetState(ctx, 2, &UserState{CurrentState: StateAwaitingAwardDetails}))

	clock.Advance(5 * time.Minute)
	require.NoError(t, storage.SetState(ctx, 2, &UserState{CurrentState: StateAwaitingAwardDetails}))

	clock.Advance(6 * time.Minute)

	_, err := storage.GetState(ctx, 1)
	assert.ErrorIs(t, err, ErrStateNotFound)

	all, err := storage.GetAllStates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].UserID)

	clock.Advance(10 * time.Minute)
	removed, err := storage.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCleaner_PurgesExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	storage := NewMemoryStorage(time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, storage.SetState(ctx, 1, &UserState{CurrentState: StateAwaitingStudyHours}))
	clock.Advance(2 * time.Minute)

	cleaner := NewCleaner(storage, testLogger(), time.Minute)
	cleaner.cleanup(ctx)

	assert.Empty(t, storage.states)
}
