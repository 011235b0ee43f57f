package idempotency

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreClaim(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	ok, err := store.Claim(ctx, UpdateKey(42), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, UpdateKey(42), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim of the same update")

	ok, err = store.Claim(ctx, UpdateKey(43), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	removed, err := store.Sweep(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ok, err = store.Claim(ctx, UpdateKey(42), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "claim is free again after expiry")
}

func TestRedisStoreClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	ok, err := store.Claim(ctx, UpdateKey(7), time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("studybot:idempotency:update:7"))

	ok, err = store.Claim(ctx, UpdateKey(7), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)

	ok, err = store.Claim(ctx, UpdateKey(7), time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
