package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	s := NewShutdown(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	s.Register("database", record("database"))
	s.Register("nil", nil)
	s.Register("ops server", record("ops server"))
	s.Register("bot", record("bot"))

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"bot", "ops server", "database"}, order)

	order = nil
	require.NoError(t, s.Execute(context.Background()))
	assert.Empty(t, order, "hooks run once")
}

func TestShutdownJoinsErrors(t *testing.T) {
	s := NewShutdown(nil)

	errStore := errors.New("close failed")
	ran := false

	s.Register("database", func(context.Context) error { return errStore })
	s.Register("bot", func(context.Context) error {
		ran = true
		return errors.New("poller stuck")
	})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, ran)
	assert.ErrorIs(t, err, errStore)
	assert.Contains(t, err.Error(), "bot: poller stuck")
	assert.Contains(t, err.Error(), "database: close failed")
}

func TestShutdownSurvivesPanickingHook(t *testing.T) {
	s := NewShutdown(nil)

	closed := false
	s.Register("database", func(context.Context) error {
		closed = true
		return nil
	})
	s.Register("workers", func(context.Context) error { panic("double close") })

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, closed)
	assert.Contains(t, err.Error(), "workers: panic: double close")
}
