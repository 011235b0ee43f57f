package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadis11/study.bot/internal/database"
	"github.com/hadis11/study.bot/internal/domain"
	"github.com/hadis11/study.bot/pkg/config"
	"github.com/hadis11/study.bot/pkg/timeutil"
)

type fixture struct {
	db        *database.DB
	users     *userRepository
	activity  *activityRepository
	standings *standingsRepository
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Open(config.DatabaseConfig{
		Driver: string(database.SQLite),
		DSN:    filepath.Join(t.TempDir(), "study.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, log).Up(context.Background()))

	f := &fixture{
		db:        db,
		standings: &standingsRepository{db: db, log: log},
		now:       time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.users = &userRepository{db: db, log: log, now: clock}
	f.activity = &activityRepository{db: db, log: log, now: clock}

	return f
}

func (f *fixture) calendar(t *testing.T) *timeutil.Calendar {
	t.Helper()
	cal, err := timeutil.NewCalendar("UTC", func() time.Time { return f.now })
	require.NoError(t, err)
	return cal
}

func TestEnsureUser_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 1, "Alice", "alice"))
	require.NoError(t, f.users.EnsureUser(ctx, 1, "Alicia", "alicia"))

	user, err := f.users.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, int64(0), user.TotalHours)
	assert.True(t, user.JoinedAt.Equal(f.now))
}

func TestEnsureUser_WithoutHandle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 2, "Bob", ""))

	user, err := f.users.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, user.HasUsername())

	var isNull bool
	require.NoError(t, f.db.QueryRow(`SELECT username IS NULL FROM users WHERE user_id = 2`).Scan(&isNull))
	assert.True(t, isNull)
}

func TestFindByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLookupUserIDByHandle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 10, "Alice", "alice"))
	require.NoError(t, f.users.EnsureUser(ctx, 11, "Bob", "bob"))

	id, err := f.users.LookupUserIDByHandle(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	_, err = f.users.LookupUserIDByHandle(ctx, "carol")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecordStudyHours_UpdatesOnlyOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 1, "Alice", "alice"))
	require.NoError(t, f.users.EnsureUser(ctx, 2, "Bob", "bob"))

	require.NoError(t, f.activity.RecordStudyHours(ctx, 1, 3))
	require.NoError(t, f.activity.RecordStudyHours(ctx, 1, -1))

	alice, err := f.users.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), alice.TotalHours)

	bob, err := f.users.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bob.TotalHours)

	var entries int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM study_hours WHERE user_id = 1`).Scan(&entries))
	assert.Equal(t, 2, entries)
}

func TestRecordStudyHours_UnknownUserWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.activity.RecordStudyHours(ctx, 99, 5)
	assert.ErrorIs(t, err, ErrUserNotFound)

	var entries int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM study_hours`).Scan(&entries))
	assert.Zero(t, entries)
}

func TestRecordStudyHours_RejectsTotalOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 1, "Alice", "alice"))
	require.NoError(t, f.activity.RecordStudyHours(ctx, 1, math.MaxInt64))

	err := f.activity.RecordStudyHours(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrTotalOverflow)

	alice, err := f.users.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), alice.TotalHours)

	var entries int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM study_hours WHERE user_id = 1`).Scan(&entries))
	assert.Equal(t, 1, entries)

	rows, err := f.standings.DailyStandings(ctx, f.calendar(t).Today())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(math.MaxInt64), rows[0].Hours)
}

func TestAddInt64(t *testing.T) {
	sum, ok := addInt64(math.MaxInt64-1, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), sum)

	_, ok = addInt64(math.MaxInt64, 1)
	assert.False(t, ok)

	_, ok = addInt64(math.MinInt64, -1)
	assert.False(t, ok)

	sum, ok = addInt64(math.MinInt64, math.MaxInt64)
	assert.True(t, ok)
	assert.Equal(t, int64(-1), sum)
}

func TestRecordPointsAward_RequiresRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.activity.RecordPointsAward(ctx, "alice", 5, 12345)
	require.Error(t, err)
	assert.Equal(t, FailureConstraint, Classify(err))

	require.NoError(t, f.users.EnsureUser(ctx, 12345, "Carol", "carol"))
	require.NoError(t, f.activity.RecordPointsAward(ctx, "alice", 5, 12345))

	carol, err := f.users.FindByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(0), carol.TotalHours, "awards do not touch the user row")
}

func TestDailyStandings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 1, "Alice", "alice"))
	require.NoError(t, f.users.EnsureUser(ctx, 2, "Bob", ""))
	require.NoError(t, f.users.EnsureUser(ctx, 3, "Idle", "idle"))

	// yesterday
	f.now = time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	require.NoError(t, f.activity.RecordStudyHours(ctx, 1, 100))

	f.now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.activity.RecordStudyHours(ctx, 1, 2))
	require.NoError(t, f.activity.RecordStudyHours(ctx, 2, 5))
	require.NoError(t, f.activity.RecordPointsAward(ctx, "bob", 7, 1))

	f.now = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	rows, err := f.standings.DailyStandings(ctx, f.calendar(t).Today())
	require.NoError(t, err)

	assert.Equal(t, []domain.Standing{
		{UserID: 2, Name: "Bob", Points: 0, Hours: 5},
		{UserID: 1, Name: "Alice", Username: "alice", Points: 7, Hours: 2},
		{UserID: 3, Name: "Idle", Username: "idle", Points: 0, Hours: 0},
	}, rows)
}

func TestMonthlyStandings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.EnsureUser(ctx, 1, "Alice", "alice"))
	require.NoError(t, f.users.EnsureUser(ctx, 2, "Bob", "bob"))

	// previous month
	f.now = time.Date(2026, 9, 30, 23, 59, 0, 0, time.UTC)
	require.NoError(t, f.activity.RecordPointsAward(ctx, "x", 50, 1))

	f.now = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.activity.RecordStudyHours(ctx, 1, 10))
	require.NoError(t, f.activity.RecordPointsAward(ctx, "x", 10, 2))
	require.NoError(t, f.activity.RecordStudyHours(ctx, 2, 5))

	f.now = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	require.NoError(t, f.activity.RecordPointsAward(ctx, "x", 1, 1))

	rows, err := f.standings.MonthlyStandings(ctx, f.calendar(t).MonthToDate())
	require.NoError(t, err)

	assert.Equal(t, []domain.Standing{
		{UserID: 2, Name: "Bob", Username: "bob", Points: 10, Hours: 5},
		{UserID: 1, Name: "Alice", Username: "alice", Points: 1, Hours: 10},
	}, rows)
}

func TestStandings_EmptyStore(t *testing.T) {
	f := newFixture(t)

	rows, err := f.standings.DailyStandings(context.Background(), f.calendar(t).Today())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "nil", err: nil, want: FailureUnclassified},
		{name: "sqlite constraint", err: fmt.Errorf("wrap: %w", sqlite3.Error{Code: sqlite3.ErrConstraint}), want: FailureConstraint},
		{name: "sqlite busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: FailureConnectivity},
		{name: "sqlite mismatch", err: sqlite3.Error{Code: sqlite3.ErrMismatch}, want: FailureTypeRange},
		{name: "postgres unique violation", err: &pq.Error{Code: "23505"}, want: FailureConstraint},
		{name: "postgres numeric out of range", err: &pq.Error{Code: "22003"}, want: FailureTypeRange},
		{name: "postgres connection failure", err: &pq.Error{Code: "08006"}, want: FailureConnectivity},
		{name: "deadline", err: context.DeadlineExceeded, want: FailureConnectivity},
		{name: "other", err: errors.New("boom"), want: FailureUnclassified},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
