package study

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hadis11/study.bot/internal/domain"
	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/repository"
	"github.com/hadis11/study.bot/pkg/timeutil"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUsers) EnsureUser(ctx context.Context, id int64, name, username string) error {
	return m.Called(ctx, id, name, username).Error(0)
}

func (m *mockUsers) LookupUserIDByHandle(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

type mockActivity struct{ mock.Mock }

func (m *mockActivity) RecordStudyHours(ctx context.Context, userID, hours int64) error {
	return m.Called(ctx, userID, hours).Error(0)
}

func (m *mockActivity) RecordPointsAward(ctx context.Context, giver string, points, recipientID int64) error {
	return m.Called(ctx, giver, points, recipientID).Error(0)
}

type mockStandings struct{ mock.Mock }

func (m *mockStandings) DailyStandings(ctx context.Context, window timeutil.Window) ([]domain.Standing, error) {
	args := m.Called(ctx, window)
	rows, _ := args.Get(0).([]domain.Standing)
	return rows, args.Error(1)
}

func (m *mockStandings) MonthlyStandings(ctx context.Context, window timeutil.Window) ([]domain.Standing, error) {
	args := m.Called(ctx, window)
	rows, _ := args.Get(0).([]domain.Standing)
	return rows, args.Error(1)
}

type mocks struct {
	users     *mockUsers
	activity  *mockActivity
	standings *mockStandings
	calendar  *timeutil.Calendar
}

func newTestService(t *testing.T) (*Service, mocks) {
	t.Helper()

	cal, err := timeutil.NewCalendar("UTC", func() time.Time {
		return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)

	m := mocks{
		users:     &mockUsers{},
		activity:  &mockActivity{},
		standings: &mockStandings{},
		calendar:  cal,
	}

	svc := NewService(Options{
		Users:        m.users,
		Activity:     m.activity,
		Standings:    m.standings,
		Calendar:     cal,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		QueryTimeout: time.Second,
	})

	return svc, m
}

func TestService_EnsureUserFailSoft(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	p := Participant{ID: 1, Name: "Alice", Username: "alice"}

	m.users.On("EnsureUser", mock.Anything, int64(1), "Alice", "alice").Return(nil).Once()
	assert.True(t, svc.EnsureUser(ctx, p))

	m.users.On("EnsureUser", mock.Anything, int64(1), "Alice", "alice").Return(errors.New("database is locked")).Once()
	assert.False(t, svc.EnsureUser(ctx, p))

	m.users.AssertExpectations(t)
}

func TestService_RecordStudyHours(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	m.activity.On("RecordStudyHours", mock.Anything, int64(5), int64(3)).Return(nil).Once()
	require.NoError(t, svc.RecordStudyHours(ctx, 5, 3))

	m.activity.On("RecordStudyHours", mock.Anything, int64(5), int64(4)).Return(repository.ErrUserNotFound).Once()
	err := svc.RecordStudyHours(ctx, 5, 4)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E200", appErr.Code)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	m.activity.AssertExpectations(t)
}

func TestService_RecordStudyHoursOverflow(t *testing.T) {
	svc, m := newTestService(t)

	m.activity.On("RecordStudyHours", mock.Anything, int64(5), int64(1)).Return(repository.ErrTotalOverflow).Once()
	err := svc.RecordStudyHours(context.Background(), 5, 1)

	assert.ErrorIs(t, err, ErrInvalidHours)
	assert.ErrorIs(t, err, repository.ErrTotalOverflow)
	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	m.activity.AssertExpectations(t)
}

func TestService_AwardPoints(t *testing.T) {
	ctx := context.Background()

	t.Run("credits recipient with giver handle", func(t *testing.T) {
		svc, m := newTestService(t)
		m.users.On("LookupUserIDByHandle", mock.Anything, "bob").Return(int64(22), nil).Once()
		m.activity.On("RecordPointsAward", mock.Anything, "alice", int64(10), int64(22)).Return(nil).Once()

		err := svc.AwardPoints(ctx, Participant{ID: 1, Username: "alice"}, Award{Username: "bob", Points: 10})
		require.NoError(t, err)
		m.users.AssertExpectations(t)
		m.activity.AssertExpectations(t)
	})

	t.Run("giver without handle uses id", func(t *testing.T) {
		svc, m := newTestService(t)
		m.users.On("LookupUserIDByHandle", mock.Anything, "bob").Return(int64(22), nil).Once()
		m.activity.On("RecordPointsAward", mock.Anything, "777", int64(1), int64(22)).Return(nil).Once()

		require.NoError(t, svc.AwardPoints(ctx, Participant{ID: 777}, Award{Username: "bob", Points: 1}))
		m.activity.AssertExpectations(t)
	})

	t.Run("unknown handle writes nothing", func(t *testing.T) {
		svc, m := newTestService(t)
		m.users.On("LookupUserIDByHandle", mock.Anything, "ghost").Return(int64(0), repository.ErrUserNotFound).Once()

		err := svc.AwardPoints(ctx, Participant{ID: 1}, Award{Username: "ghost", Points: 3})
		assert.ErrorIs(t, err, ErrRecipientNotFound)
		m.activity.AssertNotCalled(t, "RecordPointsAward", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, m := newTestService(t)
		m.users.On("LookupUserIDByHandle", mock.Anything, "bob").Return(int64(22), nil).Once()
		m.activity.On("RecordPointsAward", mock.Anything, "1", int64(3), int64(22)).Return(errors.New("disk full")).Once()

		err := svc.AwardPoints(ctx, Participant{ID: 1}, Award{Username: "bob", Points: 3})
		var appErr *apperrors.AppError
		assert.ErrorAs(t, err, &appErr)
	})
}

func TestService_DailyReport(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	m.standings.On("DailyStandings", mock.Anything, m.calendar.Today()).Return([]domain.Standing{
		{UserID: 1, Name: "A", Hours: 1},
		{UserID: 2, Name: "B", Hours: 3},
	}, nil).Once()
	m.standings.On("MonthlyStandings", mock.Anything, m.calendar.MonthToDate()).Return([]domain.Standing{
		{UserID: 2, Name: "B", Points: 5, Hours: 10},
	}, nil).Once()

	lines, err := svc.DailyReport(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, int64(2), lines[0].Standing.UserID)
	assert.Equal(t, int64(15), lines[0].OverallMonth)
	assert.Equal(t, int64(0), lines[1].OverallMonth)

	m.standings.AssertExpectations(t)
}

func TestService_MonthlyReportFailure(t *testing.T) {
	svc, m := newTestService(t)

	m.standings.On("MonthlyStandings", mock.Anything, mock.Anything).Return(nil, errors.New("no such table")).Once()

	lines, err := svc.MonthlyReport(context.Background())
	assert.Nil(t, lines)

	var appErr *apperrors.AppError
	assert.ErrorAs(t, err, &appErr)
}

func TestService_Profile(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	m.users.On("FindByID", mock.Anything, int64(9)).Return(&domain.User{ID: 9, Name: "Neo", TotalHours: 12}, nil).Once()
	m.users.On("FindByID", mock.Anything, int64(10)).Return(nil, repository.ErrUserNotFound).Once()

	user, err := svc.Profile(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(12), user.TotalHours)

	_, err = svc.Profile(ctx, 10)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E600", appErr.Code)
	assert.Equal(t, "profile.not_found", appErr.UserMessage)
}
