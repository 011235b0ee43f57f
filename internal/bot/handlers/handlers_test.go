package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/domain"
	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/i18n"
	"github.com/hadis11/study.bot/internal/report"
	"github.com/hadis11/study.bot/internal/state"
	"github.com/hadis11/study.bot/internal/study"
)

type mockStudy struct {
	mock.Mock
}

func (m *mockStudy) EnsureUser(ctx context.Context, p study.Participant) bool {
	return m.Called(ctx, p).Bool(0)
}

func (m *mockStudy) RecordStudyHours(ctx context.Context, userID, hours int64) error {
	return m.Called(ctx, userID, hours).Error(0)
}

func (m *mockStudy) AwardPoints(ctx context.Context, giver study.Participant, award study.Award) error {
	return m.Called(ctx, giver, award).Error(0)
}

func (m *mockStudy) DailyReport(ctx context.Context) ([]report.DailyLine, error) {
	args := m.Called(ctx)
	lines, _ := args.Get(0).([]report.DailyLine)
	return lines, args.Error(1)
}

func (m *mockStudy) MonthlyReport(ctx context.Context) ([]report.MonthlyLine, error) {
	args := m.Called(ctx)
	lines, _ := args.Get(0).([]report.MonthlyLine)
	return lines, args.Error(1)
}

func (m *mockStudy) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func newDeps(t *testing.T, svc StudyService) Deps {
	t.Helper()

	tr, err := i18n.Load("en")
	require.NoError(t, err)

	return Deps{
		Study: svc,
		FSM:   state.NewStateMachine(state.NewMemoryStorage(time.Hour, nil), nil, nil),
		I18n:  tr,
	}
}

func currentState(t *testing.T, d Deps, userID int64) state.State {
	t.Helper()
	s, err := d.FSM.Current(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/report", want: "/report"},
		{in: "/Report@StudyBot", want: "/report"},
		{in: "/award@bot @bob 5", want: "/award"},
		{in: "hello", want: ""},
		{in: "", want: ""},
		{in: "  /daily", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CommandName(tt.in), tt.in)
	}
}

func TestReportDialogue(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)

	c := newFakeContext(1, "alice", "/report")
	MarkRegistered(c, true)

	require.NoError(t, NewReportHandler(d)(c))
	assert.Equal(t, "Friend, how much did you focus today?", c.last())
	require.Len(t, c.opts[0], 1)
	assert.IsType(t, &telebot.ReplyMarkup{}, c.opts[0][0])
	assert.Equal(t, state.StateAwaitingStudyHours, currentState(t, d, 1))

	svc.On("RecordStudyHours", mock.Anything, int64(1), int64(3)).Return(nil).Once()

	c.text = " 3 "
	require.NoError(t, NewStudyHoursHandler(d)(c))
	assert.Equal(t, "Thank you! Your study time has been recorded.", c.last())
	assert.Equal(t, state.StateIdle, currentState(t, d, 1))
	svc.AssertExpectations(t)
}

func TestReportRegistersWhenMiddlewareDidNot(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)
	c := newFakeContext(1, "alice", "/report")

	svc.On("EnsureUser", mock.Anything, study.Participant{ID: 1, Name: "Alice", Username: "alice"}).Return(false).Once()

	require.NoError(t, NewReportHandler(d)(c))
	assert.Equal(t, "We could not register you right now. Please try again later.", c.last())
	assert.Equal(t, state.StateIdle, currentState(t, d, 1))
	svc.AssertExpectations(t)
}

func TestStudyHoursInvalidClearsState(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)
	require.NoError(t, d.FSM.TransitionTo(context.Background(), 1, state.StateAwaitingStudyHours))

	c := newFakeContext(1, "alice", "three")
	require.NoError(t, NewStudyHoursHandler(d)(c))

	assert.Equal(t, "Please enter a valid number of hours.", c.last())
	assert.Equal(t, state.StateIdle, currentState(t, d, 1))
	svc.AssertNotCalled(t, "RecordStudyHours", mock.Anything, mock.Anything, mock.Anything)
}

func TestStudyHoursStoreFailure(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)
	svc.On("RecordStudyHours", mock.Anything, int64(1), int64(2)).
		Return(apperrors.NewDatabaseError(errors.New("disk I/O error"))).Once()

	c := newFakeContext(1, "alice", "2")
	err := NewStudyHoursHandler(d)(c)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "report.failed", appErr.UserMessage)
	assert.Empty(t, c.sent)
}

func TestStudyHoursRejectedByStore(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)
	svc.On("RecordStudyHours", mock.Anything, int64(1), int64(1)).Return(study.ErrInvalidHours).Once()

	c := newFakeContext(1, "alice", "1")
	require.NoError(t, NewStudyHoursHandler(d)(c))

	assert.Equal(t, "Please enter a valid number of hours.", c.last())
	svc.AssertExpectations(t)
}

func TestStudyHoursOutOfRange(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)

	c := newFakeContext(1, "alice", "9223372036854775807")
	require.NoError(t, NewStudyHoursHandler(d)(c))

	assert.Equal(t, "Please enter a valid number of hours.", c.last())
	svc.AssertNotCalled(t, "RecordStudyHours", mock.Anything, mock.Anything, mock.Anything)
}

func TestAwardDetails(t *testing.T) {
	giver := study.Participant{ID: 1, Name: "Alice", Username: "alice"}

	tests := []struct {
		name    string
		text    string
		setup   func(m *mockStudy)
		want    string
		wantErr string
	}{
		{
			name: "success",
			text: "@bob 10",
			setup: func(m *mockStudy) {
				m.On("AwardPoints", mock.Anything, giver, study.Award{Username: "bob", Points: 10}).Return(nil)
			},
			want: "10💎 points have been awarded to @bob!",
		},
		{name: "negative points", text: "@bob -10", want: "Invalid format. Please use: @username points"},
		{name: "missing at", text: "bob 10", want: "Invalid format. Please use: @username points"},
		{name: "word points", text: "@bob ten", want: "Invalid format. Please use: @username points"},
		{name: "extra token", text: "@bob 10 extra", want: "Invalid format. Please use: @username points"},
		{
			name: "unknown recipient",
			text: "@carol 1",
			setup: func(m *mockStudy) {
				m.On("AwardPoints", mock.Anything, giver, mock.Anything).Return(study.ErrRecipientNotFound)
			},
			want: "Username not found. Please check and try again.",
		},
		{
			name: "store failure",
			text: "@bob 1",
			setup: func(m *mockStudy) {
				m.On("AwardPoints", mock.Anything, giver, mock.Anything).Return(errors.New("boom"))
			},
			wantErr: "award.failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockStudy)
			if tt.setup != nil {
				tt.setup(svc)
			}
			d := newDeps(t, svc)
			require.NoError(t, d.FSM.TransitionTo(context.Background(), 1, state.StateAwaitingAwardDetails))

			c := newFakeContext(1, "alice", tt.text)
			err := NewAwardDetailsHandler(d)(c)

			assert.Equal(t, state.StateIdle, currentState(t, d, 1))
			if tt.wantErr != "" {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantErr, appErr.UserMessage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, c.last())
			if tt.setup == nil {
				svc.AssertNotCalled(t, "AwardPoints", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDailyAndMonthlyHandlers(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)

	svc.On("DailyReport", mock.Anything).Return([]report.DailyLine(nil), nil).Once()
	svc.On("MonthlyReport", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	c := newFakeContext(1, "alice", "/daily")
	require.NoError(t, NewDailyHandler(d)(c))
	assert.Equal(t, "No data available for the report.", c.last())

	err := NewMonthlyHandler(d)(newFakeContext(1, "alice", "/month"))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "errors.report", appErr.UserMessage)
}

func TestCancelHandler(t *testing.T) {
	d := newDeps(t, new(mockStudy))
	require.NoError(t, d.FSM.TransitionTo(context.Background(), 1, state.StateAwaitingAwardDetails))

	c := newFakeContext(1, "alice", "")
	c.callback = &telebot.Callback{Data: "dialog:cancel"}

	require.NoError(t, NewCancelHandler(d)(c))
	assert.Equal(t, 1, c.responded)
	assert.Equal(t, "Cancelled. Use the menu below to continue.", c.last())
	assert.Equal(t, state.StateIdle, currentState(t, d, 1))
}

func TestProfileHandler(t *testing.T) {
	svc := new(mockStudy)
	d := newDeps(t, svc)

	joined := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	svc.On("Profile", mock.Anything, int64(7)).
		Return(&domain.User{ID: 7, Name: "Bob", JoinedAt: joined, TotalHours: 12}, nil).Once()

	c := newFakeContext(7, "", "/me")
	require.NoError(t, NewProfileHandler(d)(c))
	assert.Equal(t, "👤 Bob (id 7)\nJoined: 2024-03-05\nTotal study hours: 12", c.last())
}

func TestUnknownCommandOnlyInPrivateChats(t *testing.T) {
	d := newDeps(t, new(mockStudy))

	c := newFakeContext(1, "alice", "/nope")
	require.NoError(t, NewUnknownCommandHandler(d)(c))
	assert.Equal(t, "Unknown command. Send /help to see what I can do.", c.last())

	group := newFakeContext(1, "alice", "/nope")
	group.chat.Type = telebot.ChatGroup
	require.NoError(t, NewUnknownCommandHandler(d)(group))
	assert.Empty(t, group.sent)

	text := newFakeContext(1, "alice", "just chatting")
	require.NoError(t, NewUnknownCommandHandler(d)(text))
	assert.Empty(t, text.sent)
}

func TestSplitMessage(t *testing.T) {
	block := strings.Repeat("x", 8) + "\n\n"

	chunks := SplitMessage(strings.Repeat(block, 5), 25)
	require.Len(t, chunks, 3)
	assert.Equal(t, block+block, chunks[0])
	assert.Equal(t, block, chunks[2])

	assert.Equal(t, []string{"short"}, SplitMessage("short", 25))
	assert.Equal(t, []string{"abc", "def", "g"}, SplitMessage("abcdefg", 3))
}

func TestSplitMessageCountsUTF16Units(t *testing.T) {
	var b strings.Builder
	b.WriteString("📊 Daily Progress Report:\n\n")
	for i := 1; i <= 200; i++ {
		fmt.Fprintf(&b, "Rank %d:\nUser: Student%d @student%d\nHours of Focus Today: %d\nOverall Score This Month: %d💎 (Total Hours: %d, Points: %d💎)\n\n",
			i, i, i, 200-i, 400-i, 200-i, 200)
	}
	text := b.String()
	require.Greater(t, len(utf16.Encode([]rune(text))), MaxMessageLength)

	chunks := SplitMessage(text, MaxMessageLength)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(utf16.Encode([]rune(chunk))), MaxMessageLength, "chunk %d", i)
		assert.True(t, strings.HasSuffix(chunk, "\n\n"), "chunk %d ends mid-row", i)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))

	assert.Equal(t, []string{"💎", "💎", "💎"}, SplitMessage("💎💎💎", 3))
	assert.Equal(t, []string{"a💎", "b"}, SplitMessage("a💎b", 3))
}
