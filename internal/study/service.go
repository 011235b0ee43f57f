// Package study records study hours and point awards and builds the ranked reports.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hadis11/study.bot/internal/domain"
	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/report"
	"github.com/hadis11/study.bot/internal/repository"
	"github.com/hadis11/study.bot/pkg/metrics"
	"github.com/hadis11/study.bot/pkg/timeutil"
)

// ErrRecipientNotFound is returned when an award names an unknown handle.
var ErrRecipientNotFound = errors.New("award recipient not found")

// Participant identifies the sender of an update.
type Participant struct {
	ID       int64
	Name     string
	Username string
}

// GiverLabel is the sender's handle, or the numeric id when there is none.
func (p Participant) GiverLabel() string {
	if p.Username != "" {
		return p.Username
	}
	return strconv.FormatInt(p.ID, 10)
}

// Service provides the study-tracking operations behind the bot commands.
type Service struct {
	users        repository.UserRepository
	activity     repository.ActivityRepository
	standings    repository.StandingsRepository
	calendar     *timeutil.Calendar
	log          *slog.Logger
	queryTimeout time.Duration
}

// Options configures a Service.
type Options struct {
	Users        repository.UserRepository
	Activity     repository.ActivityRepository
	Standings    repository.StandingsRepository
	Calendar     *timeutil.Calendar
	Logger       *slog.Logger
	QueryTimeout time.Duration
}

// NewService constructs a new Service instance.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:        opts.Users,
		activity:     opts.Activity,
		standings:    opts.Standings,
		calendar:     opts.Calendar,
		log:          log,
		queryTimeout: opts.QueryTimeout,
	}
}

// EnsureUser registers the participant if unknown. It never returns an error:
// failures are logged with their class and reported as false.
func (s *Service) EnsureUser(ctx context.Context, p Participant) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.users.EnsureUser(ctx, p.ID, p.Name, p.Username); err != nil {
		s.logFailure("ensure_user", p.ID, err)
		return false
	}

	return true
}

// RecordStudyHours appends hours for the user and bumps their running total.
func (s *Service) RecordStudyHours(ctx context.Context, userID, hours int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.activity.RecordStudyHours(ctx, userID, hours); err != nil {
		if errors.Is(err, repository.ErrTotalOverflow) {
			return fmt.Errorf("%w: %w", ErrInvalidHours, err)
		}
		s.logFailure("record_study_hours", userID, err)
		return apperrors.NewDatabaseError(err)
	}

	metrics.RecordStudyEntry()
	s.log.Info("study hours recorded", slog.Int64("user_id", userID), slog.Int64("hours", hours))

	return nil
}

// AwardPoints credits award.Points to the user whose handle is award.Username.
func (s *Service) AwardPoints(ctx context.Context, giver Participant, award Award) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	recipientID, err := s.users.LookupUserIDByHandle(ctx, award.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrRecipientNotFound
		}
		s.logFailure("lookup_user", giver.ID, err)
		return apperrors.NewDatabaseError(err)
	}

	if err := s.activity.RecordPointsAward(ctx, giver.GiverLabel(), award.Points, recipientID); err != nil {
		s.logFailure("record_points_award", giver.ID, err)
		return apperrors.NewDatabaseError(err)
	}

	metrics.RecordPointsAwarded(award.Points)
	s.log.Info("points awarded",
		slog.Int64("user_id", giver.ID),
		slog.Int64("recipient_id", recipientID),
		slog.Int64("points", award.Points),
	)

	return nil
}

// DailyReport ranks today's hours and attaches month-to-date scores.
func (s *Service) DailyReport(ctx context.Context) ([]report.DailyLine, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	today, err := s.standings.DailyStandings(ctx, s.calendar.Today())
	if err != nil {
		return nil, s.reportFailure("daily", err)
	}

	month, err := s.standings.MonthlyStandings(ctx, s.calendar.MonthToDate())
	if err != nil {
		return nil, s.reportFailure("daily", err)
	}

	metrics.RecordReport("daily", outcome(len(today)))
	return report.RankDaily(today, month), nil
}

// MonthlyReport ranks month-to-date standings by overall score.
func (s *Service) MonthlyReport(ctx context.Context) ([]report.MonthlyLine, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	month, err := s.standings.MonthlyStandings(ctx, s.calendar.MonthToDate())
	if err != nil {
		return nil, s.reportFailure("monthly", err)
	}

	metrics.RecordReport("monthly", outcome(len(month)))
	return report.RankMonthly(month), nil
}

// Profile returns the stored user record.
func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %d", userID)).WithUserMessage("profile.not_found")
		}
		s.logFailure("find_user", userID, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	return user, nil
}

func (s *Service) reportFailure(kind string, err error) error {
	metrics.RecordReport(kind, "error")
	s.log.Error("report query failed",
		slog.String("kind", kind),
		slog.String("class", string(repository.Classify(err))),
		slog.Any("error", err),
	)
	return apperrors.NewDatabaseError(err)
}

func outcome(rows int) string {
	if rows == 0 {
		return "empty"
	}
	return "ok"
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Service) logFailure(operation string, userID int64, err error) {
	class := repository.Classify(err)
	metrics.RecordStoreFailure(operation, string(class))

	s.log.Error("study service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.String("class", string(class)),
		slog.Any("error", err),
	)
}
