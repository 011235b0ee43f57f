package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/domain"
	"github.com/hadis11/study.bot/internal/i18n"
	"github.com/hadis11/study.bot/internal/report"
	"github.com/hadis11/study.bot/internal/state"
	"github.com/hadis11/study.bot/internal/study"
)

// StudyService is the subset of study.Service used by the handlers.
type StudyService interface {
	EnsureUser(ctx context.Context, p study.Participant) bool
	RecordStudyHours(ctx context.Context, userID, hours int64) error
	AwardPoints(ctx context.Context, giver study.Participant, award study.Award) error
	DailyReport(ctx context.Context) ([]report.DailyLine, error)
	MonthlyReport(ctx context.Context) ([]report.MonthlyLine, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

// Deps bundles what the handlers need.
type Deps struct {
	Study StudyService
	FSM   state.StateMachine
	I18n  *i18n.Manager
	Log   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// Translator picks the catalog matching the sender's Telegram language.
func (d Deps) Translator(c telebot.Context) i18n.Translator {
	lang := ""
	if c != nil && c.Sender() != nil {
		lang = c.Sender().LanguageCode
	}
	return d.I18n.Translator(lang)
}

// Participant converts the update sender.
func Participant(u *telebot.User) study.Participant {
	return study.Participant{
		ID:       u.ID,
		Name:     u.FirstName,
		Username: u.Username,
	}
}
