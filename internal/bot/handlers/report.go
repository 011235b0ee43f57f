package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/state"
	"github.com/hadis11/study.bot/internal/study"
)

// NewReportHandler asks the sender how many hours they studied.
func NewReportHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		tr := d.Translator(c)
		ctx := RequestContext(c)

		ok, known := registration(c)
		if !known {
			ok = d.Study.EnsureUser(ctx, Participant(sender))
		}
		if !ok {
			return c.Reply(tr.T("errors.registration"))
		}

		if err := d.FSM.TransitionTo(ctx, sender.ID, state.StateAwaitingStudyHours); err != nil {
			log.Error("failed to start study hours dialogue", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			return apperrors.NewStateError(err.Error())
		}

		return replyWithCancel(c, tr, tr.T("report.prompt"))
	}
}

// NewStudyHoursHandler records the hours sent in reply to /report.
// The dialogue ends here whatever the outcome.
func NewStudyHoursHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		tr := d.Translator(c)
		ctx := RequestContext(c)

		if err := d.FSM.ClearState(ctx, sender.ID); err != nil {
			log.Warn("failed to clear study hours state", slog.Int64("user_id", sender.ID), slog.Any("error", err))
		}

		hours, err := study.ParseHours(c.Text())
		if err != nil {
			return c.Reply(tr.T("report.invalid"))
		}

		if err := d.Study.RecordStudyHours(ctx, sender.ID, hours); err != nil {
			if errors.Is(err, study.ErrInvalidHours) {
				return c.Reply(tr.T("report.invalid"))
			}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr.WithUserMessage("report.failed")
			}
			return err
		}

		return c.Reply(tr.T("report.saved"))
	}
}
