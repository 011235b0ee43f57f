package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/state"
	"github.com/hadis11/study.bot/internal/study"
)

// NewAwardHandler asks the sender whom to award and how much.
func NewAwardHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		tr := d.Translator(c)

		if err := d.FSM.TransitionTo(RequestContext(c), sender.ID, state.StateAwaitingAwardDetails); err != nil {
			log.Error("failed to start award dialogue", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			return apperrors.NewStateError(err.Error())
		}

		return replyWithCancel(c, tr, tr.T("award.prompt"))
	}
}

// NewAwardDetailsHandler parses "@handle points" and credits the recipient.
// The dialogue ends here whatever the outcome.
func NewAwardDetailsHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		tr := d.Translator(c)
		ctx := RequestContext(c)

		if err := d.FSM.ClearState(ctx, sender.ID); err != nil {
			log.Warn("failed to clear award state", slog.Int64("user_id", sender.ID), slog.Any("error", err))
		}

		award, err := study.ParseAward(c.Text())
		if err != nil {
			return c.Reply(tr.T("award.invalid"))
		}

		err = d.Study.AwardPoints(ctx, Participant(sender), award)
		switch {
		case err == nil:
			return c.Reply(tr.Tf("award.success", award.Points, award.Username))
		case errors.Is(err, study.ErrRecipientNotFound):
			return c.Reply(tr.T("award.not_found"))
		default:
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr.WithUserMessage("award.failed")
			}
			return apperrors.NewDatabaseError(err).WithUserMessage("award.failed")
		}
	}
}
