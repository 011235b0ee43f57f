package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/domain"
	"github.com/hadis11/study.bot/internal/report"
)

const joinedLayout = "2006-01-02"

// NewProfileHandler returns a handler for the /me command.
func NewProfileHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		user, err := d.Study.Profile(RequestContext(c), sender.ID)
		if err != nil {
			return err
		}

		tr := d.Translator(c)
		handle := report.Handle(tr, domain.Standing{UserID: user.ID, Username: user.Username})

		return c.Reply(tr.Tf("profile.text",
			user.Name,
			handle,
			user.JoinedAt.Format(joinedLayout),
			user.TotalHours,
		))
	}
}
