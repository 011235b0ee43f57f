package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/keyboard"
)

// NewCancelHandler drops any pending dialogue and shows the menu again.
// It serves both /cancel and the inline cancel button.
func NewCancelHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}

		if err := d.FSM.ClearState(RequestContext(c), sender.ID); err != nil {
			log.Error("failed to clear user state", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			return err
		}

		if c.Callback() != nil {
			if err := c.Respond(); err != nil {
				log.Warn("failed to answer callback", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			}
		}

		return c.Send(d.Translator(c).T("cancel.done"), keyboard.MainMenu())
	}
}
