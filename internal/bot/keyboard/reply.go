// Package keyboard builds the reply and inline keyboards shown by the bot.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/i18n"
)

const (
	// ActionDialog prefixes callbacks that control a pending dialogue.
	ActionDialog = "dialog"
	// PayloadCancel aborts the pending dialogue.
	PayloadCancel = "cancel"
)

// MainMenu builds the persistent command keyboard.
func MainMenu() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{ResizeKeyboard: true}

	markup.Reply(
		markup.Row(markup.Text("/help")),
		markup.Row(markup.Text("/report")),
		markup.Row(markup.Text("/daily"), markup.Text("/month")),
		markup.Row(markup.Text("/award")),
	)

	return markup
}

// CancelDialog builds an inline keyboard with a single cancel button.
func CancelDialog(t i18n.Translator) (*telebot.ReplyMarkup, error) {
	text := "Cancel"
	if t != nil {
		text = t.T("buttons.cancel")
	}

	return NewInlineKeyboard().
		AddRow(InlineButton{Text: text, Action: ActionDialog, Payload: PayloadCancel}).
		Build()
}
