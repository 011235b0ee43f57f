package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/keyboard"
)

// NewStartHandler greets the user and shows the command menu.
func NewStartHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return c.Send(d.Translator(c).T("start.welcome"), keyboard.MainMenu())
	}
}

// NewHelpHandler lists the available commands.
func NewHelpHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return c.Send(d.Translator(c).T("help.text"))
	}
}

// NewUnknownCommandHandler answers commands nobody registered, in private chats only.
func NewUnknownCommandHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		if CommandName(c.Text()) == "" || c.Chat() == nil || c.Chat().Type != telebot.ChatPrivate {
			return nil
		}
		return c.Send(d.Translator(c).T("errors.unknown_command"))
	}
}
