package handlers

import (
	"strings"
	"unicode/utf16"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/keyboard"
	"github.com/hadis11/study.bot/internal/i18n"
)

// MaxMessageLength is Telegram's limit for a text message, in UTF-16 code units.
const MaxMessageLength = 4096

func replyWithCancel(c telebot.Context, tr i18n.Translator, text string) error {
	markup, err := keyboard.CancelDialog(tr)
	if err != nil {
		return c.Reply(text)
	}
	return c.Reply(text, markup)
}

// replyChunked replies with text, split into several messages when it is too long.
func replyChunked(c telebot.Context, text string) error {
	for _, chunk := range SplitMessage(text, MaxMessageLength) {
		if err := c.Reply(chunk); err != nil {
			return err
		}
	}
	return nil
}

// SplitMessage cuts text into chunks of at most limit UTF-16 code units,
// preferring to cut between paragraphs. A rune is never split.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, para := range strings.SplitAfter(text, "\n\n") {
		n := utf16Len(para)
		if size+n > limit {
			flush()
		}
		if n <= limit {
			current.WriteString(para)
			size += n
			continue
		}

		for _, r := range para {
			w := runeUnits(r)
			if size+w > limit {
				flush()
			}
			current.WriteRune(r)
			size += w
		}
	}
	flush()

	return chunks
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// runeUnits counts invalid runes as one unit, matching their U+FFFD replacement.
func runeUnits(r rune) int {
	if w := utf16.RuneLen(r); w > 0 {
		return w
	}
	return 1
}
