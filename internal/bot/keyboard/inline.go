package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// InlineButton is a button definition rendered by InlineKeyboardBuilder.
type InlineButton struct {
	Text    string
	Action  string
	Payload string
}

// InlineKeyboardBuilder accumulates rows of buttons before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{}
}

// AddRow appends a row of buttons. Empty rows are ignored.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Build renders the markup, failing when any callback data is too long.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	inlineKeyboard := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			data, err := EncodeCallback(btn.Action, btn.Payload)
			if err != nil {
				return nil, err
			}
			inlineKeyboard[i][j] = telebot.InlineButton{Text: btn.Text, Data: data}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}, nil
}
