package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context

	sender    *telebot.User
	chat      *telebot.Chat
	text      string
	callback  *telebot.Callback
	store     map[string]interface{}
	sent      []string
	opts      [][]interface{}
	responded int
}

func newFakeContext(userID int64, username, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID, FirstName: "Alice", Username: username, LanguageCode: "en"},
		chat:   &telebot.Chat{ID: userID, Type: telebot.ChatPrivate},
		text:   text,
		store:  make(map[string]interface{}),
	}
}

func (f *fakeContext) Sender() *telebot.User       { return f.sender }
func (f *fakeContext) Chat() *telebot.Chat         { return f.chat }
func (f *fakeContext) Text() string                { return f.text }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }
func (f *fakeContext) Get(key string) interface{}  { return f.store[key] }

func (f *fakeContext) Set(key string, val interface{}) {
	f.store[key] = val
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, what.(string))
	f.opts = append(f.opts, opts)
	return nil
}

func (f *fakeContext) Reply(what interface{}, opts ...interface{}) error {
	return f.Send(what, opts...)
}

func (f *fakeContext) Respond(...*telebot.CallbackResponse) error {
	f.responded++
	return nil
}

func (f *fakeContext) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}
