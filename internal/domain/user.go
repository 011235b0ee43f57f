package domain

import "time"

// User is a chat participant known to the bot.
type User struct {
	ID         int64
	Name       string
	Username   string
	JoinedAt   time.Time
	TotalHours int64
}

// HasUsername reports whether the user has a public handle.
func (u User) HasUsername() bool {
	return u.Username != ""
}
