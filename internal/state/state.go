package state

import "time"

// State represents a conversation state for a single user.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"
	// StateAwaitingStudyHours indicates that the next message is read as a number of study hours.
	StateAwaitingStudyHours State = "awaiting_study_hours"
	// StateAwaitingAwardDetails indicates that the next message is read as "@handle points".
	StateAwaitingAwardDetails State = "awaiting_award_details"
)

// UserState captures the current conversation state for a Telegram user.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Expired reports whether the state is older than ttl at now.
func (s *UserState) Expired(now time.Time, ttl time.Duration) bool {
	if s == nil || ttl <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}
