package domain

import "time"

// StudyHourEntry is one self-reported study session.
type StudyHourEntry struct {
	ID         int64
	UserID     int64
	Hours      int64
	RecordedAt time.Time
}

// PointsAward is a peer award of points to a recipient.
type PointsAward struct {
	ID          int64
	Giver       string
	Points      int64
	RecipientID int64
	AwardedAt   time.Time
}

// Standing is a per-user aggregate of points and hours over a window.
type Standing struct {
	UserID   int64
	Name     string
	Username string
	Points   int64
	Hours    int64
}

// Overall is the combined score of hours and points.
func (s Standing) Overall() int64 {
	return s.Hours + s.Points
}
