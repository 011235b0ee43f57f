package study

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidHours is returned when a study-hours reply is not an integer.
	ErrInvalidHours = errors.New("invalid study hours")
	// ErrInvalidAward is returned when an award reply is not "@handle points".
	ErrInvalidAward = errors.New("invalid award format")
)

// Entries outside these bounds are rejected so running totals and report sums
// stay far away from int64 overflow.
const (
	MaxHoursPerEntry = 1_000_000
	MaxAwardPoints   = 1_000_000
)

// Award is a parsed "@handle points" reply.
type Award struct {
	Username string
	Points   int64
}

// ParseHours parses a base-10 integer, optionally signed, surrounded by whitespace.
// The magnitude may not exceed MaxHoursPerEntry.
func ParseHours(text string) (int64, error) {
	hours, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || hours > MaxHoursPerEntry || hours < -MaxHoursPerEntry {
		return 0, ErrInvalidHours
	}
	return hours, nil
}

// ParseAward parses exactly two whitespace separated tokens: an @-prefixed handle
// and a run of ASCII digits. Surrounding @ characters are stripped from the handle.
func ParseAward(text string) (Award, error) {
	parts := strings.Fields(text)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "@") || !isDigits(parts[1]) {
		return Award{}, ErrInvalidAward
	}

	points, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || points > MaxAwardPoints {
		return Award{}, ErrInvalidAward
	}

	return Award{
		Username: strings.Trim(parts[0], "@"),
		Points:   points,
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
