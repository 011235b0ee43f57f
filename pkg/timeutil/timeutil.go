// Package timeutil computes report windows in a configured timezone.
package timeutil

import (
	"fmt"
	"time"
	_ "time/tzdata" // scratch images ship without zoneinfo
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Window is a time range used to aggregate study hours and points.
// From is inclusive. To is exclusive unless Inclusive is set.
type Window struct {
	From      time.Time
	To        time.Time
	Inclusive bool
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	if w.Inclusive {
		return !t.After(w.To)
	}
	return t.Before(w.To)
}

// Calendar derives day and month boundaries for a timezone.
type Calendar struct {
	loc   *time.Location
	clock Clock
}

// NewCalendar builds a Calendar for the named IANA timezone. An empty name means UTC.
func NewCalendar(timezone string, clock Clock) (*Calendar, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}

	if clock == nil {
		clock = time.Now
	}

	return &Calendar{loc: loc, clock: clock}, nil
}

// Location returns the calendar timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the calendar timezone.
func (c *Calendar) Now() time.Time {
	return c.clock().In(c.loc)
}

// Today covers the current calendar date: [00:00 today, 00:00 tomorrow).
func (c *Calendar) Today() Window {
	start := StartOfDay(c.Now())
	return Window{From: start, To: start.AddDate(0, 0, 1)}
}

// MonthToDate covers the first instant of the current month through now, inclusive.
func (c *Calendar) MonthToDate() Window {
	now := c.Now()
	return Window{From: StartOfMonth(now), To: now, Inclusive: true}
}

// StartOfDay returns midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns the first instant of t's month in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
