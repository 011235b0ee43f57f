// Package repository implements persistence for users, activity and standings.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrTotalOverflow is returned when an entry would push a running total past the int64 range.
var ErrTotalOverflow = errors.New("running total out of range")

// FailureKind classifies storage failures for diagnostics.
type FailureKind string

const (
	FailureConnectivity FailureKind = "connectivity"
	FailureConstraint   FailureKind = "constraint"
	FailureTypeRange    FailureKind = "type_range"
	FailureUnclassified FailureKind = "unclassified"
)

// Classify maps a storage error onto a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnclassified
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return FailureConstraint
		case sqlite3.ErrMismatch, sqlite3.ErrRange, sqlite3.ErrTooBig:
			return FailureTypeRange
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr,
			sqlite3.ErrNotADB, sqlite3.ErrReadonly, sqlite3.ErrCorrupt:
			return FailureConnectivity
		}
		return FailureUnclassified
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23":
			return FailureConstraint
		case "22":
			return FailureTypeRange
		case "08", "53", "57":
			return FailureConnectivity
		}
		return FailureUnclassified
	}

	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return FailureConnectivity
	}

	return FailureUnclassified
}
