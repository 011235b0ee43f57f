package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hadis11/study.bot/internal/database"
)

// ActivityRepository appends study hours and point awards.
type ActivityRepository interface {
	// RecordStudyHours appends an entry and bumps the owner's running total atomically.
	RecordStudyHours(ctx context.Context, userID, hours int64) error
	RecordPointsAward(ctx context.Context, giver string, points, recipientID int64) error
}

type activityRepository struct {
	db  *database.DB
	log *slog.Logger
	now func() time.Time
}

// NewActivityRepository creates a SQL-backed activity repository.
func NewActivityRepository(db *database.DB, log *slog.Logger) ActivityRepository {
	return &activityRepository{
		db:  db,
		log: log,
		now: time.Now,
	}
}

func (r *activityRepository) RecordStudyHours(ctx context.Context, userID, hours int64) error {
	lookup := `SELECT total_hours FROM users WHERE user_id = ?`
	if r.db.Dialect == database.Postgres {
		lookup += ` FOR UPDATE`
	}
	lookup = r.db.Dialect.Rebind(lookup)
	insert := r.db.Dialect.Rebind(`INSERT INTO study_hours (date, hours, user_id) VALUES (?, ?, ?)`)
	bump := r.db.Dialect.Rebind(`UPDATE users SET total_hours = ? WHERE user_id = ?`)

	err := r.db.Update(ctx, func(tx *sql.Tx) error {
		var total int64
		if err := tx.QueryRowContext(ctx, lookup, userID).Scan(&total); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("read total hours: %w", err)
		}

		next, ok := addInt64(total, hours)
		if !ok {
			return ErrTotalOverflow
		}

		if _, err := tx.ExecContext(ctx, bump, next, userID); err != nil {
			return fmt.Errorf("update total hours: %w", err)
		}

		if _, err := tx.ExecContext(ctx, insert, r.now().UTC(), hours, userID); err != nil {
			return fmt.Errorf("insert study hours: %w", err)
		}

		return nil
	})
	if err != nil && r.log != nil {
		r.log.Error("failed to record study hours",
			slog.Int64("user_id", userID),
			slog.Int64("hours", hours),
			slog.String("class", string(Classify(err))),
			slog.Any("error", err),
		)
	}

	return err
}

func (r *activityRepository) RecordPointsAward(ctx context.Context, giver string, points, recipientID int64) error {
	query := r.db.Dialect.Rebind(`INSERT INTO points_awards (giver, points, date, user_id) VALUES (?, ?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, giver, points, r.now().UTC(), recipientID); err != nil {
		if r.log != nil {
			r.log.Error("failed to record points award",
				slog.Int64("user_id", recipientID),
				slog.String("giver", giver),
				slog.String("class", string(Classify(err))),
				slog.Any("error", err),
			)
		}
		return fmt.Errorf("insert points award: %w", err)
	}

	return nil
}

// addInt64 returns a+b and false when the sum does not fit in an int64.
func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
