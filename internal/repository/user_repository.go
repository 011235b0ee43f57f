package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hadis11/study.bot/internal/database"
	"github.com/hadis11/study.bot/internal/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// EnsureUser inserts the user if absent. Existing rows are left untouched.
	EnsureUser(ctx context.Context, id int64, name, username string) error
	// LookupUserIDByHandle returns the first user whose handle equals username.
	LookupUserIDByHandle(ctx context.Context, username string) (int64, error)
}

type userRepository struct {
	db  *database.DB
	log *slog.Logger
	now func() time.Time
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *database.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
		now: time.Now,
	}
}

// FindByID retrieves a user by their Telegram identifier.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := r.db.Dialect.Rebind(`
		SELECT user_id, name, username, join_date, total_hours
		FROM users
		WHERE user_id = ?
	`)

	var (
		user     domain.User
		username sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&username,
		&user.JoinedAt,
		&user.TotalHours,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch user", slog.Int64("user_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select user by id: %w", err)
	}

	user.Username = username.String
	return &user, nil
}

func (r *userRepository) EnsureUser(ctx context.Context, id int64, name, username string) error {
	query := r.db.Dialect.Rebind(`
		INSERT INTO users (user_id, name, username, join_date, total_hours)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT (user_id) DO NOTHING
	`)

	if _, err := r.db.ExecContext(ctx, query, id, name, nullIfEmpty(username), r.now().UTC()); err != nil {
		if r.log != nil {
			r.log.Error("failed to ensure user",
				slog.Int64("user_id", id),
				slog.String("class", string(Classify(err))),
				slog.Any("error", err),
			)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *userRepository) LookupUserIDByHandle(ctx context.Context, username string) (int64, error) {
	query := r.db.Dialect.Rebind(`SELECT user_id FROM users WHERE username = ? ORDER BY user_id LIMIT 1`)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("select user by handle: %w", err)
	}

	return id, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
