package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hadis11/study.bot/internal/database"
	"github.com/hadis11/study.bot/internal/domain"
	"github.com/hadis11/study.bot/pkg/timeutil"
)

// StandingsRepository aggregates points and hours per user over a window.
// Every user is returned; users without activity report zeros.
type StandingsRepository interface {
	// DailyStandings orders rows by hours, highest first.
	DailyStandings(ctx context.Context, window timeutil.Window) ([]domain.Standing, error)
	// MonthlyStandings orders rows by points, highest first.
	MonthlyStandings(ctx context.Context, window timeutil.Window) ([]domain.Standing, error)
}

const standingsQuery = `
	SELECT
		u.user_id,
		u.name,
		u.username,
		COALESCE(p.period_points, 0) AS period_points,
		COALESCE(s.period_hours, 0) AS period_hours
	FROM users u
	LEFT JOIN (
		SELECT user_id, SUM(points) AS period_points
		FROM points_awards
		WHERE date >= ? AND date %[1]s ?
		GROUP BY user_id
	) p ON u.user_id = p.user_id
	LEFT JOIN (
		SELECT user_id, SUM(hours) AS period_hours
		FROM study_hours
		WHERE date >= ? AND date %[1]s ?
		GROUP BY user_id
	) s ON u.user_id = s.user_id
	ORDER BY %[2]s DESC, u.user_id
`

type standingsRepository struct {
	db  *database.DB
	log *slog.Logger
}

// NewStandingsRepository creates a SQL-backed standings repository.
func NewStandingsRepository(db *database.DB, log *slog.Logger) StandingsRepository {
	return &standingsRepository{
		db:  db,
		log: log,
	}
}

func (r *standingsRepository) DailyStandings(ctx context.Context, window timeutil.Window) ([]domain.Standing, error) {
	return r.standings(ctx, window, "period_hours")
}

func (r *standingsRepository) MonthlyStandings(ctx context.Context, window timeutil.Window) ([]domain.Standing, error) {
	return r.standings(ctx, window, "period_points")
}

func (r *standingsRepository) standings(ctx context.Context, window timeutil.Window, orderBy string) ([]domain.Standing, error) {
	upper := "<"
	if window.Inclusive {
		upper = "<="
	}
	query := r.db.Dialect.Rebind(fmt.Sprintf(standingsQuery, upper, orderBy))

	from, to := window.From.UTC(), window.To.UTC()
	rows, err := r.db.QueryContext(ctx, query, from, to, from, to)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to query standings",
				slog.String("order_by", orderBy),
				slog.String("class", string(Classify(err))),
				slog.Any("error", err),
			)
		}
		return nil, fmt.Errorf("select standings: %w", err)
	}
	defer rows.Close()

	var result []domain.Standing
	for rows.Next() {
		var (
			s        domain.Standing
			username sql.NullString
		)
		if err := rows.Scan(&s.UserID, &s.Name, &username, &s.Points, &s.Hours); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		s.Username = username.String
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}

	return result, nil
}
