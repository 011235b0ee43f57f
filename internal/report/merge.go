// Package report ranks standings and renders the daily and monthly reports.
package report

import "github.com/hadis11/study.bot/internal/domain"

// IndexBy indexes rows by key. When several rows share a key the last one wins.
func IndexBy[K comparable](rows []domain.Standing, key func(domain.Standing) K) map[K]domain.Standing {
	index := make(map[K]domain.Standing, len(rows))
	for _, row := range rows {
		index[key(row)] = row
	}
	return index
}

// ByUserID keys standings by user id.
func ByUserID(s domain.Standing) int64 { return s.UserID }

// ByName keys standings by display name. Users sharing a name collide.
func ByName(s domain.Standing) string { return s.Name }
