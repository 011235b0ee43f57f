package report

import (
	"sort"
	"strings"

	"github.com/hadis11/study.bot/internal/domain"
	"github.com/hadis11/study.bot/internal/i18n"
)

// DailyLine is one ranked row of the daily report.
type DailyLine struct {
	Rank         int
	Standing     domain.Standing
	HoursToday   int64
	MonthHours   int64
	MonthPoints  int64
	OverallMonth int64
}

// MonthlyLine is one ranked row of the monthly report.
type MonthlyLine struct {
	Rank     int
	Standing domain.Standing
	Overall  int64
}

// RankDaily orders today's standings by hours and attaches month-to-date figures
// matched by user id. Users absent from month report zeros.
func RankDaily(today, month []domain.Standing) []DailyLine {
	rows := append([]domain.Standing(nil), today...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Hours > rows[j].Hours
	})

	monthly := IndexBy(month, ByUserID)

	lines := make([]DailyLine, 0, len(rows))
	for i, row := range rows {
		m := monthly[row.UserID]
		lines = append(lines, DailyLine{
			Rank:         i + 1,
			Standing:     row,
			HoursToday:   row.Hours,
			MonthHours:   m.Hours,
			MonthPoints:  m.Points,
			OverallMonth: m.Overall(),
		})
	}

	return lines
}

// RankMonthly orders month-to-date standings by overall score.
func RankMonthly(month []domain.Standing) []MonthlyLine {
	rows := append([]domain.Standing(nil), month...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Overall() > rows[j].Overall()
	})

	lines := make([]MonthlyLine, 0, len(rows))
	for i, row := range rows {
		lines = append(lines, MonthlyLine{
			Rank:     i + 1,
			Standing: row,
			Overall:  row.Overall(),
		})
	}

	return lines
}

// FormatDaily renders daily lines, or the empty notice when there are none.
func FormatDaily(tr i18n.Translator, lines []DailyLine) string {
	if len(lines) == 0 {
		return tr.T("daily.empty")
	}

	var b strings.Builder
	b.WriteString(tr.T("daily.header"))
	for _, l := range lines {
		b.WriteString(tr.Tf("daily.row",
			l.Rank,
			l.Standing.Name,
			Handle(tr, l.Standing),
			l.HoursToday,
			l.OverallMonth,
			l.MonthHours,
			l.MonthPoints,
		))
	}

	return b.String()
}

// FormatMonthly renders monthly lines, or the empty notice when there are none.
func FormatMonthly(tr i18n.Translator, lines []MonthlyLine) string {
	if len(lines) == 0 {
		return tr.T("monthly.empty")
	}

	var b strings.Builder
	b.WriteString(tr.T("monthly.header"))
	for _, l := range lines {
		b.WriteString(tr.Tf("monthly.row",
			l.Rank,
			l.Standing.Name,
			Handle(tr, l.Standing),
			l.Standing.Hours,
			l.Standing.Points,
			l.Overall,
		))
	}

	return b.String()
}

// Handle renders "(@name)" for users with a handle and "(id N)" otherwise.
func Handle(tr i18n.Translator, s domain.Standing) string {
	if s.Username != "" {
		return tr.Tf("handle.username", s.Username)
	}
	return tr.Tf("handle.id", s.UserID)
}
