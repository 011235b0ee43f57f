package handlers

import (
	"errors"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/report"
)

// NewDailyHandler replies with today's ranking.
func NewDailyHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		lines, err := d.Study.DailyReport(RequestContext(c))
		if err != nil {
			return reportError(err)
		}

		return replyChunked(c, report.FormatDaily(d.Translator(c), lines))
	}
}

// NewMonthlyHandler replies with the month-to-date ranking.
func NewMonthlyHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		lines, err := d.Study.MonthlyReport(RequestContext(c))
		if err != nil {
			return reportError(err)
		}

		return replyChunked(c, report.FormatMonthly(d.Translator(c), lines))
	}
}

func reportError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.WithUserMessage("errors.report")
	}
	return apperrors.NewDatabaseError(err).WithUserMessage("errors.report")
}
