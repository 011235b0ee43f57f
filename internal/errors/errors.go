// Package errors defines application errors with user-facing message keys.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries a stable code, a log message and the i18n key shown to the user.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	UserArgs    []any
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: "errors.validation",
		UserArgs:    []any{msg},
		Severity:    SeverityLow,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "errors.generic",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "errors.state",
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: "errors.rate_limited",
		UserArgs:    []any{retryAfter},
		Severity:    SeverityLow,
	}
}

func NewNotFoundError(what string) *AppError {
	return &AppError{
		Code:        "E600",
		Message:     fmt.Sprintf("Not found: %s", what),
		UserMessage: "errors.not_found",
		Severity:    SeverityLow,
	}
}

// WithUserMessage returns a copy of e that shows a different i18n key.
func (e *AppError) WithUserMessage(key string, args ...any) *AppError {
	clone := *e
	clone.UserMessage = key
	clone.UserArgs = args
	return &clone
}
