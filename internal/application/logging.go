package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/facility-reservations/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logOutcome logs err at warn level when the caller caused it and at error
// level otherwise. A nil err logs msg at info level with attrs.
func logOutcome(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, msg+" succeeded", attrs...)
		return
	}
	kind := ErrorKind(err)
	attrs = append(attrs, "error", err, "error_kind", kind)
	if kind == "unexpected" {
		logger.ErrorContext(ctx, msg+" failed", attrs...)
		return
	}
	logger.WarnContext(ctx, msg+" rejected", attrs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrOverlap):
		return "overlap"
	case errors.Is(err, ErrTooManyOccurrences):
		return "too_many_occurrences"
	case errors.Is(err, ErrEmptyRange):
		return "empty_range"
	case errors.Is(err, ErrRangeTooLarge):
		return "range_too_large"
	case errors.Is(err, ErrNoOccurrences):
		return "no_occurrences"
	case errors.Is(err, ErrInvalidWeekday):
		return "invalid_weekday"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidPIN):
		return "invalid_pin"
	case errors.Is(err, ErrMalformedPIN):
		return "malformed_pin"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.Is(err, ErrNotConfirmed):
		return "not_confirmed"
	case errors.Is(err, ErrInvalidSeriesState):
		return "invalid_series_state"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
