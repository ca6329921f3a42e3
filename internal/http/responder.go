package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/application"
)

var (
	errBadRequestBody     = errors.New("request body is not valid JSON")
	errInvalidReservation = errors.New("reservation id is required")
	errInvalidDate        = errors.New("date must be formatted YYYY-MM-DD")
	errInvalidTime        = errors.New("times must be RFC 3339 timestamps")
	errMissingCredentials = errors.New("device label and key are required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors to a status and a stable
// error_code taken from application.ErrorKind.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	kind := application.ErrorKind(err)
	resp := errorResponse{ErrorCode: kind, Message: messageFor(kind)}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		resp.Errors = vErr.FieldErrors
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, resp)
		return
	}

	var locked *application.LockedError
	if errors.As(err, &locked) {
		resp.LockedUntil = locked.Until.UTC().Format(time.RFC3339)
		r.writeJSON(ctx, w, http.StatusLocked, resp)
		return
	}

	var conflict *application.ConflictError
	if errors.As(err, &conflict) {
		resp.ConflictWith = conflict.WithID
	}

	r.writeJSON(ctx, w, statusFor(err), resp)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrInvalidPIN):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrBlocked),
		errors.Is(err, application.ErrOverlap),
		errors.Is(err, application.ErrAlreadyExists),
		errors.Is(err, application.ErrNotConfirmed),
		errors.Is(err, application.ErrInvalidSeriesState):
		return http.StatusConflict
	case errors.Is(err, application.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, application.ErrInvalidInterval),
		errors.Is(err, application.ErrTooManyOccurrences),
		errors.Is(err, application.ErrEmptyRange),
		errors.Is(err, application.ErrRangeTooLarge),
		errors.Is(err, application.ErrNoOccurrences),
		errors.Is(err, application.ErrInvalidWeekday),
		errors.Is(err, application.ErrInvalidDuration),
		errors.Is(err, application.ErrMalformedPIN):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(kind string) string {
	switch kind {
	case "unauthorized":
		return "device credentials were rejected"
	case "invalid_pin":
		return "the PIN does not match"
	case "malformed_pin":
		return "the PIN must be exactly four digits"
	case "locked":
		return "too many wrong PINs; try again later"
	case "not_found":
		return "the requested resource does not exist"
	case "blocked":
		return "the room is closed for part of this time"
	case "overlap":
		return "the room is already booked for part of this time"
	case "already_exists":
		return "a resource with this name already exists"
	case "not_confirmed":
		return "the reservation is cancelled"
	case "invalid_series_state":
		return "the series has no matching confirmed reservations"
	case "invalid_interval":
		return "the requested time is outside the bookable slots"
	case "too_many_occurrences":
		return "the series has too many occurrences"
	case "empty_range", "range_too_large", "no_occurrences", "invalid_weekday", "invalid_duration":
		return "the repeat rule is not valid"
	case "validation":
		return "some fields are invalid"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode    string            `json:"error_code,omitempty"`
	Message      string            `json:"message"`
	Errors       map[string]string `json:"errors,omitempty"`
	LockedUntil  string            `json:"locked_until,omitempty"`
	ConflictWith string            `json:"conflict_with,omitempty"`
}
