package application

import (
	"errors"
	"fmt"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/pinlock"
	"github.com/example/facility-reservations/internal/recurrence"
	"github.com/example/facility-reservations/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when a device credential is rejected.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique name or label is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrNotConfirmed is returned when updating a reservation that is cancelled.
	ErrNotConfirmed = errors.New("application: reservation is not confirmed")
	// ErrInvalidSeriesState is returned when a series has no confirmed members or
	// the anchor is not one of them.
	ErrInvalidSeriesState = errors.New("application: invalid series state")
)

// Engine errors, re-exported so callers depend on one package.
var (
	ErrInvalidInterval    = scheduler.ErrInvalidInterval
	ErrBlocked            = scheduler.ErrBlocked
	ErrOverlap            = scheduler.ErrOverlap
	ErrTooManyOccurrences = recurrence.ErrTooManyOccurrences
	ErrEmptyRange         = recurrence.ErrEmptyRange
	ErrRangeTooLarge      = recurrence.ErrRangeTooLarge
	ErrNoOccurrences      = recurrence.ErrNoOccurrences
	ErrInvalidWeekday     = recurrence.ErrInvalidWeekday
	ErrInvalidDuration    = recurrence.ErrInvalidDuration
	ErrInvalidPIN         = pinlock.ErrInvalidPIN
	ErrLocked             = pinlock.ErrLocked
	ErrMalformedPIN       = pinlock.ErrMalformedPIN
)

// LockedError carries the lockout expiry of a reservation.
type LockedError = pinlock.LockedError

// ConflictError names the block or reservation that rejected an interval.
type ConflictError = scheduler.ConflictError

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d field(s)", len(v.FieldErrors))
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// errOrNil returns v as an error only when it holds entries.
func (v *ValidationError) errOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// mapRepoError translates persistence sentinels into application errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}
