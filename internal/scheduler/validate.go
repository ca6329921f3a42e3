package scheduler

import (
	"errors"
	"fmt"

	"github.com/example/facility-reservations/internal/policy"
)

// ErrInvalidInterval is matched by every *InvalidIntervalError.
var ErrInvalidInterval = errors.New("scheduler: invalid interval")

// Reason names the first rule an interval failed.
type Reason string

const (
	ReasonOrdering        Reason = "ordering"
	ReasonMinimumDuration Reason = "minimum_duration"
	ReasonAlignment       Reason = "alignment"
	ReasonCrossMidnight   Reason = "cross_midnight"
	ReasonOutsideHours    Reason = "outside_hours"
)

// InvalidIntervalError reports why an interval was rejected.
type InvalidIntervalError struct {
	Reason   Reason
	Interval Interval
}

func (e *InvalidIntervalError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduler: invalid interval %s - %s: %s",
		e.Interval.Start.Format("2006-01-02T15:04Z07:00"),
		e.Interval.End.Format("2006-01-02T15:04Z07:00"),
		e.Reason)
}

// Is lets errors.Is match ErrInvalidInterval.
func (e *InvalidIntervalError) Is(target error) bool {
	return target == ErrInvalidInterval
}

// ValidateLength checks only the first two rules: end after start and at least
// one slot long. A series seed is checked with it before expansion.
func ValidateLength(p policy.Policy, iv Interval) error {
	if !iv.End.After(iv.Start) {
		return &InvalidIntervalError{Reason: ReasonOrdering, Interval: iv}
	}
	if iv.Duration() < p.Slot {
		return &InvalidIntervalError{Reason: ReasonMinimumDuration, Interval: iv}
	}
	return nil
}

// Validate applies the interval rules in order and stops at the first failure:
// end after start, at least one slot long, both ends on slot boundaries, same
// local day, and inside the operating window of the start's local date.
func Validate(p policy.Policy, iv Interval) error {
	if err := ValidateLength(p, iv); err != nil {
		return err
	}

	fail := func(reason Reason) error {
		return &InvalidIntervalError{Reason: reason, Interval: iv}
	}
	if !p.IsSlotAligned(iv.Start) || !p.IsSlotAligned(iv.End) {
		return fail(ReasonAlignment)
	}
	if !p.SameLocalDay(iv.Start, iv.End) {
		return fail(ReasonCrossMidnight)
	}

	open, closeAt := p.OperatingWindow(p.LocalDate(iv.Start))
	if iv.Start.Before(open) || iv.End.After(closeAt) {
		return fail(ReasonOutsideHours)
	}
	return nil
}
