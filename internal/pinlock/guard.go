// Package pinlock guards cancellation with a 4-digit PIN and a temporary
// lockout after repeated failures.
package pinlock

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPIN is returned when the supplied PIN does not match.
	ErrInvalidPIN = errors.New("pinlock: invalid pin")
	// ErrLocked is returned while a lockout is active. The attempt is not counted.
	ErrLocked = errors.New("pinlock: locked")
	// ErrMalformedPIN is returned when a new PIN is not exactly four digits.
	ErrMalformedPIN = errors.New("pinlock: pin must be exactly 4 digits")
)

// State is the persisted lockout state of one reservation.
type State struct {
	FailCount   int
	LockedUntil *time.Time
}

// Locked reports whether the lockout is active at now.
func (s State) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// LockedError carries the lockout expiry.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("pinlock: locked until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// Verifier checks a raw PIN against a stored hash. A mismatch must be reported
// as a non-nil error.
type Verifier interface {
	Verify(encoded, raw string) error
}

// Guard runs the lockout state machine.
type Guard struct {
	verifier  Verifier
	threshold int
	duration  time.Duration
}

// NewGuard locks for duration after threshold consecutive failures.
func NewGuard(verifier Verifier, threshold int, duration time.Duration) *Guard {
	return &Guard{verifier: verifier, threshold: threshold, duration: duration}
}

// Check verifies rawPIN at now and returns the state to persist.
//
// While locked the state is returned unchanged with a *LockedError. A wrong PIN
// increments the fail count; reaching the threshold sets the lockout expiry and
// resets the count, so the next window starts fresh. A correct PIN returns the
// zero State.
func (g *Guard) Check(state State, encoded, rawPIN string, now time.Time) (State, error) {
	if state.Locked(now) {
		return state, &LockedError{Until: *state.LockedUntil}
	}

	if err := g.verifier.Verify(encoded, rawPIN); err != nil {
		next := State{FailCount: state.FailCount + 1}
		if next.FailCount >= g.threshold {
			until := now.Add(g.duration)
			next = State{FailCount: 0, LockedUntil: &until}
		}
		return next, ErrInvalidPIN
	}
	return State{}, nil
}

// ValidateFormat reports whether raw is exactly four ASCII digits.
func ValidateFormat(raw string) error {
	if len(raw) != 4 {
		return ErrMalformedPIN
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return ErrMalformedPIN
		}
	}
	return nil
}
