package scheduler

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBlocked means the interval hits an administrative block.
	ErrBlocked = errors.New("scheduler: blocked")
	// ErrOverlap means the interval hits a confirmed reservation.
	ErrOverlap = errors.New("scheduler: overlapping reservation")
)

// ConflictType describes what the candidate collided with.
type ConflictType string

const (
	ConflictTypeBlock       ConflictType = "block"
	ConflictTypeReservation ConflictType = "reservation"
)

// ConflictError identifies the occupied row that rejected a candidate interval.
type ConflictError struct {
	Type      ConflictType
	WithID    string
	Candidate Interval
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduler: %s conflict with %s at %s", e.Type, e.WithID,
		e.Candidate.Start.Format("2006-01-02T15:04Z07:00"))
}

// Unwrap exposes ErrBlocked or ErrOverlap.
func (e *ConflictError) Unwrap() error {
	if e.Type == ConflictTypeBlock {
		return ErrBlocked
	}
	return ErrOverlap
}

// Occupied is a block or confirmed reservation occupying part of a room's time.
type Occupied struct {
	ID       string
	Interval Interval
}

// OccupancySet holds the blocks and confirmed reservations preloaded for one
// room over some window.
type OccupancySet struct {
	Blocks       []Occupied
	Reservations []Occupied
}

// FindConflict tests candidate against the set. Blocks are checked before
// reservations; reservations whose id is in exclude are skipped.
func (s OccupancySet) FindConflict(candidate Interval, exclude map[string]struct{}) error {
	for _, b := range s.Blocks {
		if candidate.Overlaps(b.Interval) {
			return &ConflictError{Type: ConflictTypeBlock, WithID: b.ID, Candidate: candidate}
		}
	}
	for _, r := range s.Reservations {
		if _, skip := exclude[r.ID]; skip {
			continue
		}
		if candidate.Overlaps(r.Interval) {
			return &ConflictError{Type: ConflictTypeReservation, WithID: r.ID, Candidate: candidate}
		}
	}
	return nil
}

// OccupancySource loads occupancy for a room. Blocks without a room apply to
// every room and must be included. Only confirmed reservations are returned.
// Implementations run inside the caller's transaction.
type OccupancySource interface {
	BlocksOverlapping(ctx context.Context, roomID string, window Interval) ([]Occupied, error)
	ReservationsOverlapping(ctx context.Context, roomID string, window Interval, exclude []string) ([]Occupied, error)
}

// Checker answers conflict questions against an OccupancySource.
type Checker struct {
	source OccupancySource
}

// NewChecker wires a Checker to source.
func NewChecker(source OccupancySource) *Checker {
	return &Checker{source: source}
}

// FindConflict checks one candidate interval in roomID.
func (c *Checker) FindConflict(ctx context.Context, roomID string, candidate Interval, exclude []string) error {
	return c.FindBatchConflict(ctx, roomID, []Interval{candidate}, exclude)
}

// FindBatchConflict loads occupancy over the envelope of candidates once and
// checks every candidate against it in memory. The first conflict found wins.
func (c *Checker) FindBatchConflict(ctx context.Context, roomID string, candidates []Interval, exclude []string) error {
	envelope, ok := Envelope(candidates)
	if !ok {
		return nil
	}

	set, err := c.load(ctx, roomID, envelope, exclude)
	if err != nil {
		return err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for _, candidate := range candidates {
		if err := set.FindConflict(candidate, skip); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) load(ctx context.Context, roomID string, window Interval, exclude []string) (OccupancySet, error) {
	blocks, err := c.source.BlocksOverlapping(ctx, roomID, window)
	if err != nil {
		return OccupancySet{}, fmt.Errorf("scheduler: load blocks: %w", err)
	}
	reservations, err := c.source.ReservationsOverlapping(ctx, roomID, window, exclude)
	if err != nil {
		return OccupancySet{}, fmt.Errorf("scheduler: load reservations: %w", err)
	}
	return OccupancySet{Blocks: blocks, Reservations: reservations}, nil
}
