// Package scheduler implements the interval rules of the reservation engine:
// validation against the facility policy, conflict detection against blocks and
// confirmed reservations, and series shift planning.
package scheduler

import "time"

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the half-open intervals share any instant.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Shift moves both ends by delta.
func (iv Interval) Shift(delta time.Duration) Interval {
	return Interval{Start: iv.Start.Add(delta), End: iv.End.Add(delta)}
}

// Envelope returns the smallest interval covering every input. ok is false for
// an empty slice.
func Envelope(intervals []Interval) (env Interval, ok bool) {
	for i, iv := range intervals {
		if i == 0 || iv.Start.Before(env.Start) {
			env.Start = iv.Start
		}
		if i == 0 || iv.End.After(env.End) {
			env.End = iv.End
		}
	}
	return env, len(intervals) > 0
}
