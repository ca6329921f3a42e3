package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/facility-reservations/internal/policy"
	"github.com/example/facility-reservations/internal/scheduler"
)

var (
	// ErrInvalidWeekday indicates a weekday outside 0 (Sunday) through 6 (Saturday).
	ErrInvalidWeekday = errors.New("recurrence: invalid weekday")
	// ErrInvalidDuration indicates the seed duration is not positive.
	ErrInvalidDuration = errors.New("recurrence: duration must be positive")
	// ErrEmptyRange indicates the until date is before the seed date.
	ErrEmptyRange = errors.New("recurrence: until date is before the first date")
	// ErrRangeTooLarge indicates the range spans more days than the policy allows.
	ErrRangeTooLarge = errors.New("recurrence: range too large")
	// ErrTooManyOccurrences indicates expansion passed the occurrence cap.
	ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")
	// ErrNoOccurrences indicates no date in the range matched the weekday set.
	ErrNoOccurrences = errors.New("recurrence: no occurrences")
)

// Rule describes a weekly pattern seeded by the first instance.
type Rule struct {
	// Start is the seed start; its facility-local time of day is reused on every
	// matching date and its location is used for the output.
	Start    time.Time
	Duration time.Duration
	// Weekdays uses time.Weekday numbering, Sunday = 0.
	Weekdays []time.Weekday
	// Until is the last local date considered, inclusive.
	Until policy.Date
}

// Engine expands recurrence rules under the caps of a policy.
type Engine struct {
	policy policy.Policy
}

// NewEngine constructs an Engine bound to p.
func NewEngine(p policy.Policy) *Engine {
	return &Engine{policy: p}
}

// Expand walks local dates from the seed date through rule.Until and emits one
// interval per date whose weekday is selected. Output is ascending and carries
// no hour or alignment checks; validate each interval separately.
//
// The occurrence cap is checked while walking, so an oversized rule fails as soon
// as the cap is passed rather than after building the whole list.
func (e *Engine) Expand(rule Rule) ([]scheduler.Interval, error) {
	weekdays, err := normalizeWeekdays(rule.Weekdays)
	if err != nil {
		return nil, err
	}
	if rule.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	loc := e.policy.Location
	seedLocal := rule.Start.In(loc)
	first := policy.DateOf(seedLocal)
	if rule.Until.Before(first) {
		return nil, ErrEmptyRange
	}
	if span := first.DaysUntil(rule.Until); span > e.policy.MaxSpanDays {
		return nil, fmt.Errorf("%w: %d days exceeds %d", ErrRangeTooLarge, span, e.policy.MaxSpanDays)
	}

	outLoc := rule.Start.Location()
	occurrences := make([]scheduler.Interval, 0)
	for day := first; !day.After(rule.Until); day = day.AddDays(1) {
		if _, ok := weekdays[day.Weekday()]; !ok {
			continue
		}

		start := combineDateTime(day, seedLocal, loc)
		occurrences = append(occurrences, scheduler.Interval{
			Start: start.In(outLoc),
			End:   start.Add(rule.Duration).In(outLoc),
		})
		if len(occurrences) > e.policy.MaxOccurrences {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyOccurrences, e.policy.MaxOccurrences)
		}
	}

	if len(occurrences) == 0 {
		return nil, ErrNoOccurrences
	}
	return occurrences, nil
}

// SortedWeekdays returns the distinct weekdays in ascending order.
func SortedWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalizeWeekdays(days []time.Weekday) (map[time.Weekday]struct{}, error) {
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWeekday, int(d))
		}
		set[d] = struct{}{}
	}
	return set, nil
}

func combineDateTime(day policy.Date, template time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year, day.Month, day.Day,
		template.Hour(), template.Minute(), template.Second(), template.Nanosecond(), loc)
}
