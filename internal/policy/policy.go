// Package policy holds the facility clock rules shared by every reservation
// component: the local time zone, operating hours, slot size, recurrence caps
// and the cancel PIN lockout parameters.
package policy

import (
	"errors"
	"fmt"
	"time"

	// Embedded zone database so the facility zone resolves on minimal images.
	_ "time/tzdata"
)

// DefaultTimeZone is the facility zone used when no other zone is configured.
const DefaultTimeZone = "America/Chicago"

// ErrInvalidPolicy indicates a policy value that cannot be used.
var ErrInvalidPolicy = errors.New("policy: invalid configuration")

// Policy carries the facility constants. A zero Policy is not usable; start from
// Default or New.
type Policy struct {
	Location *time.Location
	// Open and Close are offsets from local midnight.
	Open  time.Duration
	Close time.Duration
	Slot  time.Duration

	MaxOccurrences int
	MaxSpanDays    int

	LockoutThreshold int
	LockoutDuration  time.Duration
}

// Default returns the stock facility policy: America/Chicago, 09:00-20:00,
// 30 minute slots, 60 occurrences over at most 730 days, and a 5 minute lockout
// after 3 failed PIN attempts.
func Default() Policy {
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		// tzdata is embedded, so this only happens if the zone name is wrong.
		panic(fmt.Sprintf("policy: load %s: %v", DefaultTimeZone, err))
	}
	return Policy{
		Location:         loc,
		Open:             9 * time.Hour,
		Close:            20 * time.Hour,
		Slot:             30 * time.Minute,
		MaxOccurrences:   60,
		MaxSpanDays:      730,
		LockoutThreshold: 3,
		LockoutDuration:  5 * time.Minute,
	}
}

// Validate reports whether the policy values are consistent.
func (p Policy) Validate() error {
	switch {
	case p.Location == nil:
		return fmt.Errorf("%w: location is required", ErrInvalidPolicy)
	case p.Slot <= 0 || p.Slot%time.Minute != 0 || (24*time.Hour)%p.Slot != 0:
		return fmt.Errorf("%w: slot %s must be whole minutes dividing a day", ErrInvalidPolicy, p.Slot)
	case p.Open < 0 || p.Close > 24*time.Hour || p.Open >= p.Close:
		return fmt.Errorf("%w: operating hours %s-%s", ErrInvalidPolicy, p.Open, p.Close)
	case p.Open%p.Slot != 0 || p.Close%p.Slot != 0:
		return fmt.Errorf("%w: operating hours must fall on slot boundaries", ErrInvalidPolicy)
	case p.MaxOccurrences <= 0:
		return fmt.Errorf("%w: max occurrences must be positive", ErrInvalidPolicy)
	case p.MaxSpanDays <= 0:
		return fmt.Errorf("%w: max span days must be positive", ErrInvalidPolicy)
	case p.LockoutThreshold <= 0:
		return fmt.Errorf("%w: lockout threshold must be positive", ErrInvalidPolicy)
	case p.LockoutDuration <= 0:
		return fmt.Errorf("%w: lockout duration must be positive", ErrInvalidPolicy)
	}
	return nil
}

// In converts t to the facility zone.
func (p Policy) In(t time.Time) time.Time {
	return t.In(p.Location)
}

// IsSlotAligned reports whether t sits exactly on a slot boundary of the local
// wall clock, with zero seconds and nanoseconds.
func (p Policy) IsSlotAligned(t time.Time) bool {
	local := p.In(t)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes%int(p.Slot/time.Minute) == 0
}

// LocalDate returns the calendar date of t in the facility zone.
func (p Policy) LocalDate(t time.Time) Date {
	return DateOf(p.In(t))
}

// SameLocalDay reports whether a and b fall on the same facility calendar date.
func (p Policy) SameLocalDay(a, b time.Time) bool {
	return p.LocalDate(a) == p.LocalDate(b)
}

// OperatingWindow returns the opening and closing instants for the local date d.
func (p Policy) OperatingWindow(d Date) (open, close time.Time) {
	return d.At(p.Open, p.Location), d.At(p.Close, p.Location)
}

// DayWindow returns local midnight of from through local midnight after to.
func (p Policy) DayWindow(from, to Date) (start, end time.Time) {
	return from.Midnight(p.Location), to.AddDays(1).Midnight(p.Location)
}

// SlotLabels lists the HH:MM start label of every slot between open and close.
func (p Policy) SlotLabels() []string {
	labels := make([]string, 0, int((p.Close-p.Open)/p.Slot))
	for offset := p.Open; offset < p.Close; offset += p.Slot {
		labels = append(labels, ClockLabel(offset))
	}
	return labels
}

// ClockLabel renders an offset from midnight as HH:MM.
func ClockLabel(offset time.Duration) string {
	minutes := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses an HH:MM label into an offset from midnight.
func ParseClock(label string) (time.Duration, error) {
	t, err := time.Parse("15:04", label)
	if err != nil {
		return 0, fmt.Errorf("%w: clock %q: %v", ErrInvalidPolicy, label, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
