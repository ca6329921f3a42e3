package policy

import (
	"errors"
	"testing"
	"time"
)

func TestIsSlotAligned(t *testing.T) {
	t.Parallel()

	p := Default()
	day := Date{Year: 2025, Month: time.March, Day: 4}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "on the hour", at: day.At(9*time.Hour, p.Location), want: true},
		{name: "half past", at: day.At(9*time.Hour+30*time.Minute, p.Location), want: true},
		{name: "quarter past", at: day.At(9*time.Hour+15*time.Minute, p.Location), want: false},
		{name: "stray second", at: day.At(10*time.Hour, p.Location).Add(time.Second), want: false},
		{name: "stray nanosecond", at: day.At(10*time.Hour, p.Location).Add(1), want: false},
		{name: "aligned instant given in UTC", at: day.At(11*time.Hour, p.Location).UTC(), want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := p.IsSlotAligned(tc.at); got != tc.want {
				t.Fatalf("IsSlotAligned(%s) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestLocalDateUsesFacilityZone(t *testing.T) {
	t.Parallel()

	p := Default()
	// 03:00 UTC on the 5th is still the evening of the 4th in Chicago.
	instant := time.Date(2025, time.March, 5, 3, 0, 0, 0, time.UTC)

	got := p.LocalDate(instant)
	want := Date{Year: 2025, Month: time.March, Day: 4}
	if got != want {
		t.Fatalf("LocalDate = %s, want %s", got, want)
	}
	if p.SameLocalDay(instant, time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("instants on different local days reported as the same day")
	}
}

func TestOperatingWindowAcrossDST(t *testing.T) {
	t.Parallel()

	p := Default()
	// US DST begins 2025-03-09.
	day := Date{Year: 2025, Month: time.March, Day: 9}
	open, closeAt := p.OperatingWindow(day)

	if open.Hour() != 9 || open.Minute() != 0 {
		t.Fatalf("open = %s, want 09:00 local", open)
	}
	if closeAt.Hour() != 20 || closeAt.Minute() != 0 {
		t.Fatalf("close = %s, want 20:00 local", closeAt)
	}
	if got := p.LocalDate(open); got != day {
		t.Fatalf("open falls on %s, want %s", got, day)
	}
}

func TestSlotLabels(t *testing.T) {
	t.Parallel()

	labels := Default().SlotLabels()
	if len(labels) != 22 {
		t.Fatalf("len(labels) = %d, want 22", len(labels))
	}
	if labels[0] != "09:00" || labels[1] != "09:30" || labels[len(labels)-1] != "19:30" {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	broken := Default()
	broken.Open = 9*time.Hour + 10*time.Minute
	if err := broken.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy for unaligned open, got %v", err)
	}

	broken = Default()
	broken.Slot = 7 * time.Minute
	if err := broken.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy for odd slot, got %v", err)
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-28")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Fatalf("AddDays(1) = %s", got)
	}
	if got := d.DaysUntil(Date{Year: 2024, Month: time.March, Day: 31}); got != 32 {
		t.Fatalf("DaysUntil = %d, want 32", got)
	}
	if d.Weekday() != time.Wednesday {
		t.Fatalf("Weekday = %s, want Wednesday", d.Weekday())
	}
	if got, err := ParseClock("19:30"); err != nil || got != 19*time.Hour+30*time.Minute {
		t.Fatalf("ParseClock = %s, %v", got, err)
	}
}
