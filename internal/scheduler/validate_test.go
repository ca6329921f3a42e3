package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/policy"
)

var testDay = policy.Date{Year: 2025, Month: time.June, Day: 10}

func at(p policy.Policy, hour, minute int) time.Time {
	return testDay.At(time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute, p.Location)
}

func TestValidateAcceptsPolicyCompliantInterval(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	cases := []Interval{
		{Start: at(p, 9, 0), End: at(p, 9, 30)},
		{Start: at(p, 9, 0), End: at(p, 20, 0)},
		{Start: at(p, 19, 30), End: at(p, 20, 0)},
		{Start: at(p, 12, 0).UTC(), End: at(p, 13, 30).UTC()},
	}
	for _, iv := range cases {
		if err := Validate(p, iv); err != nil {
			t.Fatalf("Validate(%v) = %v, want nil", iv, err)
		}
	}
}

func TestValidateReportsFirstFailingRule(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	nextDay := testDay.AddDays(1)

	cases := []struct {
		name string
		iv   Interval
		want Reason
	}{
		{name: "end equals start", iv: Interval{Start: at(p, 10, 0), End: at(p, 10, 0)}, want: ReasonOrdering},
		{name: "end before start", iv: Interval{Start: at(p, 11, 0), End: at(p, 10, 0)}, want: ReasonOrdering},
		{name: "shorter than a slot", iv: Interval{Start: at(p, 10, 0), End: at(p, 10, 15)}, want: ReasonMinimumDuration},
		{name: "start off slot", iv: Interval{Start: at(p, 10, 15), End: at(p, 11, 0)}, want: ReasonAlignment},
		{name: "end off slot", iv: Interval{Start: at(p, 10, 0), End: at(p, 10, 45)}, want: ReasonAlignment},
		{name: "seconds on start", iv: Interval{Start: at(p, 10, 0).Add(time.Second), End: at(p, 11, 0)}, want: ReasonAlignment},
		{name: "crosses midnight", iv: Interval{Start: at(p, 19, 0), End: nextDay.At(9*time.Hour, p.Location)}, want: ReasonCrossMidnight},
		{name: "before opening", iv: Interval{Start: at(p, 8, 30), End: at(p, 9, 30)}, want: ReasonOutsideHours},
		{name: "after closing", iv: Interval{Start: at(p, 19, 30), End: at(p, 20, 30)}, want: ReasonOutsideHours},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(p, tc.iv)
			if !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
			var ivErr *InvalidIntervalError
			if !errors.As(err, &ivErr) {
				t.Fatalf("expected *InvalidIntervalError, got %T", err)
			}
			if ivErr.Reason != tc.want {
				t.Fatalf("reason = %s, want %s", ivErr.Reason, tc.want)
			}
		})
	}
}

// Breaking exactly one rule of a valid interval must flip the verdict.
func TestValidateSingleRuleFlip(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	valid := Interval{Start: at(p, 10, 0), End: at(p, 11, 0)}
	if err := Validate(p, valid); err != nil {
		t.Fatalf("baseline invalid: %v", err)
	}

	flips := []Interval{
		{Start: valid.End, End: valid.Start},
		{Start: valid.Start, End: valid.Start.Add(20 * time.Minute)},
		{Start: valid.Start.Add(10 * time.Minute), End: valid.End.Add(10 * time.Minute)},
		{Start: at(p, 8, 0), End: at(p, 9, 0)},
	}
	for _, iv := range flips {
		if err := Validate(p, iv); err == nil {
			t.Fatalf("Validate(%v) accepted a rule-breaking interval", iv)
		}
	}
}

func TestValidateHonorsInjectedPolicy(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	p.Location = time.UTC
	p.Open = 7 * time.Hour
	p.Close = 22 * time.Hour
	p.Slot = 15 * time.Minute

	iv := Interval{
		Start: time.Date(2025, time.June, 10, 7, 15, 0, 0, time.UTC),
		End:   time.Date(2025, time.June, 10, 7, 30, 0, 0, time.UTC),
	}
	if err := Validate(p, iv); err != nil {
		t.Fatalf("Validate with custom policy: %v", err)
	}
}

func TestValidateLengthIgnoresPlacement(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	cases := []struct {
		name string
		iv   Interval
		want Reason
	}{
		{"reversed", Interval{Start: at(p, 11, 0), End: at(p, 10, 0)}, ReasonOrdering},
		{"empty", Interval{Start: at(p, 11, 0), End: at(p, 11, 0)}, ReasonOrdering},
		{"short", Interval{Start: at(p, 11, 0), End: at(p, 11, 15)}, ReasonMinimumDuration},
		{"misaligned but long enough", Interval{Start: at(p, 6, 10), End: at(p, 7, 10)}, ""},
	}
	for _, tc := range cases {
		err := ValidateLength(p, tc.iv)
		if tc.want == "" {
			if err != nil {
				t.Fatalf("%s: ValidateLength = %v, want nil", tc.name, err)
			}
			continue
		}
		var iv *InvalidIntervalError
		if !errors.As(err, &iv) || iv.Reason != tc.want {
			t.Fatalf("%s: ValidateLength = %v, want reason %s", tc.name, err, tc.want)
		}
	}
}
