package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/policy"
)

func TestPlanShiftMovesSeriesByAnchorDelta(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	monday := policy.Date{Year: 2025, Month: time.June, Day: 2}
	slot := func(d policy.Date, hour, minute int) time.Time {
		return d.At(time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute, p.Location)
	}

	members := []Member{
		{ID: "m1", Interval: Interval{Start: slot(monday, 10, 0), End: slot(monday, 11, 0)}},
		{ID: "m2", Interval: Interval{Start: slot(monday.AddDays(7), 10, 0), End: slot(monday.AddDays(7), 11, 0)}},
		// m3 was edited individually and runs 90 minutes.
		{ID: "m3", Interval: Interval{Start: slot(monday.AddDays(14), 10, 0), End: slot(monday.AddDays(14), 11, 30)}},
	}

	newAnchor := Interval{Start: slot(monday.AddDays(7), 14, 0), End: slot(monday.AddDays(7), 16, 0)}
	planned, err := PlanShift(members, "m2", newAnchor)
	if err != nil {
		t.Fatalf("PlanShift: %v", err)
	}
	if len(planned) != 3 {
		t.Fatalf("len(planned) = %d, want 3", len(planned))
	}

	want := []Interval{
		{Start: slot(monday, 14, 0), End: slot(monday, 15, 0)},
		newAnchor,
		{Start: slot(monday.AddDays(14), 14, 0), End: slot(monday.AddDays(14), 15, 30)},
	}
	for i, m := range planned {
		if m.ID != members[i].ID {
			t.Fatalf("planned[%d].ID = %s, want %s", i, m.ID, members[i].ID)
		}
		if !m.Interval.Start.Equal(want[i].Start) || !m.Interval.End.Equal(want[i].End) {
			t.Fatalf("planned[%d] = %v, want %v", i, m.Interval, want[i])
		}
	}
}

func TestPlanShiftAppliesAbsoluteDeltaAcrossDST(t *testing.T) {
	t.Parallel()

	p := policy.Default()
	// Chicago moves to daylight time on Sunday 9 March 2025.
	monday := policy.Date{Year: 2025, Month: time.March, Day: 3}
	slot := func(d policy.Date, hour int) time.Time {
		return d.At(time.Duration(hour)*time.Hour, p.Location)
	}

	members := []Member{
		{ID: "m1", Interval: Interval{Start: slot(monday, 10), End: slot(monday, 11)}},
		{ID: "m2", Interval: Interval{Start: slot(monday.AddDays(7), 10), End: slot(monday.AddDays(7), 11)}},
	}

	// Same wall clock a week later is 167 elapsed hours for the anchor.
	newAnchor := Interval{Start: slot(monday.AddDays(7), 10), End: slot(monday.AddDays(7), 11)}
	planned, err := PlanShift(members, "m1", newAnchor)
	if err != nil {
		t.Fatalf("PlanShift: %v", err)
	}

	moved := planned[1].Interval
	if want := members[1].Interval.Start.Add(7*24*time.Hour - time.Hour); !moved.Start.Equal(want) {
		t.Fatalf("m2 start = %v, want %v", moved.Start, want)
	}
	if got := p.In(moved.Start).Format("15:04"); got != "09:00" {
		t.Fatalf("m2 local start = %s, want 09:00", got)
	}
	if moved.Duration() != time.Hour {
		t.Fatalf("m2 duration = %v", moved.Duration())
	}
}

func TestPlanShiftRejectsUnknownAnchor(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)
	members := []Member{{ID: "m1", Interval: hourSpan(base, 0, 1)}}

	_, err := PlanShift(members, "missing", hourSpan(base, 2, 3))
	if !errors.Is(err, ErrAnchorNotInSeries) {
		t.Fatalf("expected ErrAnchorNotInSeries, got %v", err)
	}
}

func TestEnvelope(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	env, ok := Envelope([]Interval{hourSpan(base, 12, 13), hourSpan(base, 9, 10), hourSpan(base, 11, 15)})
	if !ok {
		t.Fatal("expected envelope")
	}
	if !env.Start.Equal(base.Add(9*time.Hour)) || !env.End.Equal(base.Add(15*time.Hour)) {
		t.Fatalf("envelope = %v", env)
	}
	if _, ok := Envelope(nil); ok {
		t.Fatal("expected no envelope for empty input")
	}
}
