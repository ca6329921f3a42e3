package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/policy"
)

type storeStub struct {
	err   error
	calls int
}

func (s *storeStub) WithinTx(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	s.calls++
	return s.err
}

type hasherStub struct{ hashed []string }

func (h *hasherStub) Hash(raw string) (string, error) {
	h.hashed = append(h.hashed, raw)
	return "hash:" + raw, nil
}

func (h *hasherStub) Verify(encoded, raw string) error {
	if encoded != "hash:"+raw {
		return errors.New("mismatch")
	}
	return nil
}

type metricsStub struct {
	outcomes map[string]string
	lockouts int
}

func (m *metricsStub) ObserveOperation(operation, outcome string, _ time.Duration) {
	if m.outcomes == nil {
		m.outcomes = make(map[string]string)
	}
	m.outcomes[operation] = outcome
}

func (m *metricsStub) ObserveLockout() { m.lockouts++ }

func newStubbedService(store persistence.Store) (*ReservationService, *hasherStub, *metricsStub) {
	hasher := &hasherStub{}
	metrics := &metricsStub{}
	svc := NewReservationService(store, policy.Default(), hasher, WithReservationMetrics(metrics))
	return svc, hasher, metrics
}

func validParams() CreateReservationParams {
	day := policy.Date{Year: 2025, Month: time.March, Day: 3}
	loc := policy.Default().Location
	return CreateReservationParams{
		RoomID: "room-1",
		Start:  day.At(10*time.Hour, loc),
		End:    day.At(11*time.Hour, loc),
		Title:  "Rehearsal",
		PIN:    "1234",
	}
}

func TestReservationServiceNilGuard(t *testing.T) {
	t.Parallel()

	var svc *ReservationService
	if _, err := svc.CreateReservation(context.Background(), validParams()); err == nil {
		t.Fatal("expected error from nil service")
	}
	if _, err := svc.ListForWindow(context.Background(), ListWindowParams{}); err == nil {
		t.Fatal("expected error from nil service")
	}
}

func TestCreateReservationRejectsBeforeStorage(t *testing.T) {
	t.Parallel()

	store := &storeStub{}
	svc, hasher, metrics := newStubbedService(store)

	params := validParams()
	params.PIN = "123"
	if _, err := svc.CreateReservation(context.Background(), params); !errors.Is(err, ErrMalformedPIN) {
		t.Fatalf("expected ErrMalformedPIN, got %v", err)
	}

	params = validParams()
	params.End = params.Start
	if _, err := svc.CreateReservation(context.Background(), params); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}

	params = validParams()
	params.Repeat = &RepeatRule{Weekdays: []time.Weekday{time.Monday}}
	var vErr *ValidationError
	if _, err := svc.CreateReservation(context.Background(), params); !errors.As(err, &vErr) || vErr.FieldErrors["repeat_until"] == "" {
		t.Fatalf("expected repeat_until validation error, got %v", err)
	}

	if store.calls != 0 || len(hasher.hashed) != 0 {
		t.Fatalf("rejected input reached storage (%d) or hasher (%d)", store.calls, len(hasher.hashed))
	}
	if metrics.outcomes["CreateSeries"] != "validation" || metrics.outcomes["CreateReservation"] != "invalid_interval" {
		t.Fatalf("metrics = %v", metrics.outcomes)
	}
}

func TestCreateReservationPropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is gone")
	svc, hasher, metrics := newStubbedService(&storeStub{err: boom})

	if _, err := svc.CreateReservation(context.Background(), validParams()); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(hasher.hashed) != 1 || hasher.hashed[0] != "1234" {
		t.Fatalf("hashed = %v", hasher.hashed)
	}
	if metrics.outcomes["CreateReservation"] != "unexpected" {
		t.Fatalf("metrics = %v", metrics.outcomes)
	}
}

func TestUpdateAndCancelInputValidation(t *testing.T) {
	t.Parallel()

	store := &storeStub{}
	svc, _, _ := newStubbedService(store)
	ctx := context.Background()

	start := time.Now()
	var vErr *ValidationError
	if _, err := svc.UpdateSeries(ctx, UpdateSeriesParams{AnchorID: "r-1", AnchorStart: &start}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for half an anchor interval, got %v", err)
	}

	bad := "12345"
	current := "1234"
	if _, err := svc.UpdateReservation(ctx, UpdateReservationParams{ReservationID: "r-1", NewPIN: &bad, CurrentPIN: &current}); !errors.Is(err, ErrMalformedPIN) {
		t.Fatalf("expected ErrMalformedPIN, got %v", err)
	}

	newPIN := "5678"
	if _, err := svc.UpdateReservation(ctx, UpdateReservationParams{ReservationID: "r-1", NewPIN: &newPIN}); !errors.As(err, &vErr) || vErr.FieldErrors["current_pin"] == "" {
		t.Fatalf("expected current_pin validation error, got %v", err)
	}
	if _, err := svc.UpdateSeries(ctx, UpdateSeriesParams{AnchorID: "r-1", NewPIN: &newPIN}); !errors.As(err, &vErr) || vErr.FieldErrors["current_pin"] == "" {
		t.Fatalf("expected current_pin validation error for series, got %v", err)
	}
	device := DeviceActor(Device{ID: "d-1", Label: "desk"}, "")
	title := "Edited"
	if _, err := svc.UpdateReservation(ctx, UpdateReservationParams{ReservationID: "r-1", Title: &title, Actor: device}); !errors.As(err, &vErr) || vErr.FieldErrors["current_pin"] == "" {
		t.Fatalf("expected current_pin validation error for device edit, got %v", err)
	}

	empty := " "
	if _, err := svc.UpdateReservation(ctx, UpdateReservationParams{ReservationID: "r-1", Title: &empty}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	if _, err := svc.CancelReservation(ctx, CancelReservationParams{ReservationID: "r-1", PIN: "1234", Scope: "everything"}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for scope, got %v", err)
	}

	if store.calls != 0 {
		t.Fatalf("storage called %d times", store.calls)
	}
}

func TestListForWindowValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newStubbedService(&storeStub{})
	day := policy.Date{Year: 2025, Month: time.March, Day: 3}

	cases := map[string]ListWindowParams{
		"missing from":   {},
		"reversed":       {From: day, To: day.AddDays(-1)},
		"too long":       {From: day, To: day.AddDays(maxGridDays)},
		"bad projection": {From: day, Projection: "secret"},
	}
	for name, params := range cases {
		var vErr *ValidationError
		if _, err := svc.ListForWindow(context.Background(), params); !errors.As(err, &vErr) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	boom := errors.New("read failed")
	svc, _, _ = newStubbedService(&storeStub{err: boom})
	if _, err := svc.ListForWindow(context.Background(), ListWindowParams{From: day}); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
