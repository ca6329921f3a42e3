package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/example/facility-reservations/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&base, nil))
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&scoped, nil)))

	serviceLogger(ctx, baseLogger, "ReservationService", "CancelReservation", "reservation_id", "r-1").Info("hello")
	if base.Len() != 0 {
		t.Fatalf("base logger should be unused, got %s", base.String())
	}

	var record map[string]any
	if err := json.Unmarshal(scoped.Bytes(), &record); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if record["service"] != "ReservationService" || record["operation"] != "CancelReservation" || record["reservation_id"] != "r-1" {
		t.Fatalf("record = %v", record)
	}
}

func TestLogOutcomeLevels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err       error
		wantLevel string
		wantKind  any
	}{
		{nil, "INFO", nil},
		{ErrOverlap, "WARN", "overlap"},
		{errors.New("connection reset"), "ERROR", "unexpected"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		logOutcome(context.Background(), logger, "create reservation", tc.err)

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("decode log: %v", err)
		}
		if record["level"] != tc.wantLevel || record["error_kind"] != tc.wantKind {
			t.Fatalf("err %v logged %v", tc.err, record)
		}
	}
}
