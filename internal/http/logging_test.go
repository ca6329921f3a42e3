package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/example/facility-reservations/internal/application"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return record
}

func TestHandlerLoggerAddsDeviceWithoutRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ContextWithDevice(context.Background(), application.Device{ID: "dev-1", Label: "front-desk"})

	handlerLogger(ctx, fallback, "ReservationHandler", "Cancel", "reservation_id", "r-1").Info("cancel")

	record := decodeLogLine(t, &buf)
	if record["handler"] != "ReservationHandler" || record["operation"] != "Cancel" {
		t.Fatalf("unexpected scope attrs: %v", record)
	}
	if record["device"] != "front-desk" || record["reservation_id"] != "r-1" {
		t.Fatalf("unexpected device attrs: %v", record)
	}
}

func TestHandlerLoggerPrefersRequestLogger(t *testing.T) {
	t.Parallel()

	var fallbackBuf, requestBuf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&fallbackBuf, nil))
	request := slog.New(slog.NewJSONHandler(&requestBuf, nil)).With("request_id", 7, "device", "front-desk")
	ctx := ContextWithLogger(context.Background(), request)
	ctx = ContextWithDevice(ctx, application.Device{ID: "dev-1", Label: "front-desk"})

	handlerLogger(ctx, fallback, "GridHandler", "").Info("grid")

	if fallbackBuf.Len() != 0 {
		t.Fatalf("fallback logger used: %s", fallbackBuf.String())
	}
	record := decodeLogLine(t, &requestBuf)
	if record["request_id"] != float64(7) || record["handler"] != "GridHandler" {
		t.Fatalf("unexpected attrs: %v", record)
	}
	if _, ok := record["operation"]; ok {
		t.Fatalf("empty operation should be omitted: %v", record)
	}
}
