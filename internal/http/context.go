package http

import (
	"context"
	"log/slog"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/logging"
)

type contextKey string

const deviceContextKey contextKey = "device"

// ContextWithDevice returns a derived context containing the authenticated device.
func ContextWithDevice(ctx context.Context, device application.Device) context.Context {
	return context.WithValue(ctx, deviceContextKey, device)
}

// DeviceFromContext extracts the authenticated device from context if available.
func DeviceFromContext(ctx context.Context) (application.Device, bool) {
	device, ok := ctx.Value(deviceContextKey).(application.Device)
	return device, ok
}

// ContextWithLogger attaches a request scoped logger. Services pick it up
// through the logging package.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
