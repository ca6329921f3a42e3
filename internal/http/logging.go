package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger scopes a logger to one handler operation. The request logger
// set by RequestLogger already carries the request id and, behind
// RequireDevice, the device label; without it the handler's own logger is used
// and the device label is added here.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, len(attrs)+6)
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}

	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if device, ok := DeviceFromContext(ctx); ok {
			pairs = append(pairs, "device", device.Label)
		}
	}
	return logger.With(append(pairs, attrs...)...)
}
