package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type requestIDKey struct{}

// JSON to stdout, tagged with the service name so aggregated logs from the
// API and any sidecars stay distinguishable.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: levelFromEnv(),
})).With("service", "nest-api")

func Logger() *slog.Logger {
	return logger
}

// WithRequestID stores a request id in the context for downstream log lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// LoggerFromContext adds request_id if one was stored.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	reqID, _ := ctx.Value(requestIDKey{}).(string)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("NEST_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
