package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Setenv("NEST_LOG_LEVEL", tt.env)
		assert.Equal(t, tt.want, levelFromEnv(), "env %q", tt.env)
	}
}

func TestLoggerFromContext(t *testing.T) {
	assert.Same(t, logger, LoggerFromContext(context.Background()))

	ctx := WithRequestID(context.Background(), "req-1")
	assert.NotSame(t, logger, LoggerFromContext(ctx))
}
