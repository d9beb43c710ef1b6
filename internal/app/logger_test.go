package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := NewLogger(tt.level, &bytes.Buffer{})
			assert.True(t, log.Enabled(context.Background(), tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, log.Enabled(context.Background(), tt.want-1))
			}
		})
	}
}

func TestNewLogger_WritesText(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("INFO", &buf).Info("ROM loaded", "mapper", "NROM")
	assert.Contains(t, buf.String(), `msg="ROM loaded" mapper=NROM`)
}
