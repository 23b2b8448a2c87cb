package util

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("debug", "json")
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug logger should enable debug level")
	}

	logger = NewLogger("warn", "text")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("warn logger should not enable info level")
	}

	// Unrecognised level falls back to info.
	logger = NewLogger("chatty", "json")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("fallback logger should not enable debug level")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("fallback logger should enable info level")
	}
}
