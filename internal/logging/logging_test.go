package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestNewLevels checks the configured level is honoured
func TestNewLevels(t *testing.T) {
	for _, tc := range []struct {
		level   string
		enabled zapcore.Level
		blocked zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
	} {
		for _, dev := range []bool{false, true} {
			logger, err := New(tc.level, dev)
			if err != nil {
				t.Fatalf("New(%s, %v) failed: %v", tc.level, dev, err)
			}
			if !logger.Core().Enabled(tc.enabled) {
				t.Errorf("%s: expected %s enabled", tc.level, tc.enabled)
			}
			if logger.Core().Enabled(tc.blocked) {
				t.Errorf("%s: expected %s disabled", tc.level, tc.blocked)
			}
		}
	}
}

// TestNewInvalidLevel rejects unknown levels
func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Errorf("Expected error for invalid level")
	}
}
