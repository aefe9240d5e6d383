package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		debug bool
		level zapcore.Level
		want  bool
	}{
		{false, zapcore.DebugLevel, false},
		{false, zapcore.InfoLevel, false},
		{false, zapcore.WarnLevel, true},
		{true, zapcore.DebugLevel, true},
	}
	for _, tt := range tests {
		logger, err := New(tt.debug)
		if err != nil {
			t.Fatalf("New(%v): %v", tt.debug, err)
		}
		if got := logger.Core().Enabled(tt.level); got != tt.want {
			t.Errorf("New(%v).Enabled(%s) = %v, want %v", tt.debug, tt.level, got, tt.want)
		}
	}
}
