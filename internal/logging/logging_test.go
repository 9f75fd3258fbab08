package logging

import "testing"

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestGetLevelDefault(t *testing.T) {
	// Level initialization is sticky (sync.Once); whatever the test
	// environment set, the result must be a known level.
	level := GetLevel()
	switch level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		t.Errorf("GetLevel() returned unknown level %d", level)
	}
}
