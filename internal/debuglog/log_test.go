package debuglog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{" Error ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "WARN" {
		t.Errorf("unexpected string for warn: %s", LevelWarn.String())
	}
	if LogLevel(99).String() != "UNKNOWN" {
		t.Errorf("out-of-range level should be UNKNOWN")
	}
}

func TestSetupWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	if err := Setup(LevelInfo, logPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer func() {
		Close()
		Setup(LevelOff)
	}()

	Infof("hello %s", "world")
	Debugf("should be filtered at info level")

	if err := Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Errorf("expected info message in log, got: %s", content)
	}
	if strings.Contains(content, "filtered") {
		t.Errorf("debug message leaked through info level: %s", content)
	}
}

func TestLevelOffDisablesLogging(t *testing.T) {
	if err := Setup(LevelOff); err != nil {
		t.Fatalf("setup off failed: %v", err)
	}
	// Must not panic with a nil logger.
	Errorf("dropped")
}
