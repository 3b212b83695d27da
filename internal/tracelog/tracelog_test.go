package tracelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("op", nil)
	l.Log(LevelError, "op", map[string]interface{}{"k": 1})
	if err := l.Close(); err != nil {
		t.Fatalf("Close on nil logger: %v", err)
	}
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l, err := New(Config{Enabled: false, FilePath: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Debug("op", nil)
	l.Close()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled logger created a file")
	}
}

func TestLogWritesSortedDetails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l, err := New(Config{Enabled: true, Level: LevelDebug, FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Debug("create-window", map[string]interface{}{
		"width":  800,
		"height": 600,
		"title":  "demo",
	})
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[DEBUG] create-window") {
		t.Fatalf("missing op: %q", line)
	}
	// Keys appear alphabetically.
	hi := strings.Index(line, "height=")
	ti := strings.Index(line, "title=")
	wi := strings.Index(line, "width=")
	if hi < 0 || ti < 0 || wi < 0 || !(hi < ti && ti < wi) {
		t.Fatalf("details not sorted: %q", line)
	}
	if !strings.Contains(line, `title="demo"`) {
		t.Fatalf("string detail not quoted: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l, err := New(Config{Enabled: true, Level: LevelWarn, FilePath: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Debug("dropped", nil)
	l.Warn("kept", nil)
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace: %v", err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Fatalf("debug entry not filtered: %q", data)
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatalf("warn entry missing: %q", data)
	}
}
