package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, data string) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn, FormatJSON)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, buf.String())
	if len(entries) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(entries))
	}
	if entries[0]["level"] != "WARN" {
		t.Errorf("first level = %v, want WARN", entries[0]["level"])
	}
	if entries[1]["level"] != "ERROR" {
		t.Errorf("second level = %v, want ERROR", entries[1]["level"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo, FormatText)

	logger.Info("bridge raised", "waiting_ships", 3)

	out := buf.String()
	if !strings.Contains(out, "msg=\"bridge raised\"") {
		t.Errorf("text output missing message: %q", out)
	}
	if !strings.Contains(out, "waiting_ships=3") {
		t.Errorf("text output missing attribute: %q", out)
	}
}

func TestWithActor(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug, FormatJSON)

	logger.WithComponent("sim").WithActor("car", 3).Debug("crossing")

	entries := decodeLines(t, buf.String())
	if len(entries) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(entries))
	}
	entry := entries[0]
	if entry["component"] != "sim" {
		t.Errorf("component = %v, want sim", entry["component"])
	}
	if entry["species"] != "car" {
		t.Errorf("species = %v, want car", entry["species"])
	}
	// JSON numbers decode as float64
	if entry["actor_id"] != float64(3) {
		t.Errorf("actor_id = %v, want 3", entry["actor_id"])
	}
}

func TestWith_NoArgsReturnsSameLogger(t *testing.T) {
	logger := NopLogger()
	if logger.With() != logger {
		t.Error("With() without args should return the receiver")
	}
}

func TestNewFileLogger(t *testing.T) {
	t.Run("creates parent directories and appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "drawbridge.log")

		logger, err := NewFileLogger(path, LevelInfo, FormatJSON)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Info("first")
		if err := logger.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if entries := decodeLines(t, string(content)); len(entries) != 1 {
			t.Errorf("expected 1 log line, got %d", len(entries))
		}
	})

	t.Run("empty path logs to stderr", func(t *testing.T) {
		logger, err := NewFileLogger("", LevelInfo, FormatJSON)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		if logger.sink.file != nil {
			t.Error("expected no file when path is empty")
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close on stderr logger = %v, want nil", err)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "drawbridge.log")
		logger, err := NewFileLogger(path, LevelInfo, FormatJSON)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Fatalf("first Close failed: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("second Close = %v, want nil", err)
		}
	})
}

func TestEnabled(t *testing.T) {
	logger := New(&bytes.Buffer{}, LevelInfo, FormatJSON)

	if logger.Enabled(LevelDebug) {
		t.Error("Enabled(DEBUG) = true at INFO level")
	}
	if !logger.Enabled(LevelError) {
		t.Error("Enabled(ERROR) = false at INFO level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
