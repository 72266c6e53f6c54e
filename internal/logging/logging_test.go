package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Config{Level: "info", Output: &buf})
	defer closer.Close()

	sub := logger.With().Str("component", "sync").Logger()
	sub.Info().Str("path", "/tmp/a.txt").Msg("Created file")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"service":   "docmirror",
		"component": "sync",
		"path":      "/tmp/a.txt",
		"message":   "Created file",
		"level":     "info",
	} {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %q", key, entry[key], want)
		}
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Level: "warn", Output: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("Warn message missing: %s", out)
	}
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Pretty: true, Output: &buf})

	logger.Info().Msg("Store initialized")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("Pretty output should not be JSON: %s", out)
	}
	if !strings.Contains(out, "Store initialized") {
		t.Errorf("Message missing from pretty output: %s", out)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docmirror.log")
	var buf bytes.Buffer
	logger, closer := New(Config{Output: &buf, File: path})

	logger.Error().Msg("Failed to update store for file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Failed to update store for file") {
		t.Errorf("Log file missing message: %s", data)
	}
	if !strings.Contains(buf.String(), "Failed to update store for file") {
		t.Errorf("Console output missing message: %s", buf.String())
	}
}

func TestNew_WithCaller(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Output: &buf, WithCaller: true})

	logger.Info().Msg("Watcher stopped")

	if !strings.Contains(buf.String(), `"caller":`) {
		t.Errorf("Caller field missing: %s", buf.String())
	}
}
