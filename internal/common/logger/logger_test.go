package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/filmdoms/community/internal/common/constants"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "auth", "warn")

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line must be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "[WARNING] [auth]") || !strings.Contains(out, "shown") {
		t.Errorf("expected warning line, got: %s", out)
	}
}

func TestLogger_WithFieldsSortedAndTraced(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "", "debug")

	ctx := context.WithValue(context.Background(), constants.TraceIDKey, "abc123")
	log.WithFields(ctx, Fields{"zeta": 1, "action": "login_attempt"}).Info("login attempt")

	out := buf.String()
	if !strings.Contains(out, "[trace_id=abc123 action=login_attempt zeta=1]") {
		t.Errorf("unexpected field rendering: %s", out)
	}
}

func TestLogger_ShouldLog(t *testing.T) {
	log := NewWithWriter(&bytes.Buffer{}, "", "error")
	if log.ShouldLog(WARNING) {
		t.Error("warning must not be logged at error level")
	}
	log.SetLevel("debug")
	if !log.ShouldLog(DEBUG) {
		t.Error("debug must be logged after lowering the level")
	}
}

func TestNew_CreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := New(dir, "auth", "info")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("written")

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written") {
		t.Errorf("expected message in log file, got %q", string(data))
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if parseLevel("verbose") != INFO {
		t.Error("unknown level must fall back to INFO")
	}
	if parseLevel(" Critical ") != CRITICAL {
		t.Error("level parsing must be case and space insensitive")
	}
}
