package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	logger, err := NewLogger(path, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log = %s", data)
	}
}

func TestNewLogger_EmptyPathDiscards(t *testing.T) {
	logger, err := NewLogger("", LevelDebug)
	if err != nil {
		t.Fatal(err)
	}
	if logger.file != nil {
		t.Fatal("expected no file")
	}
	logger.Error("dropped")
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")

	out := buf.String()
	if strings.Contains(out, `"msg":"info"`) || strings.Contains(out, `"msg":"debug"`) {
		t.Fatalf("filtered levels leaked: %s", out)
	}
	if !strings.Contains(out, `"msg":"warn"`) {
		t.Fatalf("warn missing: %s", out)
	}
}

func TestLogger_PersistentAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, LevelDebug)
	child := base.WithRun("run-1").WithSource("git").With("project", 7)

	child.Info("created", "title", "Epic: Documentation")
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["run_id"] != "run-1" || entry["source"] != "git" || entry["project"] != float64(7) {
		t.Fatalf("entry = %v", entry)
	}
	if entry["title"] != "Epic: Documentation" {
		t.Fatalf("title = %v", entry["title"])
	}
	if strings.Contains(lines[1], "run_id") {
		t.Fatalf("parent logger picked up child attrs: %s", lines[1])
	}
}
