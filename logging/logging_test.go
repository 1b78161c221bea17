package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_OneJSONObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{})

	logger.Info("episode done", "episode", 3, "score", 7)
	logger.Warn("slow tick", "ms", 12.5)

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("lines=%d want=2", len(lines))
	}
	if lines[0]["msg"] != "episode done" || lines[0]["episode"].(float64) != 3 {
		t.Fatalf("first line=%v", lines[0])
	}
	if lines[1]["level"] != "WARN" {
		t.Fatalf("second line level=%v want=WARN", lines[1]["level"])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelWarn})

	logger.Info("dropped")
	logger.Error("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("lines=%v want only the error line", lines)
	}
}

func TestLogger_GroupsFlattenToDottedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{})

	logger.WithGroup("run").With("id", "abc").Info("started", "episodes", 10)
	logger.Info("grouped inline", slog.Group("table", "rows", 42))

	lines := decodeLines(t, &buf)
	if lines[0]["run.id"] != "abc" {
		t.Fatalf("line=%v want run.id=abc", lines[0])
	}
	if lines[0]["run.episodes"].(float64) != 10 {
		t.Fatalf("line=%v want run.episodes=10", lines[0])
	}
	if lines[1]["table.rows"].(float64) != 42 {
		t.Fatalf("line=%v want table.rows=42", lines[1])
	}
}
