package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "review-api", "warn", "json")

	logger.Info("dropped")
	logger.Warn("review_loaded", "doc_id", "inv-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected info filtered out, got %d lines", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q", lines[0])
	}
	if entry["service"] != "review-api" || entry["msg"] != "review_loaded" || entry["doc_id"] != "inv-1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "review-worker", "debug", "TEXT").Debug("worker_started")

	if !strings.Contains(buf.String(), "msg=worker_started") || !strings.Contains(buf.String(), "service=review-worker") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}
