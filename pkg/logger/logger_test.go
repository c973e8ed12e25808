package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLogger_DefaultInitialization(t *testing.T) {
	// Log should be initialized by default and not panic
	if Log == nil {
		t.Fatal("Log should not be nil by default")
	}

	// Should not panic
	Log.Info("Testing default logger")
}

func TestLogger_LevelAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn").With("component", "supervisor")

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	l.Warn("kept", "retry", 3)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "supervisor" {
		t.Errorf("Expected component context, got %v", entry["component"])
	}
	if entry["msg"] != "kept" {
		t.Errorf("Expected msg kept, got %v", entry["msg"])
	}
}
