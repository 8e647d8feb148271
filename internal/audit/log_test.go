package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = auth.ContextWithUser(ctx, &auth.User{ID: "user-42", Username: "alice"}, "sess-42")

	LogEvent(ctx, "auth.login", map[string]any{"username": "alice"})

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "auth.login" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["actor"] != "alice" {
		t.Fatalf("unexpected actor: %v", entry["actor"])
	}
	if entry["session_id"] != "sess-42" {
		t.Fatalf("unexpected session id: %v", entry["session_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["username"] != "alice" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventIgnoresEmptyEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	LogEvent(context.Background(), "   ", nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}
}
