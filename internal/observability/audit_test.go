package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestBuildAuditEventIncludesRequiredFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "req-test-1")

	ev := BuildAuditEvent(ctx, AuditInput{
		Event:   "user.role.changed",
		Actor:   "admin@example.org",
		Target:  "member@example.org",
		Outcome: "success",
		Details: map[string]any{"role": "admin"},
	})

	if ev.EventVersion != 1 {
		t.Fatalf("expected event version 1, got %d", ev.EventVersion)
	}
	if ev.RequestID != "req-test-1" {
		t.Fatalf("unexpected request id: %s", ev.RequestID)
	}
	if _, err := time.Parse(time.RFC3339, ev.TS); err != nil {
		t.Fatalf("expected RFC3339 ts, got %q err=%v", ev.TS, err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestBuildAuditEventDefaultsAnonymousActor(t *testing.T) {
	ev := BuildAuditEvent(context.Background(), AuditInput{Event: "auth.password.reset", Outcome: "success"})
	if ev.Actor != "anonymous" {
		t.Fatalf("expected anonymous actor, got %q", ev.Actor)
	}
}

func TestAuditEventValidateRejectsMissingEventName(t *testing.T) {
	ev := AuditEvent{
		EventVersion: 1,
		Actor:        "42",
		Outcome:      "success",
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing event")
	}
}

func TestEmitAuditWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	loggerMu.Lock()
	prev := globalLogger
	globalLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	loggerMu.Unlock()
	defer func() {
		loggerMu.Lock()
		globalLogger = prev
		loggerMu.Unlock()
	}()

	EmitAudit(context.Background(), AuditInput{Event: "auth.signin", Actor: "a@example.org", Outcome: "failure"})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode audit record: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "audit" || rec["event"] != "auth.signin" || rec["outcome"] != "failure" {
		t.Fatalf("unexpected audit record: %v", rec)
	}
}
