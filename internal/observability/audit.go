package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

const auditEventVersion = 1

// AuditInput describes a security-relevant action. Actor and Target are
// email addresses or ids; Details must never carry codes or passwords.
type AuditInput struct {
	Event   string
	Actor   string
	Target  string
	Outcome string
	Details map[string]any
}

type AuditEvent struct {
	EventVersion int            `json:"event_version"`
	Event        string         `json:"event"`
	Actor        string         `json:"actor"`
	Target       string         `json:"target"`
	Outcome      string         `json:"outcome"`
	RequestID    string         `json:"request_id,omitempty"`
	TraceID      string         `json:"trace_id,omitempty"`
	TS           string         `json:"ts"`
	Details      map[string]any `json:"details,omitempty"`
}

func (e AuditEvent) Validate() error {
	var errs []error
	if e.Event == "" {
		errs = append(errs, errors.New("audit event name is required"))
	}
	if e.Outcome == "" {
		errs = append(errs, errors.New("audit outcome is required"))
	}
	if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
		errs = append(errs, errors.New("audit ts must be RFC3339"))
	}
	return errors.Join(errs...)
}

func BuildAuditEvent(ctx context.Context, in AuditInput) AuditEvent {
	ev := AuditEvent{
		EventVersion: auditEventVersion,
		Event:        in.Event,
		Actor:        in.Actor,
		Target:       in.Target,
		Outcome:      in.Outcome,
		RequestID:    chimiddleware.GetReqID(ctx),
		TS:           time.Now().UTC().Format(time.RFC3339),
		Details:      in.Details,
	}
	if ev.Actor == "" {
		ev.Actor = "anonymous"
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ev.TraceID = sc.TraceID().String()
	}
	return ev
}

func EmitAudit(ctx context.Context, in AuditInput) {
	ev := BuildAuditEvent(ctx, in)
	if err := ev.Validate(); err != nil {
		NewLogger().WarnContext(ctx, "audit event rejected", "event", ev.Event, "error", err)
		return
	}
	attrs := []any{
		"event_version", ev.EventVersion,
		"event", ev.Event,
		"actor", ev.Actor,
		"target", ev.Target,
		"outcome", ev.Outcome,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	}
	if len(ev.Details) > 0 {
		attrs = append(attrs, "details", ev.Details)
	}
	NewLogger().Log(ctx, slog.LevelInfo, "audit", attrs...)
}
