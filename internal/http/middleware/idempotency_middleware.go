package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tooffoundation/site-backend/internal/http/response"
	"github.com/tooffoundation/site-backend/internal/observability"
	"github.com/tooffoundation/site-backend/internal/service"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// Idempotency replays the first response for a repeated Idempotency-Key.
// Requests without the header are passed through untouched, so plain form
// posts keep working.
type Idempotency struct {
	store service.IdempotencyStore
	ttl   time.Duration
}

func NewIdempotency(store service.IdempotencyStore, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

func (m *Idempotency) Middleware(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" || m.store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				observability.RecordIdempotencyEvent(r.Context(), scope, "invalid_key")
				response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Idempotency-Key is too long", nil)
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				observability.RecordIdempotencyEvent(r.Context(), scope, "read_error")
				response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request payload", nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := requestFingerprint(r, body)

			begin, err := m.store.Begin(r.Context(), scope, key, fingerprint, m.ttl)
			if err != nil {
				// A store outage must not block registrations.
				observability.RecordIdempotencyEvent(r.Context(), scope, "store_error")
				next.ServeHTTP(w, r)
				return
			}
			switch begin.State {
			case service.IdempotencyStateConflict:
				observability.RecordIdempotencyEvent(r.Context(), scope, "conflict")
				response.Error(w, r, http.StatusConflict, "CONFLICT", "Idempotency-Key was used with a different request", nil)
				return
			case service.IdempotencyStateInProgress:
				observability.RecordIdempotencyEvent(r.Context(), scope, "in_progress")
				response.Error(w, r, http.StatusConflict, "CONFLICT", "a request with this Idempotency-Key is still running", nil)
				return
			case service.IdempotencyStateReplay:
				observability.RecordIdempotencyEvent(r.Context(), scope, "replayed")
				observability.EmitAudit(r.Context(), observability.AuditInput{
					Event:   "idempotency.replay",
					Actor:   auditActor(r),
					Target:  "idempotency_key:" + shortHash(key),
					Outcome: "success",
					Details: map[string]any{"scope": scope},
				})
				replay(w, begin.Cached)
				return
			}

			rec := &recordingWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				observability.RecordIdempotencyEvent(r.Context(), scope, "released")
				_ = m.store.Release(r.Context(), scope, key, fingerprint)
				return
			}
			observability.RecordIdempotencyEvent(r.Context(), scope, "stored")
			cached := service.CachedHTTPResponse{StatusCode: status, ContentType: rec.Header().Get("Content-Type"), Body: rec.body.Bytes()}
			if err := m.store.Complete(r.Context(), scope, key, fingerprint, cached, m.ttl); err != nil {
				observability.RecordIdempotencyEvent(r.Context(), scope, "store_error")
			}
		})
	}
}

func replay(w http.ResponseWriter, cached *service.CachedHTTPResponse) {
	if cached == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if cached.ContentType != "" {
		w.Header().Set("Content-Type", cached.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

// requestFingerprint binds a key to the route, the caller and the body so a
// reused key cannot replay someone else's response.
func requestFingerprint(r *http.Request, body []byte) string {
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern() + "|" + r.URL.Path
	}
	caller := "ip:" + ClientIP(r)
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		caller = "sub:" + claims.Subject
	}
	h := sha256.New()
	for _, part := range []string{r.Method, route, caller} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func auditActor(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return "anonymous"
}

func shortHash(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:6])
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}
