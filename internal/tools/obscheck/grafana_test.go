package obscheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testTraceID = "0af7651916cd43dd8448eb211c80319c"

func newFakeGrafana(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/api/datasources/proxy/1/api/v1/query_exemplars":
			if r.URL.Query().Get("query") == "empty_bucket" {
				_, _ = w.Write([]byte(`{"data":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"exemplars":[{"labels":{"trace_id":"short"}},{"labels":{"trace_id":"` + testTraceID + `"}}]}]}`))
		case r.URL.Path == "/api/datasources/proxy/3/api/traces/"+testTraceID:
			_, _ = w.Write([]byte(`{"batches":[{},{}]}`))
		case r.URL.Path == "/api/datasources/proxy/2/loki/api/v1/query_range":
			if !strings.Contains(r.URL.Query().Get("query"), testTraceID) {
				_, _ = w.Write([]byte(`{"data":{"result":[]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":{"result":[{}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGrafanaClientFollowsExemplarToLogs(t *testing.T) {
	srv := newFakeGrafana(t)
	g := newGrafanaClient(grafanaConfig{baseURL: srv.URL, user: "admin", password: "secret"})
	ctx := context.Background()
	now := time.Now()

	traceID, err := g.exemplarTraceID(ctx, 1, "password_reset_duration_seconds_bucket", now.Add(-time.Minute), now)
	if err != nil {
		t.Fatalf("exemplar: %v", err)
	}
	if traceID != testTraceID {
		t.Fatalf("unexpected trace id %q", traceID)
	}

	opts := &options{tempoSource: 3, lokiSource: 2, serviceName: "site-backend", window: time.Minute}
	details, err := correlate(ctx, g, opts, traceID)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if len(details) != 2 || details[0] != "tempo batches=2" || details[1] != "loki streams=1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestGrafanaClientReportsMissingData(t *testing.T) {
	srv := newFakeGrafana(t)
	g := newGrafanaClient(grafanaConfig{baseURL: srv.URL, user: "admin", password: "secret"})
	ctx := context.Background()
	now := time.Now()

	if _, err := g.exemplarTraceID(ctx, 1, "empty_bucket", now, now); !errors.Is(err, errNoExemplar) {
		t.Fatalf("expected errNoExemplar, got %v", err)
	}
	if _, err := g.traceBatches(ctx, 3, "ffffffffffffffffffffffffffffffff"); err == nil {
		t.Fatal("expected unknown trace to fail")
	}
	if _, err := g.correlatedLogLines(ctx, 2, "site-backend", "deadbeef", now, now); err == nil {
		t.Fatal("expected missing logs to fail")
	}

	wrong := newGrafanaClient(grafanaConfig{baseURL: srv.URL, user: "admin", password: "nope"})
	if _, err := wrong.exemplarTraceID(ctx, 1, "x", now, now); err == nil {
		t.Fatal("expected bad credentials to fail")
	}
}
