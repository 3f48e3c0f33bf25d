package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEndpointsForProfile(t *testing.T) {
	for _, profile := range []string{"", "mixed", "public", "auth", "error-heavy", "PUBLIC"} {
		if len(endpointsForProfile(profile)) == 0 {
			t.Fatalf("expected endpoints for profile %q", profile)
		}
	}
	if endpointsForProfile("chaos") != nil {
		t.Fatal("expected unknown profile to yield no endpoints")
	}
	for _, ep := range endpointsForProfile("auth") {
		if ep.method != http.MethodPost || ep.body == "" {
			t.Fatalf("auth endpoints post json bodies, got %+v", ep)
		}
	}
}

func TestRunClassifiesResponses(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Method+" "+r.URL.Path]++
		mu.Unlock()
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v1/blogs"):
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/health/live":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL,
		Profile:     "mixed",
		Duration:    600 * time.Millisecond,
		RPS:         50,
		Concurrency: 3,
		Seed:        7,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 {
		t.Fatal("expected traffic")
	}
	if res.Status2xx == 0 || res.Status4xx == 0 {
		t.Fatalf("expected mixed statuses, got %+v", res)
	}
	if res.TotalRequests != res.Status2xx+res.Status4xx+res.Status5xx {
		t.Fatalf("status buckets do not add up: %+v", res)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen["POST /api/v1/auth/signin"] == 0 && seen["POST /api/v1/auth/password/forgot"] == 0 && seen["POST /api/v1/auth/password/verify"] == 0 {
		t.Fatalf("expected auth posts, saw %v", seen)
	}
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	if _, err := Run(context.Background(), Config{Profile: "chaos"}); err == nil {
		t.Fatal("expected unknown profile error")
	}
}

func TestCheckServerErrors(t *testing.T) {
	if err := checkServerErrors(Result{}, 0.5); err == nil {
		t.Fatal("expected error when nothing was received")
	}
	if err := checkServerErrors(Result{TotalRequests: 100, Status5xx: 1}, 0.01); err != nil {
		t.Fatalf("expected ratio at the limit to pass, got %v", err)
	}
	if err := checkServerErrors(Result{TotalRequests: 100, Status5xx: 2}, 0.01); err == nil {
		t.Fatal("expected ratio above the limit to fail")
	}
}
