package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type endpoint struct {
	method string
	path   string
	body   string
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	client := &http.Client{Timeout: 5 * time.Second}
	endpoints := endpointsForProfile(cfg.Profile)
	if len(endpoints) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(len(endpoints), func(i, j int) { endpoints[i], endpoints[j] = endpoints[j], endpoints[i] })

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan endpoint, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range jobs {
				req, err := newRequest(ctx, cfg.BaseURL, ep)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
				}
			}
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{
				TotalRequests: atomic.LoadInt64(&total),
				Failures:      atomic.LoadInt64(&failures),
				Status2xx:     atomic.LoadInt64(&s2xx),
				Status4xx:     atomic.LoadInt64(&s4xx),
				Status5xx:     atomic.LoadInt64(&s5xx),
			}, nil
		case <-ticker.C:
			select {
			case jobs <- endpoints[i%len(endpoints)]:
				i++
			case <-ctx.Done():
			}
		}
	}
}

func newRequest(ctx context.Context, baseURL string, ep endpoint) (*http.Request, error) {
	if ep.body == "" {
		return http.NewRequestWithContext(ctx, ep.method, baseURL+ep.path, nil)
	}
	req, err := http.NewRequestWithContext(ctx, ep.method, baseURL+ep.path, bytes.NewBufferString(ep.body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

var (
	publicEndpoints = []endpoint{
		{method: http.MethodGet, path: "/api/v1/blogs"},
		{method: http.MethodGet, path: "/api/v1/blogs?page=2&page_size=5"},
		{method: http.MethodGet, path: "/api/v1/events"},
		{method: http.MethodGet, path: "/api/v1/gallery"},
		{method: http.MethodGet, path: "/health/live"},
	}
	authEndpoints = []endpoint{
		{method: http.MethodPost, path: "/api/v1/auth/signin", body: `{"email":"loadgen@example.org","password":"not-the-password"}`},
		{method: http.MethodPost, path: "/api/v1/auth/password/forgot", body: `{"email":"loadgen@example.org"}`},
	}
	errorEndpoints = []endpoint{
		{method: http.MethodPost, path: "/api/v1/auth/password/verify", body: `{"email":"loadgen@example.org","code":"000000"}`},
		{method: http.MethodGet, path: "/api/v1/admin/users"},
		{method: http.MethodGet, path: "/api/v1/blogs/does-not-exist"},
	}
)

func endpointsForProfile(profile string) []endpoint {
	var out []endpoint
	switch strings.ToLower(profile) {
	case "", "mixed":
		out = append(out, publicEndpoints...)
		out = append(out, authEndpoints...)
		out = append(out, errorEndpoints...)
	case "public":
		out = append(out, publicEndpoints...)
	case "auth":
		out = append(out, authEndpoints...)
	case "error-heavy":
		out = append(out, errorEndpoints...)
		out = append(out, authEndpoints[0])
	default:
		return nil
	}
	return out
}
