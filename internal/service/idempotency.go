package service

import (
	"context"
	"sync"
	"time"
)

type IdempotencyState string

const (
	IdempotencyStateNew        IdempotencyState = "new"
	IdempotencyStateInProgress IdempotencyState = "in_progress"
	IdempotencyStateReplay     IdempotencyState = "replay"
	IdempotencyStateConflict   IdempotencyState = "conflict"
)

// CachedHTTPResponse is the stored outcome of the first request for a key.
type CachedHTTPResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type IdempotencyBeginResult struct {
	State  IdempotencyState
	Cached *CachedHTTPResponse
}

// IdempotencyStore claims a key for one request fingerprint. Begin returns
// New exactly once per live key; the caller then reports the response with
// Complete, or Release if it should not be replayed.
type IdempotencyStore interface {
	Begin(ctx context.Context, scope, key, fingerprint string, ttl time.Duration) (IdempotencyBeginResult, error)
	Complete(ctx context.Context, scope, key, fingerprint string, response CachedHTTPResponse, ttl time.Duration) error
	Release(ctx context.Context, scope, key, fingerprint string) error
}

type idempotencyRecord struct {
	Fingerprint string              `json:"fingerprint"`
	Completed   bool                `json:"completed"`
	Response    *CachedHTTPResponse `json:"response,omitempty"`
	expiresAt   time.Time
}

func (rec idempotencyRecord) resolve(fingerprint string) IdempotencyBeginResult {
	switch {
	case rec.Fingerprint != fingerprint:
		return IdempotencyBeginResult{State: IdempotencyStateConflict}
	case rec.Completed && rec.Response != nil:
		cached := *rec.Response
		cached.Body = append([]byte(nil), rec.Response.Body...)
		return IdempotencyBeginResult{State: IdempotencyStateReplay, Cached: &cached}
	default:
		return IdempotencyBeginResult{State: IdempotencyStateInProgress}
	}
}

type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idempotencyRecord
	now     func() time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{records: make(map[string]idempotencyRecord), now: time.Now}
}

func (s *InMemoryIdempotencyStore) Begin(_ context.Context, scope, key, fingerprint string, ttl time.Duration) (IdempotencyBeginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	id := scope + ":" + key
	if rec, ok := s.records[id]; ok {
		return rec.resolve(fingerprint), nil
	}
	s.records[id] = idempotencyRecord{Fingerprint: fingerprint, expiresAt: now.Add(ttl)}
	return IdempotencyBeginResult{State: IdempotencyStateNew}, nil
}

func (s *InMemoryIdempotencyStore) Complete(_ context.Context, scope, key, fingerprint string, response CachedHTTPResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := scope + ":" + key
	rec, ok := s.records[id]
	if !ok || rec.Fingerprint != fingerprint {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.records[id] = idempotencyRecord{Fingerprint: fingerprint, Completed: true, Response: &response, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, scope, key, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := scope + ":" + key
	if rec, ok := s.records[id]; ok && rec.Fingerprint == fingerprint && !rec.Completed {
		delete(s.records, id)
	}
	return nil
}

func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	for id, rec := range s.records {
		if !now.Before(rec.expiresAt) {
			delete(s.records, id)
		}
	}
}
