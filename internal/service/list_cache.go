package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tooffoundation/site-backend/internal/observability"
)

const (
	ListCacheNamespaceBlogs   = "public.blogs"
	ListCacheNamespaceEvents  = "public.events"
	ListCacheNamespaceGallery = "public.gallery"
)

// ListCache holds serialized public list pages. Writes to the underlying
// content invalidate the whole namespace.
type ListCache interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopListCache struct{}

func NewNoopListCache() *NoopListCache { return &NoopListCache{} }

func (NoopListCache) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopListCache) Set(context.Context, string, string, []byte, time.Duration) error { return nil }

func (NoopListCache) InvalidateNamespace(context.Context, string) error { return nil }

type listCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemoryListCache struct {
	mu    sync.Mutex
	items map[string]map[string]listCacheEntry
	now   func() time.Time
}

func NewInMemoryListCache() *InMemoryListCache {
	return &InMemoryListCache{items: make(map[string]map[string]listCacheEntry), now: time.Now}
}

func (c *InMemoryListCache) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[namespace][key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.items[namespace], key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (c *InMemoryListCache) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.items[namespace]
	if !ok {
		ns = make(map[string]listCacheEntry)
		c.items[namespace] = ns
	}
	ns[key] = listCacheEntry{payload: append([]byte(nil), value...), expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *InMemoryListCache) InvalidateNamespace(_ context.Context, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, namespace)
	return nil
}

// cachedList serves load() through the cache. Cache errors degrade to a
// direct load.
func cachedList[T any](ctx context.Context, cache ListCache, ttl time.Duration, namespace, key string, load func() (T, error)) (T, error) {
	if cache == nil || ttl <= 0 {
		return load()
	}
	if raw, ok, err := cache.Get(ctx, namespace, key); err == nil && ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			observability.RecordListCacheEvent(ctx, namespace, "hit")
			return out, nil
		}
	} else if err != nil {
		observability.RecordListCacheEvent(ctx, namespace, "error")
	}
	observability.RecordListCacheEvent(ctx, namespace, "miss")

	out, err := load()
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := cache.Set(ctx, namespace, key, raw, ttl); err != nil {
			observability.RecordListCacheEvent(ctx, namespace, "error")
		}
	}
	return out, nil
}

func invalidateList(ctx context.Context, cache ListCache, namespace string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateNamespace(ctx, namespace); err != nil {
		observability.RecordListCacheEvent(ctx, namespace, "error")
		return
	}
	observability.RecordListCacheEvent(ctx, namespace, "invalidate")
}
