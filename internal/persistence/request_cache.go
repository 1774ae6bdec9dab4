package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/verification-service/internal/domain"
)

const requestCachePrefix = "verification:request:"

// RequestCache is a redis-backed read-through cache of request snapshots.
// Entries are invalidated on every write, so a stale read is bounded by
// the TTL.
type RequestCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRequestCache wraps a redis client. A nil client disables caching.
func NewRequestCache(client *redis.Client, ttl time.Duration) *RequestCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RequestCache{client: client, ttl: ttl}
}

// Get returns the cached request snapshot, or (nil, false) on a miss.
func (c *RequestCache) Get(ctx context.Context, requestID string) (*domain.Request, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, requestCachePrefix+requestID).Bytes()
	if err != nil {
		return nil, false
	}
	var request domain.Request
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, false
	}
	return &request, true
}

// Set stores a request snapshot. Failures are ignored; the cache is an
// optimization, not a source of truth.
func (c *RequestCache) Set(ctx context.Context, request *domain.Request) {
	if c == nil || c.client == nil || request == nil {
		return
	}
	raw, err := json.Marshal(request)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, requestCachePrefix+request.ID, raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot for a request.
func (c *RequestCache) Invalidate(ctx context.Context, requestID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, requestCachePrefix+requestID).Err()
}
