package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
)

// Snapshot cache keys. Clients poll collections on an interval; every
// lifecycle write invalidates the affected prefixes so the next poll
// re-reads server truth.
const (
	CacheKeyLines        = "sync:lines"
	CacheKeyFaults       = "sync:faults"
	CacheKeyLineRequests = "sync:line-requests"
)

// CacheRepository provides helpers around Redis interactions for
// collection snapshots served to polling clients.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r == nil || r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Invalidate removes cached snapshots under the given key prefixes.
func (r *CacheRepository) Invalidate(ctx context.Context, prefixes ...string) {
	if r == nil || r.client == nil {
		return
	}

	for _, prefix := range prefixes {
		pattern := prefix + "*"
		iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := r.client.Del(ctx, iter.Val()).Err(); err != nil && r.logger != nil {
				r.logger.Warn("failed to invalidate cache key", zap.String("key", iter.Val()), zap.Error(err))
			}
		}
		if err := iter.Err(); err != nil && r.logger != nil {
			r.logger.Warn("cache invalidation scan failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
