package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/recipevault/recipevault/internal/model"
)

const (
	// sessionCachePrefix is the Redis key prefix for session lookups.
	sessionCachePrefix = "session:"
	// sessionCacheTTL bounds how long a revocation can go unnoticed if a
	// delete is lost.
	sessionCacheTTL = 5 * time.Minute
)

// GetSession retrieves a cached session by id.
// Returns nil if not found (cache miss).
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*model.CachedSession, error) {
	cmd := c.client.HGetAll(ctx, sessionCachePrefix+sessionID)
	result, err := cmd.Result()
	if err != nil || len(result) == 0 {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached model.CachedSession
	if err := cmd.Scan(&cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &cached, nil
}

// SetSession caches a session lookup.
func (c *Cache) SetSession(ctx context.Context, sessionID string, cached *model.CachedSession) error {
	key := sessionCachePrefix + sessionID

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, cached)
	pipe.Expire(ctx, key, sessionCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

// DeleteSessions removes cached sessions. Used on sign-out and password reset.
func (c *Cache) DeleteSessions(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = sessionCachePrefix + id
	}
	return c.client.Del(ctx, keys...).Err()
}
