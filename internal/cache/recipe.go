package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recipevault/recipevault/internal/model"
)

// Cache key prefixes and TTLs.
const (
	recipeKeyPrefix   = "recipe:"
	negCacheKeySuffix = ":neg"

	// DefaultRecipeTTL is the TTL for cached recipe data.
	DefaultRecipeTTL = 1 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetRecipe retrieves a recipe from cache by id.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	key := recipeKeyPrefix + id

	cmd := c.client.HGetAll(ctx, key)
	result, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	var cached model.CachedRecipe
	if err := cmd.Scan(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached recipe: %w", err)
	}

	return cached.ToRecipe(id), nil
}

// SetRecipe stores a recipe in cache.
func (c *Cache) SetRecipe(ctx context.Context, recipe *model.Recipe) error {
	key := recipeKeyPrefix + recipe.ID

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, recipe.ToCachedRecipe())
	pipe.Expire(ctx, key, DefaultRecipeTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache recipe: %w", err)
	}

	return nil
}

// DeleteRecipe removes a recipe and its negative cache entry.
func (c *Cache) DeleteRecipe(ctx context.Context, id string) error {
	key := recipeKeyPrefix + id

	if err := c.client.Del(ctx, key, key+negCacheKeySuffix).Err(); err != nil {
		return fmt.Errorf("failed to delete recipe from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a recipe id is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	key := recipeKeyPrefix + id + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a recipe id as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	key := recipeKeyPrefix + id + negCacheKeySuffix

	if err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
