package cache

import (
	"context"
	"fmt"
)

// favoritesKeyPrefix is the Redis key prefix for per-user local favorite sets.
const favoritesKeyPrefix = "fav:"

// AddLocalFavorite sets the local favorite flag for a recipe.
func (c *Cache) AddLocalFavorite(ctx context.Context, userID, recipeID string) error {
	if err := c.client.SAdd(ctx, favoritesKeyPrefix+userID, recipeID).Err(); err != nil {
		return fmt.Errorf("failed to add local favorite: %w", err)
	}
	return nil
}

// RemoveLocalFavorite clears the local favorite flag for a recipe.
func (c *Cache) RemoveLocalFavorite(ctx context.Context, userID, recipeID string) error {
	if err := c.client.SRem(ctx, favoritesKeyPrefix+userID, recipeID).Err(); err != nil {
		return fmt.Errorf("failed to remove local favorite: %w", err)
	}
	return nil
}

// IsLocalFavorite reports the local favorite flag for a recipe.
func (c *Cache) IsLocalFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, favoritesKeyPrefix+userID, recipeID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check local favorite: %w", err)
	}
	return ok, nil
}

// ListLocalFavorites returns every recipe id flagged locally.
func (c *Cache) ListLocalFavorites(ctx context.Context, userID string) ([]string, error) {
	ids, err := c.client.SMembers(ctx, favoritesKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list local favorites: %w", err)
	}
	return ids, nil
}

// MarkLocalFavorites flags every id in one round trip.
func (c *Cache) MarkLocalFavorites(ctx context.Context, userID string, recipeIDs []string) error {
	if len(recipeIDs) == 0 {
		return nil
	}

	members := make([]any, len(recipeIDs))
	for i, id := range recipeIDs {
		members[i] = id
	}

	if err := c.client.SAdd(ctx, favoritesKeyPrefix+userID, members...).Err(); err != nil {
		return fmt.Errorf("failed to mark local favorites: %w", err)
	}
	return nil
}
