package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// resetTokenPrefix is the Redis key prefix for password reset tokens.
	resetTokenPrefix = "pwreset:"

	// PasswordResetTTL is how long a reset token stays valid.
	PasswordResetTTL = 1 * time.Hour
)

// StoreResetToken maps a reset token hash to a user id.
func (c *Cache) StoreResetToken(ctx context.Context, tokenHash, userID string) error {
	if err := c.client.Set(ctx, resetTokenPrefix+tokenHash, userID, PasswordResetTTL).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken returns the user id for a reset token hash and deletes
// it. Returns ErrCacheMiss if the token is unknown or expired.
func (c *Cache) ConsumeResetToken(ctx context.Context, tokenHash string) (string, error) {
	userID, err := c.client.GetDel(ctx, resetTokenPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
