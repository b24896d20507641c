package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// AddFavorite records a favorite, appends the recipe to the user's
// saved_recipes and bumps the recipe counter. Adding an existing favorite
// is a no-op; added reports whether a row was inserted.
func (r *Repository) AddFavorite(ctx context.Context, userID, recipeID string, at time.Time) (bool, error) {
	var added bool

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			INSERT INTO user_favorites (user_id, recipe_id, added_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, recipe_id) DO NOTHING
		`, userID, recipeID, at)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrRecipeNotFound
			}
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
		added = result.RowsAffected() > 0
		if !added {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			UPDATE users SET saved_recipes = array_append(saved_recipes, $2)
			WHERE id = $1 AND NOT ($2 = ANY(saved_recipes))
		`, userID, recipeID); err != nil {
			return fmt.Errorf("failed to update saved recipes: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE recipes SET favorite_count = favorite_count + 1 WHERE id = $1`, recipeID); err != nil {
			return fmt.Errorf("failed to update favorite count: %w", err)
		}

		return nil
	})

	return added, err
}

// RemoveFavorite deletes a favorite and reverses AddFavorite's side
// effects. removed reports whether a row existed.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	var removed bool

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM user_favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
		if err != nil {
			return fmt.Errorf("failed to delete favorite: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE users SET saved_recipes = array_remove(saved_recipes, $2)
			WHERE id = $1
		`, userID, recipeID); err != nil {
			return fmt.Errorf("failed to update saved recipes: %w", err)
		}

		removed = result.RowsAffected() > 0
		if !removed {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			UPDATE recipes SET favorite_count = GREATEST(favorite_count - 1, 0) WHERE id = $1
		`, recipeID); err != nil {
			return fmt.Errorf("failed to update favorite count: %w", err)
		}

		return nil
	})

	return removed, err
}

// IsFavorite checks whether the user has favorited the recipe.
func (r *Repository) IsFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_favorites WHERE user_id = $1 AND recipe_id = $2)`,
		userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// ListFavoriteIDs returns the user's favorite recipe ids, newest first.
func (r *Repository) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT recipe_id FROM user_favorites WHERE user_id = $1 ORDER BY added_at DESC, recipe_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect favorites: %w", err)
	}

	return ids, nil
}

// CountFavorites counts the user's favorites.
func (r *Repository) CountFavorites(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_favorites WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}

// UpsertFavorite stores an imported favorite. It leaves favorite_count and
// saved_recipes alone: imported recipe and user documents already carry them.
func (r *Repository) UpsertFavorite(ctx context.Context, fav *model.Favorite) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_favorites (user_id, recipe_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, recipe_id) DO NOTHING
	`, fav.UserID, fav.RecipeID, fav.AddedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to upsert favorite: %w", err)
	}
	return nil
}
