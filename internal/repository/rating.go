package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for rating repository operations.
var (
	ErrRatingNotFound = errors.New("rating not found")
)

// UpsertRating stores the user's rating (reactivating it if needed) and
// recomputes the recipe aggregate in the same transaction. The recipe row is
// locked first so concurrent raters recompute one after the other.
func (r *Repository) UpsertRating(ctx context.Context, rating *model.Rating) (*model.RatingSummary, error) {
	var summary *model.RatingSummary

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockRecipe(ctx, tx, rating.RecipeID); err != nil {
			return err
		}

		query := `
			INSERT INTO recipe_ratings (recipe_id, user_id, value, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			ON CONFLICT (recipe_id, user_id) DO UPDATE SET
				value = EXCLUDED.value,
				is_active = TRUE,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.Exec(ctx, query, rating.RecipeID, rating.UserID, rating.Value, rating.UpdatedAt); err != nil {
			if isForeignKeyViolation(err) {
				return ErrRecipeNotFound
			}
			return fmt.Errorf("failed to upsert rating: %w", err)
		}

		var err error
		summary, err = recomputeRating(ctx, tx, rating.RecipeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// DeactivateRating marks the user's rating inactive as of at and recomputes
// the recipe aggregate.
func (r *Repository) DeactivateRating(ctx context.Context, recipeID, userID string, at time.Time) (*model.RatingSummary, error) {
	var summary *model.RatingSummary

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockRecipe(ctx, tx, recipeID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `
			UPDATE recipe_ratings SET is_active = FALSE, updated_at = $3
			WHERE recipe_id = $1 AND user_id = $2 AND is_active
		`, recipeID, userID, at)
		if err != nil {
			return fmt.Errorf("failed to deactivate rating: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrRatingNotFound
		}

		summary, err = recomputeRating(ctx, tx, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// GetRating returns the user's rating for a recipe, active or not.
func (r *Repository) GetRating(ctx context.Context, recipeID, userID string) (*model.Rating, error) {
	query := `
		SELECT recipe_id, user_id, value, is_active, created_at, updated_at
		FROM recipe_ratings
		WHERE recipe_id = $1 AND user_id = $2
	`

	rt, err := scanRating(r.pool.QueryRow(ctx, query, recipeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return rt, nil
}

// ListActiveRatings returns every active rating of a recipe.
func (r *Repository) ListActiveRatings(ctx context.Context, recipeID string) ([]*model.Rating, error) {
	query := `
		SELECT recipe_id, user_id, value, is_active, created_at, updated_at
		FROM recipe_ratings
		WHERE recipe_id = $1 AND is_active
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []*model.Rating{}
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	return ratings, rows.Err()
}

// UpsertRatingRaw stores a rating as-is without recomputing. Used by
// imports, which call RecomputeRating once per recipe afterwards.
func (r *Repository) UpsertRatingRaw(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO recipe_ratings (recipe_id, user_id, value, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (recipe_id, user_id) DO UPDATE SET
			value = EXCLUDED.value,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		rating.RecipeID, rating.UserID, rating.Value, rating.IsActive, rating.CreatedAt, rating.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// RecomputeRating refreshes a recipe's aggregate rating.
func (r *Repository) RecomputeRating(ctx context.Context, recipeID string) (*model.RatingSummary, error) {
	var summary *model.RatingSummary
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockRecipe(ctx, tx, recipeID); err != nil {
			return err
		}
		var err error
		summary, err = recomputeRating(ctx, tx, recipeID)
		return err
	})
	return summary, err
}

// lockRecipe takes the recipe row lock before ratings change. Without it two
// READ COMMITTED transactions each aggregate a snapshot that misses the
// other's rating, and the later UPDATE overwrites the earlier one.
func lockRecipe(ctx context.Context, tx pgx.Tx, recipeID string) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM recipes WHERE id = $1 FOR UPDATE`, recipeID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecipeNotFound
	}
	if err != nil {
		return fmt.Errorf("lock recipe: %w", err)
	}
	return nil
}

func recomputeRating(ctx context.Context, tx pgx.Tx, recipeID string) (*model.RatingSummary, error) {
	query := `
		UPDATE recipes
		SET rating = agg.avg, rating_count = agg.cnt
		FROM (
			SELECT COALESCE(AVG(value), 0)::float8 AS avg, COUNT(*) AS cnt
			FROM recipe_ratings
			WHERE recipe_id = $1 AND is_active
		) agg
		WHERE recipes.id = $1
		RETURNING recipes.rating, recipes.rating_count
	`

	summary := &model.RatingSummary{RecipeID: recipeID}
	if err := tx.QueryRow(ctx, query, recipeID).Scan(&summary.Average, &summary.Count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to recompute rating: %w", err)
	}

	return summary, nil
}

func scanRating(row pgx.Row) (*model.Rating, error) {
	var rt model.Rating
	err := row.Scan(
		&rt.RecipeID,
		&rt.UserID,
		&rt.Value,
		&rt.IsActive,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	return &rt, err
}
