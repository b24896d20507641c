package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for recipe repository operations.
var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrRecipeExists   = errors.New("recipe already exists")
)

// MaxRecipesByIDs caps GetRecipesByIDs lookups.
const MaxRecipesByIDs = 10

const recipeColumns = `id, title, description, image_url, cooking_time, difficulty, servings,
	author_name, creator_user_id, category, ingredients, instructions, tags,
	rating, rating_count, favorite_count, view_count, created_at, updated_at`

// RecipeFilter defines filters for listing recipes.
type RecipeFilter struct {
	CreatorUserID string
	Category      string
	Difficulty    string
	Query         string
}

// CreateRecipe inserts a new recipe into the database.
func (r *Repository) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.pool.Exec(ctx, query, recipeArgs(recipe)...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRecipeExists
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	return nil
}

// UpsertRecipe inserts or replaces a recipe keyed by id. Used by imports.
func (r *Repository) UpsertRecipe(ctx context.Context, recipe *model.Recipe) error {
	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			cooking_time = EXCLUDED.cooking_time,
			difficulty = EXCLUDED.difficulty,
			servings = EXCLUDED.servings,
			author_name = EXCLUDED.author_name,
			category = EXCLUDED.category,
			ingredients = EXCLUDED.ingredients,
			instructions = EXCLUDED.instructions,
			tags = EXCLUDED.tags,
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, recipeArgs(recipe)...); err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}

	return nil
}

// GetRecipeByID retrieves a recipe by its ID.
func (r *Repository) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`

	recipe, err := scanRecipe(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	return recipe, nil
}

// GetRecipesByIDs retrieves up to MaxRecipesByIDs recipes, preserving the
// order of ids. Unknown ids are skipped.
func (r *Repository) GetRecipesByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error) {
	if len(ids) == 0 {
		return []*model.Recipe{}, nil
	}
	if len(ids) > MaxRecipesByIDs {
		ids = ids[:MaxRecipesByIDs]
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = ANY($1)`

	recipes, err := r.queryRecipes(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by IDs: %w", err)
	}

	byID := make(map[string]*model.Recipe, len(recipes))
	for _, rec := range recipes {
		byID[rec.ID] = rec
	}

	ordered := make([]*model.Recipe, 0, len(recipes))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
			delete(byID, id)
		}
	}

	return ordered, nil
}

// ListRecipes retrieves a paginated list of recipes, newest first.
func (r *Repository) ListRecipes(ctx context.Context, filter RecipeFilter, cursor string, limit int) ([]*model.Recipe, string, error) {
	cursorData, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	// Build query with filters
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE TRUE`
	var args []any
	argIndex := 1

	if filter.CreatorUserID != "" {
		query += fmt.Sprintf(" AND creator_user_id = $%d", argIndex)
		args = append(args, filter.CreatorUserID)
		argIndex++
	}

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.Difficulty != "" {
		query += fmt.Sprintf(" AND difficulty = $%d", argIndex)
		args = append(args, filter.Difficulty)
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+escapeLike(q)+"%")
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	recipes, err := r.queryRecipes(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes, next := page(recipes, limit, func(rec *model.Recipe) PaginationCursor {
		return PaginationCursor{ID: rec.ID, CreatedAt: rec.CreatedAt}
	})

	return recipes, next, nil
}

// ListRecipesByTags returns recipes having any of tags, best rated first.
func (r *Repository) ListRecipesByTags(ctx context.Context, tags []string, limit int) ([]*model.Recipe, error) {
	query := `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE tags && $1
		ORDER BY rating DESC, created_at DESC
		LIMIT $2
	`

	recipes, err := r.queryRecipes(ctx, query, tags, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes by tags: %w", err)
	}

	return recipes, nil
}

// ListRecentRecipes returns the newest recipes.
func (r *Repository) ListRecentRecipes(ctx context.Context, limit int) ([]*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes ORDER BY created_at DESC, id DESC LIMIT $1`

	recipes, err := r.queryRecipes(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent recipes: %w", err)
	}

	return recipes, nil
}

// ListAllRecipesByCreator returns every recipe of a user, newest first.
func (r *Repository) ListAllRecipesByCreator(ctx context.Context, userID string) ([]*model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE creator_user_id = $1 ORDER BY created_at DESC, id DESC`

	recipes, err := r.queryRecipes(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes by creator: %w", err)
	}

	return recipes, nil
}

// CountRecipesByCreator counts recipes owned by a user.
func (r *Repository) CountRecipesByCreator(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM recipes WHERE creator_user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// UpdateRecipe updates a recipe's mutable fields.
func (r *Repository) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	query := `
		UPDATE recipes
		SET title = $2, description = $3, image_url = $4, cooking_time = $5, difficulty = $6,
			servings = $7, category = $8, ingredients = $9, instructions = $10, tags = $11,
			updated_at = $12
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		recipe.ID,
		recipe.Title,
		recipe.Description,
		recipe.ImageURL,
		recipe.CookingTime,
		recipe.Difficulty,
		recipe.Servings,
		recipe.Category,
		nonNilStrings(recipe.Ingredients),
		nonNilStrings(recipe.Instructions),
		nonNilStrings(recipe.Tags),
		recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}

	return nil
}

// DeleteRecipe removes a recipe. Comments, ratings and favorites cascade;
// the id is also pulled from every user's saved_recipes.
func (r *Repository) DeleteRecipe(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrRecipeNotFound
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET saved_recipes = array_remove(saved_recipes, $1)
			WHERE $1 = ANY(saved_recipes)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to unlink saved recipe: %w", err)
		}

		return nil
	})
}

func (r *Repository) queryRecipes(ctx context.Context, query string, args ...any) ([]*model.Recipe, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*model.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	return recipes, nil
}

func recipeArgs(recipe *model.Recipe) []any {
	return []any{
		recipe.ID,
		recipe.Title,
		recipe.Description,
		recipe.ImageURL,
		recipe.CookingTime,
		recipe.Difficulty,
		recipe.Servings,
		recipe.AuthorName,
		recipe.CreatorUserID,
		recipe.Category,
		nonNilStrings(recipe.Ingredients),
		nonNilStrings(recipe.Instructions),
		nonNilStrings(recipe.Tags),
		recipe.Rating,
		recipe.RatingCount,
		recipe.FavoriteCount,
		recipe.ViewCount,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	}
}

// scanRecipe scans a single row into a Recipe model.
func scanRecipe(row pgx.Row) (*model.Recipe, error) {
	var recipe model.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		&recipe.Description,
		&recipe.ImageURL,
		&recipe.CookingTime,
		&recipe.Difficulty,
		&recipe.Servings,
		&recipe.AuthorName,
		&recipe.CreatorUserID,
		&recipe.Category,
		&recipe.Ingredients,
		&recipe.Instructions,
		&recipe.Tags,
		&recipe.Rating,
		&recipe.RatingCount,
		&recipe.FavoriteCount,
		&recipe.ViewCount,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	return &recipe, err
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
