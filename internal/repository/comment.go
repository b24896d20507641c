package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for comment repository operations.
var (
	ErrCommentNotFound = errors.New("comment not found")
)

const commentColumns = `id, recipe_id, user_id, username, user_avatar_url, text, rating,
	like_count, liked_user_ids, created_at`

// CreateComment inserts a comment under a recipe.
func (r *Repository) CreateComment(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO recipe_comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.RecipeID,
		c.UserID,
		c.Username,
		c.UserAvatarURL,
		c.Text,
		c.Rating,
		len(c.LikedUserIDs),
		nonNilStrings(c.LikedUserIDs),
		c.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetComment retrieves a comment scoped to its recipe.
func (r *Repository) GetComment(ctx context.Context, recipeID, commentID string) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM recipe_comments WHERE recipe_id = $1 AND id = $2`

	c, err := scanComment(r.pool.QueryRow(ctx, query, recipeID, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return c, nil
}

// ListComments returns a page of comments for a recipe, newest first.
func (r *Repository) ListComments(ctx context.Context, recipeID, cursor string, limit int) ([]*model.Comment, string, error) {
	cursorData, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := `SELECT ` + commentColumns + ` FROM recipe_comments WHERE recipe_id = $1`
	args := []any{recipeID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating comments: %w", err)
	}

	comments, next := page(comments, limit, func(c *model.Comment) PaginationCursor {
		return PaginationCursor{ID: c.ID, CreatedAt: c.CreatedAt}
	})

	return comments, next, nil
}

// ToggleCommentLike adds or removes userID from the comment's likes in a
// single statement and returns the resulting state.
func (r *Repository) ToggleCommentLike(ctx context.Context, recipeID, commentID, userID string) (*model.LikeResult, error) {
	query := `
		UPDATE recipe_comments
		SET liked_user_ids = CASE
				WHEN $3::text = ANY(liked_user_ids) THEN array_remove(liked_user_ids, $3::text)
				ELSE array_append(liked_user_ids, $3::text)
			END,
			like_count = CASE
				WHEN $3::text = ANY(liked_user_ids) THEN like_count - 1
				ELSE like_count + 1
			END
		WHERE recipe_id = $1 AND id = $2
		RETURNING $3::text = ANY(liked_user_ids), like_count
	`

	res := &model.LikeResult{CommentID: commentID}
	err := r.pool.QueryRow(ctx, query, recipeID, commentID, userID).Scan(&res.Liked, &res.LikeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to toggle comment like: %w", err)
	}

	return res, nil
}

// DeleteComment removes a comment.
func (r *Repository) DeleteComment(ctx context.Context, recipeID, commentID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM recipe_comments WHERE recipe_id = $1 AND id = $2`, recipeID, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// scanComment scans a single row into a Comment model.
func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	err := row.Scan(
		&c.ID,
		&c.RecipeID,
		&c.UserID,
		&c.Username,
		&c.UserAvatarURL,
		&c.Text,
		&c.Rating,
		&c.LikeCount,
		&c.LikedUserIDs,
		&c.CreatedAt,
	)
	return &c, err
}
