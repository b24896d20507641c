package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// RecipeEventRepository provides database access for recipe engagement events.
type RecipeEventRepository struct {
	repo *Repository
}

// NewRecipeEventRepository creates a new RecipeEventRepository.
func NewRecipeEventRepository(repo *Repository) *RecipeEventRepository {
	return &RecipeEventRepository{repo: repo}
}

// IngestBatch inserts events idempotently and folds the newly inserted ones
// into recipe_daily_stats in a single transaction. Either both land or
// neither does, so a replayed batch never finds its rows stored without
// their counters. Replayed stream entries are skipped by ON CONFLICT.
func (r *RecipeEventRepository) IngestBatch(ctx context.Context, events []*model.RecipeEvent) ([]*model.RecipeEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	var inserted []*model.RecipeEvent
	err := r.repo.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := insertEvents(ctx, tx, events)
		if err != nil {
			return err
		}
		if err := applyDailyStats(ctx, tx, rows); err != nil {
			return err
		}
		inserted = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func insertEvents(ctx context.Context, tx pgx.Tx, events []*model.RecipeEvent) ([]*model.RecipeEvent, error) {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO recipe_events (id, event_id, type, recipe_id, user_id, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.Type,
			event.RecipeID,
			event.UserID,
			event.OccurredAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	inserted := make([]*model.RecipeEvent, 0, len(events))
	for i, event := range events {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return nil, fmt.Errorf("batch insert event %d: %w", i, err)
		}
		if tag.RowsAffected() > 0 {
			inserted = append(inserted, event)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close insert batch: %w", err)
	}

	return inserted, nil
}

// applyDailyStats bumps recipe_daily_stats and recipes.view_count for views.
func applyDailyStats(ctx context.Context, tx pgx.Tx, events []*model.RecipeEvent) error {
	for _, d := range accumulateDailyStats(events) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO recipe_daily_stats (recipe_id, date, views, favorites, unfavorites, comments, ratings)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (recipe_id, date) DO UPDATE SET
				views = recipe_daily_stats.views + EXCLUDED.views,
				favorites = recipe_daily_stats.favorites + EXCLUDED.favorites,
				unfavorites = recipe_daily_stats.unfavorites + EXCLUDED.unfavorites,
				comments = recipe_daily_stats.comments + EXCLUDED.comments,
				ratings = recipe_daily_stats.ratings + EXCLUDED.ratings
		`, d.RecipeID, d.Date, d.Views, d.Favorites, d.Unfavorites, d.Comments, d.Ratings); err != nil {
			return fmt.Errorf("upsert daily stat %s:%s: %w", d.RecipeID, d.Date.Format("2006-01-02"), err)
		}

		if d.Views > 0 {
			if _, err := tx.Exec(ctx,
				`UPDATE recipes SET view_count = view_count + $2 WHERE id = $1`,
				d.RecipeID, d.Views,
			); err != nil {
				return fmt.Errorf("bump view count %s: %w", d.RecipeID, err)
			}
		}
	}
	return nil
}

// accumulateDailyStats groups events by recipe and UTC day.
func accumulateDailyStats(events []*model.RecipeEvent) []*model.DailyRecipeStats {
	index := make(map[string]*model.DailyRecipeStats)
	var order []string

	for _, event := range events {
		day := event.OccurredAt.UTC().Truncate(24 * time.Hour)
		key := event.RecipeID + ":" + day.Format("2006-01-02")

		acc, ok := index[key]
		if !ok {
			acc = &model.DailyRecipeStats{RecipeID: event.RecipeID, Date: day}
			index[key] = acc
			order = append(order, key)
		}

		switch event.Type {
		case model.EventRecipeViewed:
			acc.Views++
		case model.EventRecipeFavorited:
			acc.Favorites++
		case model.EventRecipeUnfavorited:
			acc.Unfavorites++
		case model.EventRecipeCommented:
			acc.Comments++
		case model.EventRecipeRated:
			acc.Ratings++
		}
	}

	stats := make([]*model.DailyRecipeStats, 0, len(order))
	for _, key := range order {
		stats = append(stats, index[key])
	}
	return stats
}

// GetDailyStats retrieves daily stats for a recipe within a date range, newest first.
func (r *RecipeEventRepository) GetDailyStats(ctx context.Context, recipeID string, from, to time.Time) ([]model.DailyRecipeStats, error) {
	query := `
		SELECT recipe_id, date, views, favorites, unfavorites, comments, ratings
		FROM recipe_daily_stats
		WHERE recipe_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC
	`

	rows, err := r.repo.pool.Query(ctx, query, recipeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []model.DailyRecipeStats
	for rows.Next() {
		var s model.DailyRecipeStats
		if err := rows.Scan(&s.RecipeID, &s.Date, &s.Views, &s.Favorites, &s.Unfavorites, &s.Comments, &s.Ratings); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
