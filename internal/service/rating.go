package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipevault/recipevault/internal/events"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// RatingStore persists ratings and recomputes recipe averages.
type RatingStore interface {
	UpsertRating(ctx context.Context, rating *model.Rating) (*model.RatingSummary, error)
	DeactivateRating(ctx context.Context, recipeID, userID string, at time.Time) (*model.RatingSummary, error)
	GetRating(ctx context.Context, recipeID, userID string) (*model.Rating, error)
	ListActiveRatings(ctx context.Context, recipeID string) ([]*model.Rating, error)
}

// RecipeInvalidator drops cached recipe copies after aggregate changes.
type RecipeInvalidator interface {
	DeleteRecipe(ctx context.Context, id string) error
}

// RatingService handles recipe ratings.
type RatingService struct {
	store  RatingStore
	cache  RecipeInvalidator
	events events.Emitter
	logger *slog.Logger
	now    func() time.Time
}

// NewRatingService creates a new RatingService. emitter may be nil.
func NewRatingService(store RatingStore, recipeCache RecipeInvalidator, emitter events.Emitter, logger *slog.Logger) *RatingService {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &RatingService{
		store:  store,
		cache:  recipeCache,
		events: emitter,
		logger: logger.With("component", "ratings"),
		now:    defaultNow,
	}
}

// Rate stores or replaces the user's rating and returns the new aggregate.
// An inactive rating is reactivated.
func (s *RatingService) Rate(ctx context.Context, userID, recipeID string, value int) (*model.RatingSummary, error) {
	if !model.IsValidRating(value) {
		return nil, ErrInvalidRating
	}

	now := s.now()
	summary, err := s.store.UpsertRating(ctx, &model.Rating{
		RecipeID:  recipeID,
		UserID:    userID,
		Value:     value,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	s.invalidate(ctx, recipeID)
	s.events.Emit(model.EventRecipeRated, recipeID, userID)
	return summary, nil
}

// GetRecipeRatings returns the active ratings of a recipe.
func (s *RatingService) GetRecipeRatings(ctx context.Context, recipeID string) ([]*model.Rating, error) {
	ratings, err := s.store.ListActiveRatings(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// GetMyRating returns the caller's active rating.
func (s *RatingService) GetMyRating(ctx context.Context, userID, recipeID string) (*model.Rating, error) {
	rating, err := s.store.GetRating(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	if !rating.IsActive {
		return nil, ErrRatingNotFound
	}
	return rating, nil
}

// RemoveRating deactivates the caller's rating and returns the new aggregate.
func (s *RatingService) RemoveRating(ctx context.Context, userID, recipeID string) (*model.RatingSummary, error) {
	summary, err := s.store.DeactivateRating(ctx, recipeID, userID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) || errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("deactivate rating: %w", err)
	}

	s.invalidate(ctx, recipeID)
	return summary, nil
}

func (s *RatingService) invalidate(ctx context.Context, recipeID string) {
	if err := s.cache.DeleteRecipe(ctx, recipeID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate recipe cache", "recipe_id", recipeID, "error", err)
	}
}
