package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recipevault/recipevault/internal/cache"
	"github.com/recipevault/recipevault/internal/events"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// Listing bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// BasicSearchMaxResults is the largest search page available without
	// the advanced_search feature.
	BasicSearchMaxResults = 20

	DefaultStatsDays = 7
	MaxStatsDays     = 90
)

// RecipeStore persists recipes.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error)
	GetRecipesByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error)
	ListRecipes(ctx context.Context, filter repository.RecipeFilter, cursor string, limit int) ([]*model.Recipe, string, error)
	ListRecipesByTags(ctx context.Context, tags []string, limit int) ([]*model.Recipe, error)
	ListRecentRecipes(ctx context.Context, limit int) ([]*model.Recipe, error)
	ListAllRecipesByCreator(ctx context.Context, userID string) ([]*model.Recipe, error)
	CountRecipesByCreator(ctx context.Context, userID string) (int, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RecipeCache is the read-through cache for single recipes.
type RecipeCache interface {
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	SetRecipe(ctx context.Context, recipe *model.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// StatsReader reads aggregated engagement counters.
type StatsReader interface {
	GetDailyStats(ctx context.Context, recipeID string, from, to time.Time) ([]model.DailyRecipeStats, error)
}

// RecipeService handles recipe business logic.
type RecipeService struct {
	store   RecipeStore
	cache   RecipeCache
	stats   StatsReader
	premium PremiumChecker
	events  events.Emitter
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewRecipeService creates a new RecipeService. emitter may be nil.
func NewRecipeService(
	store RecipeStore,
	recipeCache RecipeCache,
	stats StatsReader,
	premium PremiumChecker,
	emitter events.Emitter,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *RecipeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &RecipeService{
		store:   store,
		cache:   recipeCache,
		stats:   stats,
		premium: premium,
		events:  emitter,
		logger:  logger.With("component", "recipes"),
		metrics: recorder,
		now:     defaultNow,
	}
}

// RecipePage is one page of a cursor-paginated listing.
type RecipePage struct {
	Recipes    []*model.Recipe
	NextCursor string
}

// CreateRecipeInput defines input for creating a recipe.
type CreateRecipeInput struct {
	Title        string
	Description  string
	ImageURL     string
	CookingTime  string
	Difficulty   string
	Servings     int
	Category     string
	Ingredients  []string
	Instructions []string
}

// Create validates and stores a new recipe owned by userID.
func (s *RecipeService) Create(ctx context.Context, userID string, input CreateRecipeInput) (*model.Recipe, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	difficulty := model.Difficulty(input.Difficulty)
	if difficulty != "" && !difficulty.IsValid() {
		return nil, ErrInvalidDifficulty
	}

	if err := s.checkCreatedLimit(ctx, userID); err != nil {
		return nil, err
	}

	author, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	now := s.now()
	recipe := &model.Recipe{
		ID:            ulid.Make().String(),
		Title:         title,
		Description:   description,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		CookingTime:   strings.TrimSpace(input.CookingTime),
		Difficulty:    difficulty,
		Servings:      input.Servings,
		AuthorName:    author.Username,
		CreatorUserID: userID,
		Category:      strings.TrimSpace(input.Category),
		Ingredients:   input.Ingredients,
		Instructions:  input.Instructions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	recipe.ApplyDefaults()

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.metrics.IncRecipeCreated()
	return recipe, nil
}

func (s *RecipeService) checkCreatedLimit(ctx context.Context, userID string) error {
	limit := model.FeatureLimit(model.LimitCreatedRecipes, s.premium.IsPremiumUser(ctx, userID))
	if limit == model.Unlimited {
		return nil
	}

	count, err := s.store.CountRecipesByCreator(ctx, userID)
	if err != nil {
		return fmt.Errorf("count recipes: %w", err)
	}
	if count >= limit {
		return ErrRecipeLimitReached
	}
	return nil
}

// Get returns a recipe through the cache and records a view.
func (s *RecipeService) Get(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	recipe, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.Emit(model.EventRecipeViewed, recipe.ID, viewerID)
	return recipe, nil
}

func (s *RecipeService) lookup(ctx context.Context, id string) (*model.Recipe, error) {
	if neg, err := s.cache.IsNegativelyCached(ctx, id); err == nil && neg {
		return nil, ErrRecipeNotFound
	}

	recipe, err := s.cache.GetRecipe(ctx, id)
	if err == nil {
		s.metrics.IncRecipeCacheHit()
		return recipe, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "recipe cache read failed", "recipe_id", id, "error", err)
	}
	s.metrics.IncRecipeCacheMiss()

	recipe, err = s.store.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			if err := s.cache.SetNegativeCache(ctx, id); err != nil {
				s.logger.WarnContext(ctx, "failed to set negative cache", "recipe_id", id, "error", err)
			}
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if err := s.cache.SetRecipe(ctx, recipe); err != nil {
		s.logger.WarnContext(ctx, "failed to cache recipe", "recipe_id", id, "error", err)
	}

	return recipe, nil
}

// List returns all recipes, newest first.
func (s *RecipeService) List(ctx context.Context, cursor string, limit int) (*RecipePage, error) {
	return s.listPage(ctx, repository.RecipeFilter{}, cursor, limit)
}

// ListByCategory returns recipes in category, newest first.
func (s *RecipeService) ListByCategory(ctx context.Context, category, cursor string, limit int) (*RecipePage, error) {
	return s.listPage(ctx, repository.RecipeFilter{Category: category}, cursor, limit)
}

// ListByUser returns recipes created by userID, newest first.
func (s *RecipeService) ListByUser(ctx context.Context, userID, cursor string, limit int) (*RecipePage, error) {
	return s.listPage(ctx, repository.RecipeFilter{CreatorUserID: userID}, cursor, limit)
}

// ListRecent returns the newest recipes.
func (s *RecipeService) ListRecent(ctx context.Context, limit int) ([]*model.Recipe, error) {
	recipes, err := s.store.ListRecentRecipes(ctx, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent recipes: %w", err)
	}
	return recipes, nil
}

// ListByTags returns recipes having any of tags, best rated first.
func (s *RecipeService) ListByTags(ctx context.Context, tags []string, limit int) ([]*model.Recipe, error) {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		return []*model.Recipe{}, nil
	}

	recipes, err := s.store.ListRecipesByTags(ctx, normalized, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list recipes by tags: %w", err)
	}
	return recipes, nil
}

// SearchInput defines a recipe search. Difficulty or a page larger than
// BasicSearchMaxResults requires the advanced_search feature.
type SearchInput struct {
	Query      string
	Category   string
	Difficulty string
	Cursor     string
	Limit      int
}

// Search matches recipes by title or description, case-insensitively.
func (s *RecipeService) Search(ctx context.Context, userID string, input SearchInput) (*RecipePage, error) {
	if input.Difficulty != "" && !model.Difficulty(input.Difficulty).IsValid() {
		return nil, ErrInvalidDifficulty
	}

	advanced := input.Difficulty != "" || input.Limit > BasicSearchMaxResults
	if advanced && !model.HasFeatureAccess(model.FeatureAdvancedSearch, s.premium.IsPremiumUser(ctx, userID)) {
		return nil, ErrFeatureNotAvailable
	}

	filter := repository.RecipeFilter{
		Category:   input.Category,
		Difficulty: input.Difficulty,
		Query:      input.Query,
	}
	return s.listPage(ctx, filter, input.Cursor, input.Limit)
}

func (s *RecipeService) listPage(ctx context.Context, filter repository.RecipeFilter, cursor string, limit int) (*RecipePage, error) {
	recipes, next, err := s.store.ListRecipes(ctx, filter, cursor, normalizeLimit(limit))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if recipes == nil {
		recipes = []*model.Recipe{}
	}
	return &RecipePage{Recipes: recipes, NextCursor: next}, nil
}

// GetByIDs resolves up to repository.MaxRecipesByIDs recipes in the
// given order. Unknown ids are skipped.
func (s *RecipeService) GetByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error) {
	if len(ids) > repository.MaxRecipesByIDs {
		return nil, ErrTooManyIDs
	}
	recipes, err := s.store.GetRecipesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get recipes by ids: %w", err)
	}
	return recipes, nil
}

// GetRecipeByID reads a recipe without recording a view.
func (s *RecipeService) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	return s.lookup(ctx, id)
}

// GetRecipesByIDs satisfies RecipeReader.
func (s *RecipeService) GetRecipesByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error) {
	return s.GetByIDs(ctx, ids)
}

// UpdateRecipeInput holds optional recipe changes. Nil fields are left as is.
type UpdateRecipeInput struct {
	Title        *string
	Description  *string
	ImageURL     *string
	CookingTime  *string
	Difficulty   *string
	Servings     *int
	Category     *string
	Ingredients  []string
	Instructions []string
}

// Update applies a partial update. Only the creator or an admin may edit.
func (s *RecipeService) Update(ctx context.Context, caller *model.AuthContext, id string, input UpdateRecipeInput) (*model.Recipe, error) {
	recipe, err := s.loadForWrite(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		recipe.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, ErrDescriptionRequired
		}
		recipe.Description = description
	}
	if input.Difficulty != nil {
		d := model.Difficulty(*input.Difficulty)
		if !d.IsValid() {
			return nil, ErrInvalidDifficulty
		}
		recipe.Difficulty = d
	}
	if input.ImageURL != nil {
		recipe.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.CookingTime != nil {
		recipe.CookingTime = strings.TrimSpace(*input.CookingTime)
	}
	if input.Servings != nil {
		recipe.Servings = *input.Servings
	}
	if input.Category != nil {
		recipe.Category = strings.TrimSpace(*input.Category)
	}
	if input.Ingredients != nil {
		recipe.Ingredients = input.Ingredients
	}
	if input.Instructions != nil {
		recipe.Instructions = input.Instructions
	}

	recipe.ApplyDefaults()
	recipe.UpdatedAt = s.now()

	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.invalidate(ctx, id)
	s.metrics.IncRecipeUpdated()
	return recipe, nil
}

// Delete removes a recipe with its comments, ratings and favorites.
func (s *RecipeService) Delete(ctx context.Context, caller *model.AuthContext, id string) error {
	if _, err := s.loadForWrite(ctx, caller, id); err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	s.invalidate(ctx, id)
	s.metrics.IncRecipeDeleted()
	s.logger.InfoContext(ctx, "recipe deleted", "recipe_id", id, "by", caller.UserID)
	return nil
}

func (s *RecipeService) loadForWrite(ctx context.Context, caller *model.AuthContext, id string) (*model.Recipe, error) {
	recipe, err := s.store.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	if !recipe.IsOwnedBy(caller.UserID) && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return recipe, nil
}

func (s *RecipeService) invalidate(ctx context.Context, id string) {
	if err := s.cache.DeleteRecipe(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate recipe cache", "recipe_id", id, "error", err)
	}
}

// Export returns every recipe created by userID. Requires export_recipes.
func (s *RecipeService) Export(ctx context.Context, userID string) ([]*model.Recipe, error) {
	if !model.HasFeatureAccess(model.FeatureExportRecipes, s.premium.IsPremiumUser(ctx, userID)) {
		return nil, ErrFeatureNotAvailable
	}

	recipes, err := s.store.ListAllRecipesByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("export recipes: %w", err)
	}
	if recipes == nil {
		recipes = []*model.Recipe{}
	}
	return recipes, nil
}

// Stats returns daily engagement counters for the last days days,
// including today. Days without activity are reported as zeros.
func (s *RecipeService) Stats(ctx context.Context, id string, days int) (*model.RecipeStatsResponse, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return nil, err
	}

	if days <= 0 {
		days = DefaultStatsDays
	}
	if days > MaxStatsDays {
		days = MaxStatsDays
	}

	now := s.now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -(days - 1))

	rows, err := s.stats.GetDailyStats(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}

	byDate := make(map[string]model.DailyRecipeStats, len(rows))
	for _, row := range rows {
		byDate[row.Date.UTC().Format(time.DateOnly)] = row
	}

	resp := &model.RecipeStatsResponse{
		RecipeID:    id,
		Totals:      model.DailyRecipeStats{RecipeID: id},
		Daily:       make([]model.DailyRecipeStats, 0, days),
		GeneratedAt: now,
	}
	resp.Period.From = from.Format(time.DateOnly)
	resp.Period.To = to.Format(time.DateOnly)

	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		day, ok := byDate[d.Format(time.DateOnly)]
		if !ok {
			day = model.DailyRecipeStats{RecipeID: id}
		}
		day.Date = d

		resp.Totals.Views += day.Views
		resp.Totals.Favorites += day.Favorites
		resp.Totals.Unfavorites += day.Unfavorites
		resp.Totals.Comments += day.Comments
		resp.Totals.Ratings += day.Ratings
		resp.Daily = append(resp.Daily, day)
	}

	return resp, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
