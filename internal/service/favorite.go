package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/recipevault/recipevault/internal/events"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// FavoriteStore is the remote, authoritative favorites record.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, userID, recipeID string, at time.Time) (bool, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	IsFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	ListFavoriteIDs(ctx context.Context, userID string) ([]string, error)
	CountFavorites(ctx context.Context, userID string) (int, error)
}

// LocalFavorites is the fast per-user favorites set.
type LocalFavorites interface {
	AddLocalFavorite(ctx context.Context, userID, recipeID string) error
	RemoveLocalFavorite(ctx context.Context, userID, recipeID string) error
	IsLocalFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	ListLocalFavorites(ctx context.Context, userID string) ([]string, error)
	MarkLocalFavorites(ctx context.Context, userID string, recipeIDs []string) error
}

// FavoriteService keeps the local and remote favorites in step. Writes go
// local first, then remote; a remote failure is returned as is and the
// local flag is left set until the next Sync.
type FavoriteService struct {
	remote  FavoriteStore
	local   LocalFavorites
	recipes RecipeReader
	cache   RecipeInvalidator
	premium PremiumChecker
	events  events.Emitter
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewFavoriteService creates a new FavoriteService. emitter may be nil.
func NewFavoriteService(
	remote FavoriteStore,
	local LocalFavorites,
	recipes RecipeReader,
	recipeCache RecipeInvalidator,
	premium PremiumChecker,
	emitter events.Emitter,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *FavoriteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &FavoriteService{
		remote:  remote,
		local:   local,
		recipes: recipes,
		cache:   recipeCache,
		premium: premium,
		events:  emitter,
		logger:  logger.With("component", "favorites"),
		metrics: recorder,
		now:     defaultNow,
	}
}

// Add favorites a recipe. Free users are limited to the saved_recipes quota.
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	already, err := s.remote.IsFavorite(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("check favorite: %w", err)
	}

	if !already {
		if err := s.checkLimit(ctx, userID); err != nil {
			return nil, err
		}
	}

	if err := s.local.AddLocalFavorite(ctx, userID, recipeID); err != nil {
		return nil, fmt.Errorf("add local favorite: %w", err)
	}

	added, err := s.remote.AddFavorite(ctx, userID, recipeID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}

	if added {
		s.changed(ctx, "add", model.EventRecipeFavorited, userID, recipeID)
	}

	return &model.FavoriteState{RecipeID: recipeID, IsFavorite: true, Local: true}, nil
}

// Remove unfavorites a recipe.
func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	if err := s.local.RemoveLocalFavorite(ctx, userID, recipeID); err != nil {
		return nil, fmt.Errorf("remove local favorite: %w", err)
	}

	removed, err := s.remote.RemoveFavorite(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}

	if removed {
		s.changed(ctx, "remove", model.EventRecipeUnfavorited, userID, recipeID)
	}

	return &model.FavoriteState{RecipeID: recipeID, IsFavorite: false, Local: false}, nil
}

// IsFavorite reports the remote state and the local flag.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	fav, err := s.remote.IsFavorite(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("check favorite: %w", err)
	}

	local, err := s.local.IsLocalFavorite(ctx, userID, recipeID)
	if err != nil {
		s.logger.WarnContext(ctx, "local favorite check failed", "user_id", userID, "error", err)
	}

	return &model.FavoriteState{RecipeID: recipeID, IsFavorite: fav, Local: local}, nil
}

// Toggle flips the favorite state and returns the new one.
func (s *FavoriteService) Toggle(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error) {
	fav, err := s.remote.IsFavorite(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("check favorite: %w", err)
	}
	if fav {
		return s.Remove(ctx, userID, recipeID)
	}
	return s.Add(ctx, userID, recipeID)
}

// ListIDs returns the user's favorite recipe ids, newest first.
func (s *FavoriteService) ListIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.remote.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ListRecipes resolves the user's favorites to recipes, keeping order.
func (s *FavoriteService) ListRecipes(ctx context.Context, userID string) ([]*model.Recipe, error) {
	ids, err := s.ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	recipes := make([]*model.Recipe, 0, len(ids))
	for start := 0; start < len(ids); start += repository.MaxRecipesByIDs {
		end := min(start+repository.MaxRecipesByIDs, len(ids))
		batch, err := s.recipes.GetRecipesByIDs(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("resolve favorites: %w", err)
		}
		recipes = append(recipes, batch...)
	}

	return recipes, nil
}

// Sync pushes local-only favorites to the remote record, then marks every
// remote favorite locally. Pushes stop at the saved_recipes quota; the
// remaining local-only ids stay local.
func (s *FavoriteService) Sync(ctx context.Context, userID string) (*model.SyncResult, error) {
	localIDs, err := s.local.ListLocalFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list local favorites: %w", err)
	}
	remoteIDs, err := s.remote.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	limit := model.FeatureLimit(model.LimitSavedRecipes, s.premium.IsPremiumUser(ctx, userID))
	result := &model.SyncResult{}

	for _, id := range localIDs {
		if slices.Contains(remoteIDs, id) {
			continue
		}
		if limit != model.Unlimited && len(remoteIDs) >= limit {
			break
		}

		added, err := s.remote.AddFavorite(ctx, userID, id, s.now())
		if err != nil {
			if errors.Is(err, repository.ErrRecipeNotFound) {
				if err := s.local.RemoveLocalFavorite(ctx, userID, id); err != nil {
					s.logger.WarnContext(ctx, "failed to drop stale local favorite", "recipe_id", id, "error", err)
				}
				continue
			}
			return nil, fmt.Errorf("push favorite: %w", err)
		}

		remoteIDs = append(remoteIDs, id)
		if added {
			result.Pushed++
			s.changed(ctx, "add", model.EventRecipeFavorited, userID, id)
		}
	}

	for _, id := range remoteIDs {
		if !slices.Contains(localIDs, id) {
			result.Pulled++
		}
	}
	if err := s.local.MarkLocalFavorites(ctx, userID, remoteIDs); err != nil {
		return nil, fmt.Errorf("mark local favorites: %w", err)
	}

	return result, nil
}

func (s *FavoriteService) checkLimit(ctx context.Context, userID string) error {
	limit := model.FeatureLimit(model.LimitSavedRecipes, s.premium.IsPremiumUser(ctx, userID))
	if limit == model.Unlimited {
		return nil
	}

	count, err := s.remote.CountFavorites(ctx, userID)
	if err != nil {
		return fmt.Errorf("count favorites: %w", err)
	}
	if count >= limit {
		return ErrFavoriteLimitReached
	}
	return nil
}

func (s *FavoriteService) changed(ctx context.Context, action string, eventType model.RecipeEventType, userID, recipeID string) {
	s.metrics.IncFavoriteChange(action)
	s.events.Emit(eventType, recipeID, userID)
	if err := s.cache.DeleteRecipe(ctx, recipeID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate recipe cache", "recipe_id", recipeID, "error", err)
	}
}
