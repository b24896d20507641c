package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

// RecipeService serves recipe reads and writes.
type RecipeService interface {
	Create(ctx context.Context, userID string, input service.CreateRecipeInput) (*model.Recipe, error)
	Get(ctx context.Context, id, viewerID string) (*model.Recipe, error)
	List(ctx context.Context, cursor string, limit int) (*service.RecipePage, error)
	ListByCategory(ctx context.Context, category, cursor string, limit int) (*service.RecipePage, error)
	ListByUser(ctx context.Context, userID, cursor string, limit int) (*service.RecipePage, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Recipe, error)
	ListByTags(ctx context.Context, tags []string, limit int) ([]*model.Recipe, error)
	Search(ctx context.Context, userID string, input service.SearchInput) (*service.RecipePage, error)
	Update(ctx context.Context, caller *model.AuthContext, id string, input service.UpdateRecipeInput) (*model.Recipe, error)
	Delete(ctx context.Context, caller *model.AuthContext, id string) error
	Export(ctx context.Context, userID string) ([]*model.Recipe, error)
	Stats(ctx context.Context, id string, days int) (*model.RecipeStatsResponse, error)
}

// RecipeHandler handles HTTP requests for recipe operations.
type RecipeHandler struct {
	svc    RecipeService
	logger *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.CreateRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.svc.Create(r.Context(), ac.UserID, service.CreateRecipeInput{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		CookingTime:  req.CookingTime,
		Difficulty:   req.Difficulty,
		Servings:     req.Servings,
		Category:     req.Category,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("recipe_created",
		"recipe_id", recipe.ID,
		"user_id", ac.UserID,
	)

	writeJSON(w, http.StatusCreated, recipe)
}

// Get handles GET /api/v1/recipes/{id}.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// List handles GET /api/v1/recipes. A q or difficulty parameter runs a
// search; tags lists by tag; category filters by category.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseLimit(r, service.DefaultPageSize)
	cursor := query.Get("cursor")

	var (
		page *service.RecipePage
		err  error
	)

	switch {
	case query.Get("q") != "" || query.Get("difficulty") != "":
		page, err = h.svc.Search(r.Context(), auth.UserIDFromContext(r.Context()), service.SearchInput{
			Query:      query.Get("q"),
			Category:   query.Get("category"),
			Difficulty: query.Get("difficulty"),
			Cursor:     cursor,
			Limit:      limit,
		})
	case query.Get("tags") != "":
		var recipes []*model.Recipe
		recipes, err = h.svc.ListByTags(r.Context(), splitCSV(query.Get("tags")), limit)
		page = &service.RecipePage{Recipes: recipes}
	case query.Get("category") != "":
		page, err = h.svc.ListByCategory(r.Context(), query.Get("category"), cursor, limit)
	default:
		page, err = h.svc.List(r.Context(), cursor, limit)
	}
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(page.Recipes, page.NextCursor))
}

// Recent handles GET /api/v1/recipes/recent.
func (h *RecipeHandler) Recent(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.ListRecent(r.Context(), parseLimit(r, service.DefaultPageSize))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(recipes))
}

// ListByUser handles GET /api/v1/users/{id}/recipes.
func (h *RecipeHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListByUser(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("cursor"), parseLimit(r, service.DefaultPageSize))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(page.Recipes, page.NextCursor))
}

// Update handles PATCH /api/v1/recipes/{id}.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.svc.Update(r.Context(), ac, chi.URLParam(r, "id"), service.UpdateRecipeInput{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		CookingTime:  req.CookingTime,
		Difficulty:   req.Difficulty,
		Servings:     req.Servings,
		Category:     req.Category,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("recipe_updated", "recipe_id", recipe.ID, "user_id", ac.UserID)
	writeJSON(w, http.StatusOK, recipe)
}

// Delete handles DELETE /api/v1/recipes/{id}.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), ac, id); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("recipe_deleted", "recipe_id", id, "user_id", ac.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/recipes/export.
func (h *RecipeHandler) Export(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	recipes, err := h.svc.Export(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	filename := fmt.Sprintf("recipes-%s.json", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writeJSON(w, http.StatusOK, dto.NewDataResponse(recipes))
}

// Stats handles GET /api/v1/recipes/{id}/stats.
func (h *RecipeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := service.DefaultStatsDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 || parsed > service.MaxStatsDays {
			writeError(w, http.StatusBadRequest, "INVALID_DAYS",
				fmt.Sprintf("days must be between 1 and %d", service.MaxStatsDays))
			return
		}
		days = parsed
	}

	stats, err := h.svc.Stats(r.Context(), chi.URLParam(r, "id"), days)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
