package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
)

// FavoriteService serves the caller's saved recipes.
type FavoriteService interface {
	Add(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error)
	Remove(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error)
	IsFavorite(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error)
	Toggle(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error)
	ListIDs(ctx context.Context, userID string) ([]string, error)
	ListRecipes(ctx context.Context, userID string) ([]*model.Recipe, error)
	Sync(ctx context.Context, userID string) (*model.SyncResult, error)
}

// FavoriteHandler handles /api/v1/favorites.
type FavoriteHandler struct {
	svc    FavoriteService
	logger *slog.Logger
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(svc FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/favorites. With ?expand=recipes the recipes
// themselves are returned instead of their ids.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("expand") == "recipes" {
		recipes, err := h.svc.ListRecipes(r.Context(), ac.UserID)
		if err != nil {
			handleServiceError(h.logger, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewDataResponse(recipes))
		return
	}

	ids, err := h.svc.ListIDs(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewDataResponse(ids))
}

// Add handles PUT /api/v1/favorites/{recipeID}.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Add)
}

// Remove handles DELETE /api/v1/favorites/{recipeID}.
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Remove)
}

// Get handles GET /api/v1/favorites/{recipeID}.
func (h *FavoriteHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.IsFavorite)
}

// Toggle handles POST /api/v1/favorites/{recipeID}/toggle.
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Toggle)
}

// Sync handles POST /api/v1/favorites/sync.
func (h *FavoriteHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Sync(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *FavoriteHandler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, recipeID string) (*model.FavoriteState, error)) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	state, err := op(r.Context(), ac.UserID, chi.URLParam(r, "recipeID"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}
