package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

// CommentService serves recipe comments and reviews.
type CommentService interface {
	SubmitReview(ctx context.Context, userID, recipeID string, rating int, text string) (*service.ReviewResult, error)
	AddComment(ctx context.Context, userID, recipeID, text string) (*model.Comment, error)
	ListComments(ctx context.Context, recipeID, cursor string, limit int) (*service.CommentPage, error)
	ToggleLike(ctx context.Context, userID, recipeID, commentID string) (*model.LikeResult, error)
	DeleteComment(ctx context.Context, caller *model.AuthContext, recipeID, commentID string) error
}

// RatingService serves recipe ratings.
type RatingService interface {
	Rate(ctx context.Context, userID, recipeID string, value int) (*model.RatingSummary, error)
	GetRecipeRatings(ctx context.Context, recipeID string) ([]*model.Rating, error)
	GetMyRating(ctx context.Context, userID, recipeID string) (*model.Rating, error)
	RemoveRating(ctx context.Context, userID, recipeID string) (*model.RatingSummary, error)
}

// ReviewHandler handles comment, review and rating endpoints under a recipe.
type ReviewHandler struct {
	comments CommentService
	ratings  RatingService
	logger   *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(comments CommentService, ratings RatingService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{comments: comments, ratings: ratings, logger: logger}
}

// reviewFailure is returned when the rating stuck but the comment did not.
type reviewFailure struct {
	dto.ErrorResponse
	Rating *model.RatingSummary `json:"rating,omitempty"`
}

// SubmitReview handles POST /api/v1/recipes/{id}/reviews.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.comments.SubmitReview(r.Context(), ac.UserID, chi.URLParam(r, "id"), req.Rating, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrRatingSavedCommentFailed) && result != nil {
			h.logger.ErrorContext(r.Context(), "review partially saved", "error", err)
			writeJSON(w, http.StatusInternalServerError, reviewFailure{
				ErrorResponse: dto.ErrorResponse{
					Error: "Rating was saved but the comment could not be added",
					Code:  "RATING_SAVED_COMMENT_FAILED",
				},
				Rating: result.Rating,
			})
			return
		}
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// AddComment handles POST /api/v1/recipes/{id}/comments.
func (h *ReviewHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.AddComment(r.Context(), ac.UserID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /api/v1/recipes/{id}/comments.
func (h *ReviewHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	page, err := h.comments.ListComments(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("cursor"), parseLimit(r, service.DefaultPageSize))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(page.Comments, page.NextCursor))
}

// ToggleLike handles POST /api/v1/recipes/{id}/comments/{commentID}/like.
func (h *ReviewHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	result, err := h.comments.ToggleLike(r.Context(), ac.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteComment handles DELETE /api/v1/recipes/{id}/comments/{commentID}.
func (h *ReviewHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(r.Context(), ac, chi.URLParam(r, "id"), chi.URLParam(r, "commentID")); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRatings handles GET /api/v1/recipes/{id}/ratings.
func (h *ReviewHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.ratings.GetRecipeRatings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(ratings))
}

// Rate handles PUT /api/v1/recipes/{id}/ratings/me.
func (h *ReviewHandler) Rate(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.RatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	summary, err := h.ratings.Rate(r.Context(), ac.UserID, chi.URLParam(r, "id"), req.Value)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// MyRating handles GET /api/v1/recipes/{id}/ratings/me.
func (h *ReviewHandler) MyRating(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	rating, err := h.ratings.GetMyRating(r.Context(), ac.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

// RemoveRating handles DELETE /api/v1/recipes/{id}/ratings/me.
func (h *ReviewHandler) RemoveRating(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	summary, err := h.ratings.RemoveRating(r.Context(), ac.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
