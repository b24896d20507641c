package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
)

// PremiumService serves the caller's subscription.
type PremiumService interface {
	Upgrade(ctx context.Context, userID string, t model.SubscriptionType) (*model.PremiumSubscription, error)
	GetStatus(ctx context.Context, userID string) (*model.PremiumStatus, error)
	Cancel(ctx context.Context, userID string) (*model.PremiumSubscription, error)
	Reactivate(ctx context.Context, userID string, t model.SubscriptionType) (*model.PremiumSubscription, error)
	Restore(ctx context.Context, userID string) (bool, error)
	HasFeatureAccess(ctx context.Context, userID, feature string) bool
	GetFeatureLimit(ctx context.Context, userID, limit string) int
}

// PremiumHandler handles /api/v1/premium.
type PremiumHandler struct {
	svc    PremiumService
	logger *slog.Logger
}

// NewPremiumHandler creates a new PremiumHandler.
func NewPremiumHandler(svc PremiumService, logger *slog.Logger) *PremiumHandler {
	return &PremiumHandler{svc: svc, logger: logger}
}

// Status handles GET /api/v1/premium.
func (h *PremiumHandler) Status(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	status, err := h.svc.GetStatus(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Upgrade handles POST /api/v1/premium/upgrade. Payment is simulated.
func (h *PremiumHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.svc.Upgrade(r.Context(), ac.UserID, model.SubscriptionType(req.Type))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("premium_upgraded", "user_id", ac.UserID, "type", req.Type)
	writeJSON(w, http.StatusOK, sub)
}

// Cancel handles POST /api/v1/premium/cancel.
func (h *PremiumHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	sub, err := h.svc.Cancel(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("premium_cancelled", "user_id", ac.UserID)
	writeJSON(w, http.StatusOK, sub)
}

// Reactivate handles POST /api/v1/premium/reactivate.
func (h *PremiumHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.svc.Reactivate(r.Context(), ac.UserID, model.SubscriptionType(req.Type))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// Restore handles POST /api/v1/premium/restore.
func (h *PremiumHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	restored, err := h.svc.Restore(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RestoreResponse{Restored: restored})
}

// Feature handles GET /api/v1/premium/features/{feature}. The path value
// may name a feature (advanced_search) or a limit (saved_recipes).
func (h *PremiumHandler) Feature(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	feature := chi.URLParam(r, "feature")
	writeJSON(w, http.StatusOK, dto.FeatureResponse{
		Feature:   feature,
		HasAccess: h.svc.HasFeatureAccess(r.Context(), ac.UserID, feature),
		Limit:     h.svc.GetFeatureLimit(r.Context(), ac.UserID, feature),
	})
}
