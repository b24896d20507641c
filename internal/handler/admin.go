package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
)

// defaultExpiringDays is the look-ahead window for expiring subscriptions.
const defaultExpiringDays = 7

// PremiumAdmin exposes subscription reporting and manual renewal.
type PremiumAdmin interface {
	ListActive(ctx context.Context) ([]*model.PremiumSubscription, error)
	ListExpiring(ctx context.Context, days int) ([]*model.PremiumSubscription, error)
	Statistics(ctx context.Context) (*model.PremiumStatistics, error)
	ProcessRenewal(ctx context.Context, userID string) (*model.PremiumSubscription, error)
}

// AdminHandler provides admin-only endpoints for operations.
type AdminHandler struct {
	premium PremiumAdmin
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(premium PremiumAdmin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		premium: premium,
		logger:  logger,
	}
}

// PremiumStats handles GET /api/v1/admin/premium/stats.
func (h *AdminHandler) PremiumStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.premium.Statistics(ctx)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ActiveSubscriptions handles GET /api/v1/admin/premium/active.
func (h *AdminHandler) ActiveSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.premium.ListActive(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(subs))
}

// ExpiringSubscriptions handles GET /api/v1/admin/premium/expiring?days=N.
func (h *AdminHandler) ExpiringSubscriptions(w http.ResponseWriter, r *http.Request) {
	days := defaultExpiringDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 0 || parsed > 365 {
			writeError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be between 0 and 365")
			return
		}
		days = parsed
	}

	subs, err := h.premium.ListExpiring(r.Context(), days)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(subs))
}

// RenewSubscription handles POST /api/v1/admin/premium/{userID}/renew.
func (h *AdminHandler) RenewSubscription(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	sub, err := h.premium.ProcessRenewal(r.Context(), userID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("admin_premium_renewed", "user_id", userID)
	writeJSON(w, http.StatusOK, sub)
}
