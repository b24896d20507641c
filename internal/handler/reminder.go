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
	"github.com/recipevault/recipevault/internal/service"
)

// ReminderService manages the caller's reminders and inbox.
type ReminderService interface {
	Create(ctx context.Context, userID string, input service.CreateReminderInput) (*model.CookingReminder, error)
	List(ctx context.Context, userID string, includeInactive bool) ([]*model.CookingReminder, error)
	ListUpcoming(ctx context.Context, userID string) ([]*model.CookingReminder, error)
	Get(ctx context.Context, userID, id string) (*model.CookingReminder, error)
	Reschedule(ctx context.Context, userID, id string, at time.Time) (*model.CookingReminder, error)
	Complete(ctx context.Context, userID, id string) (*model.CookingReminder, error)
	Cancel(ctx context.Context, userID, id string) (*model.CookingReminder, error)
	Delete(ctx context.Context, userID, id string) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// ReminderHandler handles /api/v1/reminders and /api/v1/notifications.
type ReminderHandler struct {
	svc    ReminderService
	logger *slog.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(svc ReminderService, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/reminders.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.CreateReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rem, err := h.svc.Create(r.Context(), ac.UserID, service.CreateReminderInput{
		RecipeID:      req.RecipeID,
		ScheduledTime: req.ScheduledTime,
		Type:          req.Type,
		Message:       req.Message,
		Metadata:      req.Metadata,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("reminder_created",
		"reminder_id", rem.ID,
		"user_id", ac.UserID,
		"scheduled_time", rem.ScheduledTime,
	)
	writeJSON(w, http.StatusCreated, rem)
}

// List handles GET /api/v1/reminders?include_inactive=true.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	reminders, err := h.svc.List(r.Context(), ac.UserID, includeInactive)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(reminders))
}

// Upcoming handles GET /api/v1/reminders/upcoming.
func (h *ReminderHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	reminders, err := h.svc.ListUpcoming(r.Context(), ac.UserID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(reminders))
}

// Get handles GET /api/v1/reminders/{id}.
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Get)
}

// Complete handles POST /api/v1/reminders/{id}/complete.
func (h *ReminderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Complete)
}

// Cancel handles POST /api/v1/reminders/{id}/cancel.
func (h *ReminderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.svc.Cancel)
}

// Reschedule handles POST /api/v1/reminders/{id}/reschedule.
func (h *ReminderHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.RescheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rem, err := h.svc.Reschedule(r.Context(), ac.UserID, chi.URLParam(r, "id"), req.ScheduledTime)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rem)
}

// Delete handles DELETE /api/v1/reminders/{id}.
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), ac.UserID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Notifications handles GET /api/v1/notifications?unread_only=true&limit=N.
func (h *ReminderHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread_only"))

	notifications, err := h.svc.ListNotifications(r.Context(), ac.UserID, unreadOnly, parseLimit(r, service.DefaultNotificationLimit))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewDataResponse(notifications))
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h *ReminderHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.svc.MarkRead(r.Context(), ac.UserID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReminderHandler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, id string) (*model.CookingReminder, error)) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	rem, err := op(r.Context(), ac.UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rem)
}
