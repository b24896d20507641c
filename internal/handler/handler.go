// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/middleware"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler serves the root and fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello identifies the API.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "RecipeVault API",
		"version": Version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON decodes and validates a request body into dst. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}

	if err := middleware.ValidateStruct(dst); err != nil {
		var verr *middleware.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error:  "Request validation failed",
				Code:   "VALIDATION_FAILED",
				Fields: verr.Fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return false
	}

	return true
}

// caller returns the authenticated identity or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (*model.AuthContext, bool) {
	ac := auth.AuthFromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return nil, false
	}
	return ac, true
}

// parseLimit reads ?limit, falling back to def when missing or malformed.
// Upper bounds are enforced by the services.
func parseLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

// splitCSV splits a comma-separated query value, dropping blanks.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// serviceErrors maps service sentinels to HTTP responses. Order matters
// only for wrapped errors that match more than one entry.
var serviceErrors = []errorMapping{
	{service.ErrRatingSavedCommentFailed, http.StatusInternalServerError, "RATING_SAVED_COMMENT_FAILED", "Rating was saved but the comment could not be added"},

	{service.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address"},
	{service.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 6 characters"},
	{service.ErrUsernameRequired, http.StatusBadRequest, "USERNAME_REQUIRED", "Username is required"},
	{service.ErrBioTooLong, http.StatusBadRequest, "BIO_TOO_LONG", "Bio must be at most 500 characters"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"},
	{service.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered"},
	{service.ErrGoogleSignInFailed, http.StatusUnauthorized, "GOOGLE_SIGNIN_FAILED", "Google sign-in failed"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, "INVALID_RESET_TOKEN", "Reset token is invalid or expired"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Session is invalid or expired"},
	{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Not allowed to modify this resource"},
	{service.ErrFeatureNotAvailable, http.StatusForbidden, "PREMIUM_REQUIRED", "This feature requires a premium subscription"},

	{service.ErrRecipeNotFound, http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found"},
	{service.ErrTitleRequired, http.StatusBadRequest, "TITLE_REQUIRED", "Title is required"},
	{service.ErrDescriptionRequired, http.StatusBadRequest, "DESCRIPTION_REQUIRED", "Description is required"},
	{service.ErrInvalidDifficulty, http.StatusBadRequest, "INVALID_DIFFICULTY", "Difficulty must be Easy, Medium or Hard"},
	{service.ErrRecipeLimitReached, http.StatusForbidden, "RECIPE_LIMIT_REACHED", "Created recipe limit reached; upgrade to premium for unlimited recipes"},
	{service.ErrTooManyIDs, http.StatusBadRequest, "TOO_MANY_IDS", "Too many ids requested"},
	{service.ErrInvalidCursor, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor"},

	{service.ErrInvalidRating, http.StatusBadRequest, "INVALID_RATING", "Rating must be between 1 and 5"},
	{service.ErrCommentTextRequired, http.StatusBadRequest, "COMMENT_TEXT_REQUIRED", "Comment text is required"},
	{service.ErrCommentNotFound, http.StatusNotFound, "COMMENT_NOT_FOUND", "Comment not found"},
	{service.ErrRatingNotFound, http.StatusNotFound, "RATING_NOT_FOUND", "Rating not found"},

	{service.ErrFavoriteLimitReached, http.StatusForbidden, "FAVORITE_LIMIT_REACHED", "Saved recipe limit reached; upgrade to premium for unlimited favorites"},

	{service.ErrInvalidSubscriptionType, http.StatusBadRequest, "INVALID_SUBSCRIPTION_TYPE", "Subscription type must be monthly or yearly"},
	{service.ErrSubscriptionNotFound, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "Subscription not found"},

	{service.ErrReminderNotFound, http.StatusNotFound, "REMINDER_NOT_FOUND", "Reminder not found"},
	{service.ErrScheduledInPast, http.StatusUnprocessableEntity, "SCHEDULED_IN_PAST", "Scheduled time must be in the future"},
	{service.ErrInvalidReminderType, http.StatusBadRequest, "INVALID_REMINDER_TYPE", "Invalid reminder type"},
	{service.ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found"},

	{service.ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE", "Unsupported or corrupt image"},
	{service.ErrImageTooLarge, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "Image dimensions are too large"},
	{service.ErrImageUploadFailed, http.StatusBadGateway, "IMAGE_UPLOAD_FAILED", "Image upload failed"},
	{service.ErrImageHostDisabled, http.StatusServiceUnavailable, "IMAGE_UPLOAD_DISABLED", "Image upload is not configured"},
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "request failed",
					"code", m.code,
					"error", err,
					"request_id", middleware.GetRequestID(r.Context()),
				)
			}
			writeError(w, m.status, m.code, m.message)
			return
		}
	}

	logger.ErrorContext(r.Context(), "internal_error",
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}
