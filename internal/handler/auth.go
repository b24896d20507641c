package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

// AuthService is the identity provider used by AuthHandler.
type AuthService interface {
	SignUp(ctx context.Context, input service.SignUpInput) (*model.AuthResponse, error)
	SignIn(ctx context.Context, email, password, userAgent string) (*model.AuthResponse, error)
	GoogleSignIn(ctx context.Context, idToken, userAgent string) (*model.AuthResponse, error)
	SignOut(ctx context.Context, sessionID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles sign-up, sign-in and password reset.
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// SignUp handles POST /api/v1/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.SignUp(r.Context(), service.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user_signed_up", "user_id", resp.User.ID)
	writeJSON(w, http.StatusCreated, resp)
}

// SignIn handles POST /api/v1/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.SignIn(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Google handles POST /api/v1/auth/google.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req dto.GoogleSignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.GoogleSignIn(r.Context(), req.IDToken, r.UserAgent())
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// SignOut handles POST /api/v1/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ac, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.svc.SignOut(r.Context(), ac.SessionID); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset.
// Always answers 202 so callers cannot probe which emails exist.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.ErrorContext(r.Context(), "password reset request failed", "error", err)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "If the address is registered, a reset link has been sent",
	})
}

// ConfirmPasswordReset handles POST /api/v1/auth/password-reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
