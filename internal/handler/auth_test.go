package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestAuthHandler_SignUp(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, discardLogger())

	req := newRequest(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"cook@example.com","password":"secret1","username":"cook"}`, nil, nil)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastSignUp.UserAgent != "test-agent" {
		t.Errorf("user agent not forwarded: %q", svc.lastSignUp.UserAgent)
	}

	var resp model.AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" || resp.User == nil || resp.User.Email != "cook@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_SignUp_ValidationFailure(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, discardLogger())

	req := newRequest(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"not-an-email","password":"123","username":"  "}`, nil, nil)
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", resp.Code)
	}
	for _, field := range []string{"email", "password", "username"} {
		if len(resp.Fields[field]) == 0 {
			t.Errorf("expected a failure for %s, got %v", field, resp.Fields)
		}
	}
}

func TestAuthHandler_SignUp_UnknownField(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, discardLogger())

	req := newRequest(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"cook@example.com","password":"secret1","username":"cook","role":"admin"}`, nil, nil)
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "INVALID_JSON" {
		t.Errorf("code = %s, want INVALID_JSON", code)
	}
}

func TestAuthHandler_SignUp_EmailTaken(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{signUpErr: service.ErrEmailTaken}, discardLogger())

	req := newRequest(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"cook@example.com","password":"secret1","username":"cook"}`, nil, nil)
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "EMAIL_TAKEN" {
		t.Errorf("code = %s, want EMAIL_TAKEN", code)
	}
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, discardLogger())

	req := newRequest(http.MethodPost, "/api/v1/auth/signin",
		`{"email":"cook@example.com","password":"wrong"}`, nil, nil)
	rec := httptest.NewRecorder()

	h.SignIn(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Google_StatusReflectsCreation(t *testing.T) {
	testCases := []struct {
		name    string
		created bool
		want    int
	}{
		{"new account", true, http.StatusCreated},
		{"existing account", false, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAuthService{googleIsNew: tc.created}, discardLogger())
			req := newRequest(http.MethodPost, "/api/v1/auth/google", `{"id_token":"tok"}`, nil, nil)
			rec := httptest.NewRecorder()

			h.Google(rec, req)

			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestAuthHandler_SignOut(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.SignOut(rec, newRequest(http.MethodPost, "/api/v1/auth/signout", "", nil, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous sign-out: expected 401, got %d", rec.Code)
	}

	ac := &model.AuthContext{UserID: "user-1", SessionID: "sess-1"}
	rec = httptest.NewRecorder()
	h.SignOut(rec, newRequest(http.MethodPost, "/api/v1/auth/signout", "", ac, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if svc.signedOut != "sess-1" {
		t.Errorf("signed out session = %q, want sess-1", svc.signedOut)
	}
}

func TestAuthHandler_RequestPasswordReset_AlwaysAccepted(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{resetErr: errors.New("smtp down")}, discardLogger())

	req := newRequest(http.MethodPost, "/api/v1/auth/password-reset", `{"email":"ghost@example.com"}`, nil, nil)
	rec := httptest.NewRecorder()

	h.RequestPasswordReset(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}
}

func TestAuthHandler_ConfirmPasswordReset(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, discardLogger())

	rec := httptest.NewRecorder()
	h.ConfirmPasswordReset(rec, newRequest(http.MethodPost, "/api/v1/auth/password-reset/confirm",
		`{"token":"valid","new_password":"secret2"}`, nil, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("valid token: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ConfirmPasswordReset(rec, newRequest(http.MethodPost, "/api/v1/auth/password-reset/confirm",
		`{"token":"stale","new_password":"secret2"}`, nil, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("stale token: expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "INVALID_RESET_TOKEN" {
		t.Errorf("code = %s, want INVALID_RESET_TOKEN", code)
	}
}
