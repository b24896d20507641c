package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
)

type captureMailer struct {
	email string
	token string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.email = email
	m.token = token
	return nil
}

type fakeVerifier struct {
	identity *auth.GoogleIdentity
	err      error
}

func (v *fakeVerifier) Verify(context.Context, string) (*auth.GoogleIdentity, error) {
	return v.identity, v.err
}

type authFixture struct {
	svc    *AuthService
	store  *memStore
	cache  *memCache
	mailer *captureMailer
	google *fakeVerifier
	rec    *metrics.InMemoryRecorder
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		store:  newMemStore(),
		cache:  newMemCache(),
		mailer: &captureMailer{},
		google: &fakeVerifier{},
		rec:    metrics.NewInMemory(),
	}
	f.svc = NewAuthService(
		f.store, f.store, f.cache, f.cache,
		auth.NewTokenManager("test-secret", time.Hour),
		f.google, f.mailer, discardLogger(), f.rec,
	)
	return f
}

func TestSignUp_Validation(t *testing.T) {
	f := newAuthFixture()

	tests := []struct {
		name    string
		input   SignUpInput
		wantErr error
	}{
		{"bad email", SignUpInput{Email: "nope", Password: "secret1", Username: "cook"}, ErrInvalidEmail},
		{"short password", SignUpInput{Email: "a@b.co", Password: "12345", Username: "cook"}, ErrWeakPassword},
		{"blank username", SignUpInput{Email: "a@b.co", Password: "secret1", Username: "  "}, ErrUsernameRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.SignUp(context.Background(), tc.input); !errors.Is(err, tc.wantErr) {
				t.Fatalf("SignUp() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSignUpSignInAuthenticate(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, SignUpInput{Email: " Cook@Example.com ", Password: "secret1", Username: "cook"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if !resp.Created || resp.Token == "" || resp.User.Email != "cook@example.com" {
		t.Fatalf("unexpected sign-up response: %+v", resp)
	}

	if _, err := f.svc.SignUp(ctx, SignUpInput{Email: "cook@example.com", Password: "secret1", Username: "x"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate SignUp() error = %v, want ErrEmailTaken", err)
	}

	if _, err := f.svc.SignIn(ctx, "cook@example.com", "wrong-pass", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("SignIn() wrong password error = %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "ghost@example.com", "secret1", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("SignIn() unknown email error = %v", err)
	}

	signIn, err := f.svc.SignIn(ctx, "COOK@example.com", "secret1", "test-agent")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if signIn.Created {
		t.Error("SignIn must not report a created account")
	}

	ac, err := f.svc.Authenticate(ctx, signIn.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if ac.UserID != resp.User.ID || ac.Provider != model.ProviderPassword {
		t.Errorf("unexpected auth context: %+v", ac)
	}

	if _, err := f.svc.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate(garbage) error = %v", err)
	}

	if got := f.rec.Snapshot().AuthAttempts["password:failure"]; got != 2 {
		t.Errorf("password failures = %d, want 2", got)
	}
}

func TestSignOut_RevokesSession(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "secret1", Username: "a"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	ac, err := f.svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if err := f.svc.SignOut(ctx, ac.SessionID); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if err := f.svc.SignOut(ctx, ac.SessionID); err != nil {
		t.Fatalf("second SignOut() error = %v", err)
	}

	if _, err := f.svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Authenticate() after sign-out error = %v, want ErrUnauthorized", err)
	}
}

func TestAuthenticate_RevokedCachedSession(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "secret1", Username: "a"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	claims, err := f.svc.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	f.cache.sessions[claims.SessionID].Revoked = "1"

	if _, err := f.svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
	}
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, SignUpInput{Email: "a@example.com", Password: "secret1", Username: "a"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if err := f.svc.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset(unknown) error = %v", err)
	}
	if f.mailer.token != "" {
		t.Fatal("no mail expected for unknown account")
	}

	if err := f.svc.RequestPasswordReset(ctx, "A@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if f.mailer.token == "" || f.mailer.email != "a@example.com" {
		t.Fatalf("reset mail not sent: %+v", f.mailer)
	}

	if err := f.svc.ResetPassword(ctx, f.mailer.token, "123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("ResetPassword(weak) error = %v", err)
	}
	if err := f.svc.ResetPassword(ctx, f.mailer.token, "new-secret"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if err := f.svc.ResetPassword(ctx, f.mailer.token, "new-secret"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("reused token error = %v, want ErrInvalidResetToken", err)
	}

	if _, err := f.svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old session still valid after reset: %v", err)
	}
	if _, err := f.svc.SignIn(ctx, "a@example.com", "new-secret", ""); err != nil {
		t.Fatalf("SignIn() with new password error = %v", err)
	}
}

func TestGoogleSignIn(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.google.err = errors.New("bad audience")
	if _, err := f.svc.GoogleSignIn(ctx, "tok", ""); !errors.Is(err, ErrGoogleSignInFailed) {
		t.Fatalf("GoogleSignIn() error = %v, want ErrGoogleSignInFailed", err)
	}

	f.google.err = nil
	f.google.identity = &auth.GoogleIdentity{
		Subject: "g-123",
		Email:   "chef@example.com",
		Picture: "https://img.example.com/a.png",
	}

	first, err := f.svc.GoogleSignIn(ctx, "tok", "")
	if err != nil {
		t.Fatalf("GoogleSignIn() error = %v", err)
	}
	if !first.Created {
		t.Error("first Google sign-in should create the account")
	}
	if first.User.Username != "chef" {
		t.Errorf("Username = %q, want local part of email", first.User.Username)
	}

	second, err := f.svc.GoogleSignIn(ctx, "tok", "")
	if err != nil {
		t.Fatalf("second GoogleSignIn() error = %v", err)
	}
	if second.Created || second.User.ID != first.User.ID {
		t.Errorf("second sign-in should reuse the account: %+v", second)
	}
}

func TestGoogleSignIn_LinksPasswordAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	resp, err := f.svc.SignUp(ctx, SignUpInput{Email: "chef@example.com", Password: "secret1", Username: "chef"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	f.google.identity = &auth.GoogleIdentity{Subject: "g-9", Email: "chef@example.com", Name: "Chef"}
	g, err := f.svc.GoogleSignIn(ctx, "tok", "")
	if err != nil {
		t.Fatalf("GoogleSignIn() error = %v", err)
	}
	if g.User.ID != resp.User.ID || g.Created {
		t.Fatalf("expected link to existing account, got %+v", g.User)
	}
	if f.store.users[resp.User.ID].GoogleSub != "g-9" {
		t.Error("google sub not linked")
	}
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "chef", 10, "chef"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"two-byte rune at cut", strings.Repeat("a", 499) + "é", 500, strings.Repeat("a", 499)},
		{"three-byte rune", "ab€", 4, "ab"},
		{"fits exactly", "ab€", 5, "ab€"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.max)
			if got != tc.want {
				t.Errorf("truncate() = %q, want %q", got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate() produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestSignIn_TruncatesMultibyteUserAgent(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	if _, err := f.svc.SignUp(ctx, SignUpInput{Email: "ua@example.com", Password: "secret1", Username: "ua"}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	resp, err := f.svc.SignIn(ctx, "ua@example.com", "secret1", strings.Repeat("a", 499)+"é (Macintosh)")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	ac, err := f.svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	session := f.store.sessions[ac.SessionID]
	if session == nil {
		t.Fatal("session not stored")
	}
	if !utf8.ValidString(session.UserAgent) || session.UserAgent != strings.Repeat("a", 499) {
		t.Errorf("stored user agent = %q (%d bytes)", session.UserAgent, len(session.UserAgent))
	}
}
