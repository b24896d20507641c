package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/cache"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const touchTimeout = 2 * time.Second

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGoogleSub(ctx context.Context, sub string) (*model.User, error)
	LinkGoogleAccount(ctx context.Context, userID, sub, avatarURL string) error
	UpdateUserProfile(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionStore persists sign-in sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, string, error)
	RevokeSession(ctx context.Context, id string) error
	RevokeUserSessions(ctx context.Context, userID string) ([]string, error)
	TouchSession(ctx context.Context, id string) error
}

// SessionCache caches session lookups for the auth middleware.
type SessionCache interface {
	GetSession(ctx context.Context, sessionID string) (*model.CachedSession, error)
	SetSession(ctx context.Context, sessionID string, cached *model.CachedSession) error
	DeleteSessions(ctx context.Context, sessionIDs ...string) error
}

// ResetTokenStore keeps one-time password reset tokens.
type ResetTokenStore interface {
	StoreResetToken(ctx context.Context, tokenHash, userID string) error
	ConsumeResetToken(ctx context.Context, tokenHash string) (string, error)
}

// IdentityVerifier checks a third-party ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error)
}

// AuthService handles sign-up, sign-in and sessions.
type AuthService struct {
	users        UserStore
	sessions     SessionStore
	sessionCache SessionCache
	resets       ResetTokenStore
	tokens       *auth.TokenManager
	google       IdentityVerifier
	mailer       Mailer
	logger       *slog.Logger
	metrics      metrics.Recorder
	now          func() time.Time
}

// NewAuthService creates a new AuthService. google may be nil when Google
// sign-in is not configured.
func NewAuthService(
	users UserStore,
	sessions SessionStore,
	sessionCache SessionCache,
	resets ResetTokenStore,
	tokens *auth.TokenManager,
	google IdentityVerifier,
	mailer Mailer,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:        users,
		sessions:     sessions,
		sessionCache: sessionCache,
		resets:       resets,
		tokens:       tokens,
		google:       google,
		mailer:       mailer,
		logger:       logger.With("component", "auth"),
		metrics:      recorder,
		now:          defaultNow,
	}
}

// SignUpInput defines input for creating a password account.
type SignUpInput struct {
	Email     string
	Password  string
	Username  string
	UserAgent string
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*model.AuthResponse, error) {
	email := normalizeEmail(input.Email)
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, ErrWeakPassword
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Preferences:  map[string]any{},
		SavedRecipes: []string{},
		CreatedAt:    now,
		LastLoginAt:  &now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.openSession(ctx, user, model.ProviderPassword, input.UserAgent)
	if err != nil {
		return nil, err
	}
	resp.Created = true

	s.metrics.IncAuthAttempt("signup", "success")
	return resp, nil
}

// SignIn verifies email and password. Unknown emails and wrong passwords
// take the same time and return the same error.
func (s *AuthService) SignIn(ctx context.Context, email, password, userAgent string) (*model.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
		auth.VerifyPasswordOrDummy(password, "")
		s.metrics.IncAuthAttempt(model.ProviderPassword, "failure")
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPasswordOrDummy(password, user.PasswordHash) {
		s.metrics.IncAuthAttempt(model.ProviderPassword, "failure")
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	s.metrics.IncAuthAttempt(model.ProviderPassword, "success")
	return s.openSession(ctx, user, model.ProviderPassword, userAgent)
}

// GoogleSignIn signs in with a Google ID token, creating or linking the
// account on first use.
func (s *AuthService) GoogleSignIn(ctx context.Context, idToken, userAgent string) (*model.AuthResponse, error) {
	if s.google == nil {
		return nil, ErrGoogleSignInFailed
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.metrics.IncAuthAttempt(model.ProviderGoogle, "failure")
		s.logger.WarnContext(ctx, "google token rejected", "error", err)
		return nil, ErrGoogleSignInFailed
	}

	user, created, err := s.findOrCreateGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !created {
		if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
			return nil, fmt.Errorf("update last login: %w", err)
		}
	}

	resp, err := s.openSession(ctx, user, model.ProviderGoogle, userAgent)
	if err != nil {
		return nil, err
	}
	resp.Created = created

	s.metrics.IncAuthAttempt(model.ProviderGoogle, "success")
	return resp, nil
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, identity *auth.GoogleIdentity) (*model.User, bool, error) {
	user, err := s.users.GetUserByGoogleSub(ctx, identity.Subject)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("get user by google sub: %w", err)
	}

	email := normalizeEmail(identity.Email)
	user, err = s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if err := s.users.LinkGoogleAccount(ctx, user.ID, identity.Subject, identity.Picture); err != nil {
			return nil, false, fmt.Errorf("link google account: %w", err)
		}
		user.GoogleSub = identity.Subject
		if user.AvatarURL == "" {
			user.AvatarURL = identity.Picture
		}
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("get user by email: %w", err)
	}

	username := strings.TrimSpace(identity.Name)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	now := s.now()
	user = &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		GoogleSub:    identity.Subject,
		AvatarURL:    identity.Picture,
		Role:         model.RoleUser,
		Preferences:  map[string]any{},
		SavedRecipes: []string{},
		CreatedAt:    now,
		LastLoginAt:  &now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, false, ErrEmailTaken
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	return user, true, nil
}

// SignOut revokes the session. Signing out twice is not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}

	if err := s.sessionCache.DeleteSessions(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to evict session from cache", "session_id", sessionID, "error", err)
	}
	return nil
}

// RequestPasswordReset issues a reset token if the account exists. The
// caller cannot tell whether it did.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, hash, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}

	if err := s.resets.StoreResetToken(ctx, hash, user.ID); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs
// out every session of the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return ErrWeakPassword
	}

	userID, err := s.resets.ConsumeResetToken(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncAuthAttempt("reset", "failure")
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.sessions.RevokeUserSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.sessionCache.DeleteSessions(ctx, revoked...); err != nil {
		s.logger.WarnContext(ctx, "failed to evict sessions from cache", "user_id", userID, "error", err)
	}

	s.metrics.IncAuthAttempt("reset", "success")
	return nil
}

// Authenticate validates a bearer token and its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.AuthContext, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	now := s.now()

	cached, err := s.sessionCache.GetSession(ctx, claims.SessionID)
	if err == nil && cached != nil {
		ac, ok := cached.ToAuthContext(claims.SessionID, now)
		if !ok || ac.UserID != claims.Subject {
			return nil, ErrUnauthorized
		}
		return ac, nil
	}

	session, role, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := s.sessionCache.SetSession(ctx, session.ID, session.ToCachedSession(role)); err != nil {
		s.logger.WarnContext(ctx, "failed to cache session", "error", err)
	}

	if !session.IsValid(now) || session.UserID != claims.Subject {
		return nil, ErrUnauthorized
	}

	s.touchAsync(session.ID)

	return &model.AuthContext{
		SessionID: session.ID,
		UserID:    session.UserID,
		Role:      role,
		Provider:  session.Provider,
	}, nil
}

func (s *AuthService) touchAsync(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := s.sessions.TouchSession(ctx, sessionID); err != nil {
			s.logger.Debug("failed to touch session", "session_id", sessionID, "error", err)
		}
	}()
}

func (s *AuthService) openSession(ctx context.Context, user *model.User, provider, userAgent string) (*model.AuthResponse, error) {
	now := s.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Provider:  provider,
		UserAgent: truncate(userAgent, 500),
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, session.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if err := s.sessionCache.SetSession(ctx, session.ID, session.ToCachedSession(user.Role)); err != nil {
		s.logger.WarnContext(ctx, "failed to cache session", "error", err)
	}

	return &model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
