package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, username, email, password_hash, COALESCE(google_sub, ''), avatar_url, bio, role,
	is_premium, premium_activated_at, premium_expired_at, preferences, saved_recipes,
	following_count, followers_count, created_at, last_login_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, google_sub, avatar_url, bio, role,
			is_premium, preferences, saved_recipes, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	prefs, err := marshalMap(user.Preferences)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		strings.ToLower(user.Email),
		user.PasswordHash,
		nullableString(user.GoogleSub),
		user.AvatarURL,
		user.Bio,
		roleOrDefault(user.Role),
		user.IsPremium,
		prefs,
		nonNilStrings(user.SavedRecipes),
		user.CreatedAt,
		user.LastLoginAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpsertUser inserts or replaces a user, keyed by id. Used by imports.
func (r *Repository) UpsertUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, google_sub, avatar_url, bio, role,
			is_premium, premium_activated_at, premium_expired_at, preferences, saved_recipes,
			following_count, followers_count, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			is_premium = EXCLUDED.is_premium,
			premium_activated_at = EXCLUDED.premium_activated_at,
			premium_expired_at = EXCLUDED.premium_expired_at,
			preferences = EXCLUDED.preferences,
			saved_recipes = EXCLUDED.saved_recipes,
			following_count = EXCLUDED.following_count,
			followers_count = EXCLUDED.followers_count,
			last_login_at = EXCLUDED.last_login_at
	`

	prefs, err := marshalMap(user.Preferences)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		strings.ToLower(user.Email),
		user.PasswordHash,
		nullableString(user.GoogleSub),
		user.AvatarURL,
		user.Bio,
		roleOrDefault(user.Role),
		user.IsPremium,
		user.PremiumActivatedAt,
		user.PremiumExpiredAt,
		prefs,
		nonNilStrings(user.SavedRecipes),
		user.FollowingCount,
		user.FollowersCount,
		user.CreatedAt,
		user.LastLoginAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address (case-insensitive).
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByGoogleSub retrieves a user by Google subject identifier.
func (r *Repository) GetUserByGoogleSub(ctx context.Context, sub string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_sub = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, sub))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by google sub: %w", err)
	}

	return user, nil
}

// LinkGoogleAccount attaches a Google subject to an existing account.
func (r *Repository) LinkGoogleAccount(ctx context.Context, userID, sub, avatarURL string) error {
	query := `
		UPDATE users
		SET google_sub = $2,
			avatar_url = CASE WHEN avatar_url = '' THEN $3 ELSE avatar_url END
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, sub, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateUserProfile updates the editable profile fields.
func (r *Repository) UpdateUserProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $2, bio = $3, avatar_url = $4, preferences = $5
		WHERE id = $1
	`

	prefs, err := marshalMap(user.Preferences)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Bio, user.AvatarURL, prefs)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateLastLogin records a successful sign-in.
func (r *Repository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserPremium flips the stored premium flag. Activation stamps
// premium_activated_at; deactivation stamps premium_expired_at.
func (r *Repository) SetUserPremium(ctx context.Context, userID string, premium bool, at time.Time) error {
	query := `
		UPDATE users
		SET is_premium = $2,
			premium_activated_at = CASE WHEN $2 THEN $3 ELSE premium_activated_at END,
			premium_expired_at = CASE WHEN $2 THEN premium_expired_at ELSE $3 END
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, premium, at)
	if err != nil {
		return fmt.Errorf("failed to set user premium: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserRoleByEmail changes the role of the account with email and
// returns its id.
func (r *Repository) SetUserRoleByEmail(ctx context.Context, email, role string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2 WHERE LOWER(email) = LOWER($1) RETURNING id`,
		email, role,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to set user role: %w", err)
	}
	return id, nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	var prefs []byte

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleSub,
		&user.AvatarURL,
		&user.Bio,
		&user.Role,
		&user.IsPremium,
		&user.PremiumActivatedAt,
		&user.PremiumExpiredAt,
		&prefs,
		&user.SavedRecipes,
		&user.FollowingCount,
		&user.FollowersCount,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	user.Preferences = unmarshalMap(prefs)
	return &user, nil
}

func roleOrDefault(role string) string {
	if role == "" {
		return model.RoleUser
	}
	return role
}

// nullableString returns nil for empty strings.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

func unmarshalMap(b []byte) map[string]any {
	m := map[string]any{}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &m)
	}
	return m
}
