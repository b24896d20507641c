// Package model defines domain entities for the application.
package model

import "time"

// Role constants for user authorization.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Auth providers a session can be opened with.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User represents an account and its public profile.
type User struct {
	ID                 string         `json:"id"`
	Username           string         `json:"username"`
	Email              string         `json:"email"`
	PasswordHash       string         `json:"-"`
	GoogleSub          string         `json:"-"`
	AvatarURL          string         `json:"avatar_url,omitempty"`
	Bio                string         `json:"bio,omitempty"`
	Role               string         `json:"role"`
	IsPremium          bool           `json:"is_premium"`
	PremiumActivatedAt *time.Time     `json:"premium_activated_at,omitempty"`
	PremiumExpiredAt   *time.Time     `json:"premium_expired_at,omitempty"`
	Preferences        map[string]any `json:"preferences"`
	SavedRecipes       []string       `json:"saved_recipes"`
	FollowingCount     int64          `json:"following_count"`
	FollowersCount     int64          `json:"followers_count"`
	CreatedAt          time.Time      `json:"created_at"`
	LastLoginAt        *time.Time     `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword returns true if the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// PublicProfile is the subset of a user visible to other users.
type PublicProfile struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	IsPremium      bool      `json:"is_premium"`
	FollowingCount int64     `json:"following_count"`
	FollowersCount int64     `json:"followers_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToPublicProfile strips private fields from the user.
func (u *User) ToPublicProfile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		AvatarURL:      u.AvatarURL,
		Bio:            u.Bio,
		IsPremium:      u.IsPremium,
		FollowingCount: u.FollowingCount,
		FollowersCount: u.FollowersCount,
		CreatedAt:      u.CreatedAt,
	}
}
