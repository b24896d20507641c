// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Session represents a signed-in device. The session id is carried in the
// access token so that signing out can revoke it before the token expires.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Provider   string     `json:"provider"`
	UserAgent  string     `json:"user_agent,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// IsRevoked returns true if the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid returns true if the session is neither revoked nor expired at now.
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsRevoked() && now.Before(s.ExpiresAt)
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	SessionID string
	UserID    string
	Role      string
	Provider  string
}

// IsAdmin checks if the authenticated user is an admin.
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CachedSession is the Redis representation of a session lookup.
type CachedSession struct {
	UserID    string `redis:"user_id"`
	Role      string `redis:"role"`
	Provider  string `redis:"provider"`
	ExpiresAt string `redis:"expires_at"` // Unix timestamp
	Revoked   string `redis:"revoked"`    // "1" or "0"
}

// ToCachedSession converts a session and the owner's role to cache form.
func (s *Session) ToCachedSession(role string) *CachedSession {
	return &CachedSession{
		UserID:    s.UserID,
		Role:      role,
		Provider:  s.Provider,
		ExpiresAt: strconv.FormatInt(s.ExpiresAt.Unix(), 10),
		Revoked:   boolToString(s.IsRevoked()),
	}
}

// ToAuthContext converts a cached session into an AuthContext.
// ok is false when the session is revoked, expired or malformed.
func (c *CachedSession) ToAuthContext(sessionID string, now time.Time) (*AuthContext, bool) {
	if c.Revoked == "1" || c.UserID == "" {
		return nil, false
	}
	ts, err := strconv.ParseInt(c.ExpiresAt, 10, 64)
	if err != nil || !now.Before(time.Unix(ts, 0)) {
		return nil, false
	}
	return &AuthContext{
		SessionID: sessionID,
		UserID:    c.UserID,
		Role:      c.Role,
		Provider:  c.Provider,
	}, true
}

// AuthResponse is returned by every successful sign-in flow.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
	Created   bool      `json:"created"`
}
