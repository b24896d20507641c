package model

import (
	"testing"
	"time"
)

func TestSession_IsValid(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	testCases := []struct {
		name    string
		session Session
		want    bool
	}{
		{
			name:    "active",
			session: Session{ExpiresAt: now.Add(time.Hour)},
			want:    true,
		},
		{
			name:    "expired",
			session: Session{ExpiresAt: now.Add(-time.Second)},
			want:    false,
		},
		{
			name:    "revoked",
			session: Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked},
			want:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.IsValid(now); got != tc.want {
				t.Errorf("IsValid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCachedSession_ToAuthContext(t *testing.T) {
	now := time.Now()
	s := &Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Provider:  ProviderGoogle,
		ExpiresAt: now.Add(time.Hour),
	}

	ac, ok := s.ToCachedSession(RoleAdmin).ToAuthContext(s.ID, now)
	if !ok {
		t.Fatal("expected valid auth context")
	}
	if ac.UserID != "user-1" || ac.SessionID != "sess-1" {
		t.Errorf("unexpected auth context: %+v", ac)
	}
	if !ac.IsAdmin() {
		t.Error("expected admin role to survive caching")
	}
	if ac.Provider != ProviderGoogle {
		t.Errorf("Provider = %s, want google", ac.Provider)
	}
}

func TestCachedSession_ToAuthContext_Rejects(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name   string
		cached CachedSession
	}{
		{"revoked", CachedSession{UserID: "u", Revoked: "1", ExpiresAt: "9999999999"}},
		{"expired", CachedSession{UserID: "u", Revoked: "0", ExpiresAt: "1"}},
		{"malformed expiry", CachedSession{UserID: "u", Revoked: "0", ExpiresAt: "soon"}},
		{"missing user", CachedSession{Revoked: "0", ExpiresAt: "9999999999"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := tc.cached.ToAuthContext("s", now); ok {
				t.Error("expected rejection")
			}
		})
	}
}

func TestUser_ToPublicProfile(t *testing.T) {
	u := &User{
		ID:           "user-1",
		Username:     "cook",
		Email:        "cook@example.com",
		PasswordHash: "$argon2id$...",
		Bio:          "hi",
	}

	p := u.ToPublicProfile()
	if p.ID != u.ID || p.Username != u.Username || p.Bio != u.Bio {
		t.Errorf("unexpected profile: %+v", p)
	}
}
