package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestUpdateProfile(t *testing.T) {
	store := newMemStore()
	seedUser(store, "u1", "cook")
	svc := NewUserService(store)
	ctx := context.Background()

	blank := " "
	if _, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{Username: &blank}); !errors.Is(err, ErrUsernameRequired) {
		t.Fatalf("blank username error = %v", err)
	}

	long := strings.Repeat("é", maxBioLength+1)
	if _, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{Bio: &long}); !errors.Is(err, ErrBioTooLong) {
		t.Fatalf("long bio error = %v", err)
	}

	name, bio := "chef", strings.Repeat("é", maxBioLength)
	user, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{
		Username:    &name,
		Bio:         &bio,
		Preferences: map[string]any{"units": "metric"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Username != "chef" || user.Preferences["units"] != "metric" {
		t.Errorf("unexpected user: %+v", user)
	}

	profile, err := svc.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Username != "chef" {
		t.Errorf("profile username = %q", profile.Username)
	}

	if _, err := svc.GetMe(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetMe(missing) error = %v", err)
	}
}
