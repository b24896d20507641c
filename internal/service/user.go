package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

const maxBioLength = 500

// UserService handles profile reads and edits.
type UserService struct {
	users UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// GetMe returns the caller's full account.
func (s *UserService) GetMe(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetProfile returns the public part of another user's account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.PublicProfile, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.ToPublicProfile()
	return &profile, nil
}

// UpdateProfileInput holds optional profile changes. Nil fields are left as is.
type UpdateProfileInput struct {
	Username    *string
	Bio         *string
	AvatarURL   *string
	Preferences map[string]any
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrUsernameRequired
		}
		user.Username = username
	}
	if input.Bio != nil {
		if utf8.RuneCountInString(*input.Bio) > maxBioLength {
			return nil, ErrBioTooLong
		}
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}
	if input.Preferences != nil {
		user.Preferences = input.Preferences
	}

	if err := s.users.UpdateUserProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}
