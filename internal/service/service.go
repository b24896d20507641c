// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/recipevault/recipevault/internal/model"
)

// Service errors.
var (
	// auth and users
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrUsernameRequired    = errors.New("username is required")
	ErrBioTooLong          = errors.New("bio must be at most 500 characters")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrGoogleSignInFailed  = errors.New("google sign-in failed")
	ErrInvalidResetToken   = errors.New("reset token is invalid or expired")
	ErrUnauthorized        = errors.New("session is invalid or expired")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRole         = errors.New("role must be user or admin")
	ErrForbidden           = errors.New("not allowed to modify this resource")
	ErrFeatureNotAvailable = errors.New("feature requires premium")

	// recipes
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidDifficulty   = errors.New("difficulty must be Easy, Medium or Hard")
	ErrRecipeLimitReached  = errors.New("created recipe limit reached")
	ErrTooManyIDs          = errors.New("too many ids requested")
	ErrInvalidCursor       = errors.New("invalid cursor")

	// comments and ratings
	ErrInvalidRating            = errors.New("rating must be between 1 and 5")
	ErrCommentTextRequired      = errors.New("comment text is required")
	ErrCommentNotFound          = errors.New("comment not found")
	ErrRatingNotFound           = errors.New("rating not found")
	ErrRatingSavedCommentFailed = errors.New("rating saved but comment could not be added")

	// favorites
	ErrFavoriteLimitReached = errors.New("saved recipe limit reached")

	// premium
	ErrInvalidSubscriptionType = errors.New("subscription type must be monthly or yearly")
	ErrSubscriptionNotFound    = errors.New("subscription not found")

	// reminders
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrScheduledInPast      = errors.New("scheduled_time must be in the future")
	ErrInvalidReminderType  = errors.New("invalid reminder type")
	ErrNotificationNotFound = errors.New("notification not found")

	// images
	ErrInvalidImage      = errors.New("unsupported or corrupt image")
	ErrImageTooLarge     = errors.New("image dimensions exceed the pixel limit")
	ErrImageUploadFailed = errors.New("image upload failed")
	ErrImageHostDisabled = errors.New("image upload is not configured")
)

func defaultNow() time.Time {
	return time.Now().UTC()
}

// PremiumChecker answers premium questions for other services.
type PremiumChecker interface {
	IsPremiumUser(ctx context.Context, userID string) bool
}

// RecipeReader resolves recipes by id for other services.
type RecipeReader interface {
	GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error)
	GetRecipesByIDs(ctx context.Context, ids []string) ([]*model.Recipe, error)
}
