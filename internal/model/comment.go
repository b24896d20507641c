// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Comment is a user comment on a recipe, optionally carrying the rating
// that was submitted with it.
type Comment struct {
	ID            string    `json:"id"`
	RecipeID      string    `json:"recipe_id"`
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	UserAvatarURL string    `json:"user_avatar_url,omitempty"`
	Text          string    `json:"text"`
	Rating        float64   `json:"rating"`
	LikeCount     int       `json:"like_count"`
	LikedUserIDs  []string  `json:"liked_user_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsLikedBy checks whether userID has liked the comment.
func (c *Comment) IsLikedBy(userID string) bool {
	return slices.Contains(c.LikedUserIDs, userID)
}

// LikeResult is the state of a comment after a like toggle.
type LikeResult struct {
	CommentID string `json:"comment_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
}

// Rating is one user's score for a recipe. A user has at most one rating
// per recipe.
type Rating struct {
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	Value     int       `json:"value"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// IsValidRating reports whether v is within the accepted range.
func IsValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// RatingSummary is the aggregate rating of a recipe.
type RatingSummary struct {
	RecipeID string  `json:"recipe_id"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
}
