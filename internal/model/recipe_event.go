// Package model defines domain entities for the application.
package model

import "time"

// RecipeEventType names an engagement event on a recipe.
type RecipeEventType string

const (
	EventRecipeViewed      RecipeEventType = "recipe.viewed"
	EventRecipeFavorited   RecipeEventType = "recipe.favorited"
	EventRecipeUnfavorited RecipeEventType = "recipe.unfavorited"
	EventRecipeCommented   RecipeEventType = "recipe.commented"
	EventRecipeRated       RecipeEventType = "recipe.rated"
)

// IsValid checks if the event type is known.
func (t RecipeEventType) IsValid() bool {
	switch t {
	case EventRecipeViewed, EventRecipeFavorited, EventRecipeUnfavorited,
		EventRecipeCommented, EventRecipeRated:
		return true
	}
	return false
}

// RecipeEvent represents a single engagement event.
type RecipeEvent struct {
	ID         string          `json:"id"`       // ULID (time-sortable)
	EventID    string          `json:"event_id"` // Idempotency key (Redis stream ID)
	Type       RecipeEventType `json:"type"`
	RecipeID   string          `json:"recipe_id"`
	UserID     string          `json:"user_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"` // DB insertion time
}

// DailyRecipeStats represents pre-aggregated daily counters for a recipe.
type DailyRecipeStats struct {
	RecipeID    string    `json:"recipe_id"`
	Date        time.Time `json:"date"` // UTC date (time component zeroed)
	Views       int64     `json:"views"`
	Favorites   int64     `json:"favorites"`
	Unfavorites int64     `json:"unfavorites"`
	Comments    int64     `json:"comments"`
	Ratings     int64     `json:"ratings"`
}

// RecipeStatsResponse represents the stats API response.
type RecipeStatsResponse struct {
	RecipeID string `json:"recipe_id"`
	Period   struct {
		From string `json:"from"` // ISO date
		To   string `json:"to"`   // ISO date
	} `json:"period"`
	Totals      DailyRecipeStats   `json:"totals"`
	Daily       []DailyRecipeStats `json:"daily"`
	GeneratedAt time.Time          `json:"generated_at"`
}
