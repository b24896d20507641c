// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// ReminderType classifies cooking reminders.
type ReminderType string

const (
	ReminderCook     ReminderType = "cook"
	ReminderPrep     ReminderType = "prep"
	ReminderCustom   ReminderType = "custom"
	ReminderShopping ReminderType = "shopping"
	ReminderMealPrep ReminderType = "meal_prep"
)

// ValidReminderTypes contains all valid reminder types.
var ValidReminderTypes = []ReminderType{
	ReminderCook,
	ReminderPrep,
	ReminderCustom,
	ReminderShopping,
	ReminderMealPrep,
}

// IsValidReminderType checks if a reminder type is valid.
func IsValidReminderType(rt ReminderType) bool {
	return slices.Contains(ValidReminderTypes, rt)
}

// DeliveryStatus represents reminder delivery state.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Notification texts for delivered reminders.
const (
	ReminderNotificationTitle  = "Recipe Reminder"
	reminderNotificationPrefix = "It's time to check: "
)

// CookingReminder is a user-scheduled reminder tied to a recipe.
type CookingReminder struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	RecipeID       string         `json:"recipe_id"`
	RecipeTitle    string         `json:"recipe_title"`
	RecipeImageURL string         `json:"recipe_image_url,omitempty"`
	ScheduledTime  time.Time      `json:"scheduled_time"`
	Type           ReminderType   `json:"type"`
	Message        string         `json:"message,omitempty"`
	IsActive       bool           `json:"is_active"`
	IsCompleted    bool           `json:"is_completed"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	Attempts       int            `json:"attempts"`
	NextAttemptAt  *time.Time     `json:"-"`
	LastError      string         `json:"last_error,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsPastDue returns true if the scheduled time has passed.
func (r *CookingReminder) IsPastDue(now time.Time) bool {
	return r.ScheduledTime.Before(now)
}

// IsUpcoming returns true if the reminder will still fire.
func (r *CookingReminder) IsUpcoming(now time.Time) bool {
	return r.ScheduledTime.After(now) && r.IsActive && !r.IsCompleted
}

// MarkCompleted flags the reminder as done.
func (r *CookingReminder) MarkCompleted(now time.Time) {
	r.IsCompleted = true
	r.UpdatedAt = now
}

// Cancel deactivates the reminder.
func (r *CookingReminder) Cancel(now time.Time) {
	r.IsActive = false
	r.UpdatedAt = now
}

// IsDeliverable reports whether the worker may deliver the reminder now.
func (r *CookingReminder) IsDeliverable(now time.Time) bool {
	return r.IsActive && !r.IsCompleted &&
		r.DeliveryStatus == DeliveryStatusPending &&
		!r.ScheduledTime.After(now)
}

// NotificationBody returns the text shown when the reminder fires.
func (r *CookingReminder) NotificationBody() string {
	if r.Message != "" {
		return r.Message
	}
	return reminderNotificationPrefix + r.RecipeTitle
}

// DeliveryKey identifies one firing of the reminder. Rescheduling moves the
// reminder to a new time and therefore a new key, so the inbox entry and the
// webhook event id are deduplicated per firing rather than per reminder.
func (r *CookingReminder) DeliveryKey() string {
	return r.ID + "@" + r.ScheduledTime.UTC().Format("20060102T150405Z")
}

// Notification is an in-app inbox entry created by a delivered reminder.
type Notification struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ReminderID string `json:"reminder_id,omitempty"`
	// DeliveryKey is the reminder firing that produced the entry.
	DeliveryKey string     `json:"-"`
	RecipeID    string     `json:"recipe_id,omitempty"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ReminderPayload is the body sent to the reminder webhook.
type ReminderPayload struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Favorite is a user's bookmark of a recipe.
type Favorite struct {
	UserID   string    `json:"user_id"`
	RecipeID string    `json:"recipe_id"`
	AddedAt  time.Time `json:"added_at"`
}

// FavoriteKey is the document key used by the legacy store.
func FavoriteKey(userID, recipeID string) string {
	return userID + "_" + recipeID
}

// FavoriteState is returned by favorite mutations and checks.
type FavoriteState struct {
	RecipeID   string `json:"recipe_id"`
	IsFavorite bool   `json:"is_favorite"`
	Local      bool   `json:"local"`
}

// SyncResult reports a favorites reconciliation.
type SyncResult struct {
	Pushed int `json:"pushed"`
	Pulled int `json:"pulled"`
}
