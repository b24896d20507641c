package dto

import "time"

// CreateReminderRequest is the body of POST /api/v1/reminders.
type CreateReminderRequest struct {
	RecipeID      string         `json:"recipe_id" validate:"required"`
	ScheduledTime time.Time      `json:"scheduled_time" validate:"required"`
	Type          string         `json:"type,omitempty" validate:"omitempty,oneof=cook prep custom shopping meal_prep"`
	Message       string         `json:"message,omitempty" validate:"max=500"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// RescheduleRequest moves a reminder to a new time.
type RescheduleRequest struct {
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
}
