package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// DefaultNotificationLimit caps inbox listings.
const DefaultNotificationLimit = 50

// ReminderStore persists reminders and the notification inbox.
type ReminderStore interface {
	CreateReminder(ctx context.Context, rem *model.CookingReminder) error
	GetReminder(ctx context.Context, userID, id string) (*model.CookingReminder, error)
	ListReminders(ctx context.Context, userID string, includeInactive bool) ([]*model.CookingReminder, error)
	ListUpcomingReminders(ctx context.Context, userID string, now time.Time) ([]*model.CookingReminder, error)
	UpdateReminder(ctx context.Context, rem *model.CookingReminder) error
	DeleteReminder(ctx context.Context, userID, id string) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) error
}

// ReminderService manages cooking reminders. Delivery is done by the
// reminder worker.
type ReminderService struct {
	store   ReminderStore
	recipes RecipeReader
	now     func() time.Time
}

// NewReminderService creates a new ReminderService.
func NewReminderService(store ReminderStore, recipes RecipeReader) *ReminderService {
	return &ReminderService{
		store:   store,
		recipes: recipes,
		now:     defaultNow,
	}
}

// CreateReminderInput defines input for scheduling a reminder.
type CreateReminderInput struct {
	RecipeID      string
	ScheduledTime time.Time
	Type          string
	Message       string
	Metadata      map[string]any
}

// Create schedules a reminder for a recipe.
// The recipe title and image are copied onto the reminder.
func (s *ReminderService) Create(ctx context.Context, userID string, input CreateReminderInput) (*model.CookingReminder, error) {
	now := s.now()
	if !input.ScheduledTime.After(now) {
		return nil, ErrScheduledInPast
	}

	rt := model.ReminderCook
	if input.Type != "" {
		rt = model.ReminderType(input.Type)
		if !model.IsValidReminderType(rt) {
			return nil, ErrInvalidReminderType
		}
	}

	recipe, err := s.recipes.GetRecipeByID(ctx, input.RecipeID)
	if err != nil {
		return nil, err
	}

	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	rem := &model.CookingReminder{
		ID:             ulid.Make().String(),
		UserID:         userID,
		RecipeID:       recipe.ID,
		RecipeTitle:    recipe.Title,
		RecipeImageURL: recipe.ImageURL,
		ScheduledTime:  input.ScheduledTime.UTC(),
		Type:           rt,
		Message:        strings.TrimSpace(input.Message),
		IsActive:       true,
		Metadata:       metadata,
		DeliveryStatus: model.DeliveryStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateReminder(ctx, rem); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	return rem, nil
}

// List returns the user's reminders by scheduled time.
func (s *ReminderService) List(ctx context.Context, userID string, includeInactive bool) ([]*model.CookingReminder, error) {
	reminders, err := s.store.ListReminders(ctx, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return nonNilReminders(reminders), nil
}

// ListUpcoming returns reminders that will still fire.
func (s *ReminderService) ListUpcoming(ctx context.Context, userID string) ([]*model.CookingReminder, error) {
	reminders, err := s.store.ListUpcomingReminders(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming reminders: %w", err)
	}
	return nonNilReminders(reminders), nil
}

// Get returns one of the user's reminders.
func (s *ReminderService) Get(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	rem, err := s.store.GetReminder(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

// Reschedule moves a reminder to a new future time and makes it
// deliverable again.
func (s *ReminderService) Reschedule(ctx context.Context, userID, id string, at time.Time) (*model.CookingReminder, error) {
	now := s.now()
	if !at.After(now) {
		return nil, ErrScheduledInPast
	}

	return s.mutate(ctx, userID, id, func(rem *model.CookingReminder) {
		rem.ScheduledTime = at.UTC()
		rem.DeliveryStatus = model.DeliveryStatusPending
		rem.Attempts = 0
		rem.NextAttemptAt = nil
		rem.LastError = ""
		rem.UpdatedAt = now
	})
}

// Complete marks a reminder as done.
func (s *ReminderService) Complete(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	now := s.now()
	return s.mutate(ctx, userID, id, func(rem *model.CookingReminder) {
		rem.MarkCompleted(now)
	})
}

// Cancel deactivates a reminder without deleting it.
func (s *ReminderService) Cancel(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	now := s.now()
	return s.mutate(ctx, userID, id, func(rem *model.CookingReminder) {
		rem.Cancel(now)
	})
}

// Delete removes a reminder.
func (s *ReminderService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteReminder(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

func (s *ReminderService) mutate(ctx context.Context, userID, id string, apply func(*model.CookingReminder)) (*model.CookingReminder, error) {
	rem, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	apply(rem)

	if err := s.store.UpdateReminder(ctx, rem); err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return rem, nil
}

// ListNotifications returns the user's inbox, newest first.
func (s *ReminderService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultNotificationLimit
	}

	notifications, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}
	return notifications, nil
}

// MarkRead marks a notification as read.
func (s *ReminderService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.store.MarkNotificationRead(ctx, userID, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func nonNilReminders(reminders []*model.CookingReminder) []*model.CookingReminder {
	if reminders == nil {
		return []*model.CookingReminder{}
	}
	return reminders
}
