package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for reminder and notification operations.
var (
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

const reminderColumns = `id, user_id, recipe_id, recipe_title, recipe_image_url, scheduled_time,
	type, message, is_active, is_completed, metadata, delivery_status, attempts,
	next_attempt_at, last_error, delivered_at, created_at, updated_at`

// CreateReminder inserts a new reminder.
func (r *Repository) CreateReminder(ctx context.Context, rem *model.CookingReminder) error {
	metadata, err := marshalMap(rem.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cooking_reminders (id, user_id, recipe_id, recipe_title, recipe_image_url,
			scheduled_time, type, message, is_active, is_completed, metadata, delivery_status,
			attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query,
		rem.ID,
		rem.UserID,
		rem.RecipeID,
		rem.RecipeTitle,
		rem.RecipeImageURL,
		rem.ScheduledTime,
		rem.Type,
		rem.Message,
		rem.IsActive,
		rem.IsCompleted,
		metadata,
		rem.DeliveryStatus,
		rem.Attempts,
		rem.CreatedAt,
		rem.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to insert reminder: %w", err)
	}

	return nil
}

// GetReminder returns a reminder owned by userID.
func (r *Repository) GetReminder(ctx context.Context, userID, id string) (*model.CookingReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM cooking_reminders WHERE id = $1 AND user_id = $2`

	rem, err := scanReminder(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return rem, nil
}

// ListReminders returns the user's reminders ordered by scheduled time.
// Inactive reminders are skipped unless includeInactive is set.
func (r *Repository) ListReminders(ctx context.Context, userID string, includeInactive bool) ([]*model.CookingReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM cooking_reminders
		WHERE user_id = $1 AND ($2 OR is_active)
		ORDER BY scheduled_time ASC, id ASC`

	return r.queryReminders(ctx, query, userID, includeInactive)
}

// ListUpcomingReminders returns active, uncompleted reminders scheduled after now.
func (r *Repository) ListUpcomingReminders(ctx context.Context, userID string, now time.Time) ([]*model.CookingReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM cooking_reminders
		WHERE user_id = $1 AND is_active AND NOT is_completed AND scheduled_time > $2
		ORDER BY scheduled_time ASC, id ASC`

	return r.queryReminders(ctx, query, userID, now)
}

// UpdateReminder persists the user-editable reminder state. A reschedule
// resets delivery bookkeeping so the worker picks the reminder up again.
func (r *Repository) UpdateReminder(ctx context.Context, rem *model.CookingReminder) error {
	query := `
		UPDATE cooking_reminders
		SET scheduled_time = $3,
			is_active = $4,
			is_completed = $5,
			message = $6,
			delivery_status = $7,
			attempts = $8,
			next_attempt_at = $9,
			last_error = $10,
			updated_at = $11
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		rem.ID,
		rem.UserID,
		rem.ScheduledTime,
		rem.IsActive,
		rem.IsCompleted,
		rem.Message,
		rem.DeliveryStatus,
		rem.Attempts,
		rem.NextAttemptAt,
		rem.LastError,
		rem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReminderNotFound
	}

	return nil
}

// DeleteReminder removes a reminder owned by userID.
func (r *Repository) DeleteReminder(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM cooking_reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// ListNotifications returns the user's inbox, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, reminder_id, recipe_id, title, body, read_at, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.ReminderID,
			&n.RecipeID,
			&n.Title,
			&n.Body,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead sets read_at on an unread notification. Marking an
// already-read notification succeeds without changing read_at.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
	`, id, userID, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) queryReminders(ctx context.Context, query string, args ...any) ([]*model.CookingReminder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*model.CookingReminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

func scanReminder(row pgx.Row) (*model.CookingReminder, error) {
	var rem model.CookingReminder
	var metadata []byte

	if err := row.Scan(
		&rem.ID,
		&rem.UserID,
		&rem.RecipeID,
		&rem.RecipeTitle,
		&rem.RecipeImageURL,
		&rem.ScheduledTime,
		&rem.Type,
		&rem.Message,
		&rem.IsActive,
		&rem.IsCompleted,
		&metadata,
		&rem.DeliveryStatus,
		&rem.Attempts,
		&rem.NextAttemptAt,
		&rem.LastError,
		&rem.DeliveredAt,
		&rem.CreatedAt,
		&rem.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rem.Metadata = unmarshalMap(metadata)
	return &rem, nil
}
