// Package reminder delivers due cooking reminders to the in-app inbox and
// an optional signed webhook.
package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"

	"github.com/recipevault/recipevault/internal/model"
)

// ErrReminderNotFound is returned when a claimed reminder disappeared.
var ErrReminderNotFound = errors.New("reminder not found")

const maxErrorLength = 500

// Store handles the worker's reminder bookkeeping.
type Store struct {
	db *sql.DB
}

// NewStore creates a new reminder store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ClaimDue locks up to limit deliverable reminders and leases them until
// now+lease so concurrent workers skip them.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*model.CookingReminder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, user_id, recipe_id, recipe_title, recipe_image_url, scheduled_time,
			   type, message, attempts, created_at
		FROM cooking_reminders
		WHERE is_active
		  AND NOT is_completed
		  AND delivery_status = 'pending'
		  AND scheduled_time <= $1
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
		ORDER BY scheduled_time
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}

	var reminders []*model.CookingReminder
	var ids []string
	for rows.Next() {
		rem := &model.CookingReminder{
			IsActive:       true,
			DeliveryStatus: model.DeliveryStatusPending,
		}
		var reminderType string
		if err := rows.Scan(
			&rem.ID,
			&rem.UserID,
			&rem.RecipeID,
			&rem.RecipeTitle,
			&rem.RecipeImageURL,
			&rem.ScheduledTime,
			&reminderType,
			&rem.Message,
			&rem.Attempts,
			&rem.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		rem.Type = model.ReminderType(reminderType)
		reminders = append(reminders, rem)
		ids = append(ids, rem.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate due reminders: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	leaseUntil := now.Add(lease)
	if _, err := tx.ExecContext(ctx,
		`UPDATE cooking_reminders SET next_attempt_at = $2 WHERE id = ANY($1)`,
		pq.Array(ids), leaseUntil,
	); err != nil {
		return nil, fmt.Errorf("lease reminders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	return reminders, nil
}

// MarkDelivered records a successful delivery and writes the inbox entry.
// Redelivering the same firing (same delivery key) never duplicates the
// notification; a rescheduled reminder is a new firing and gets its own.
func (s *Store) MarkDelivered(ctx context.Context, rem *model.CookingReminder, n *model.Notification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delivery: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, reminder_id, delivery_key, recipe_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (delivery_key) WHERE delivery_key <> '' DO NOTHING
	`, n.ID, n.UserID, n.ReminderID, n.DeliveryKey, n.RecipeID, n.Title, n.Body, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE cooking_reminders
		SET delivery_status = 'delivered',
			attempts = attempts + 1,
			delivered_at = $2,
			next_attempt_at = NULL,
			last_error = '',
			updated_at = $2
		WHERE id = $1
	`, rem.ID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("update reminder delivered: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrReminderNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delivery: %w", err)
	}
	return nil
}

// MarkRetry records a failed attempt and schedules the next one.
func (s *Store) MarkRetry(ctx context.Context, id, errMsg string, nextAttemptAt, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cooking_reminders
		SET attempts = attempts + 1,
			next_attempt_at = $2,
			last_error = $3,
			updated_at = $4
		WHERE id = $1
	`, id, nextAttemptAt, truncateError(errMsg), now)
	if err != nil {
		return fmt.Errorf("update reminder retry: %w", err)
	}
	return nil
}

// MarkFailed records the final failed attempt.
func (s *Store) MarkFailed(ctx context.Context, id, errMsg string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cooking_reminders
		SET delivery_status = 'failed',
			attempts = attempts + 1,
			next_attempt_at = NULL,
			last_error = $2,
			updated_at = $3
		WHERE id = $1
	`, id, truncateError(errMsg), now)
	if err != nil {
		return fmt.Errorf("update reminder failed: %w", err)
	}
	return nil
}

// QueueDepth counts reminders that are due and still pending.
func (s *Store) QueueDepth(ctx context.Context, now time.Time) (int64, error) {
	var depth int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cooking_reminders
		WHERE is_active AND NOT is_completed
		  AND delivery_status = 'pending'
		  AND scheduled_time <= $1
	`, now).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("count due reminders: %w", err)
	}
	return depth, nil
}

func truncateError(msg string) string {
	if len(msg) <= maxErrorLength {
		return msg
	}
	cut := maxErrorLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
