package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for session repository operations.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// CreateSession inserts a new session.
func (r *Repository) CreateSession(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, provider, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Provider,
		s.UserAgent,
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session together with the owner's role.
func (r *Repository) GetSession(ctx context.Context, id string) (*model.Session, string, error) {
	query := `
		SELECT s.id, s.user_id, s.provider, s.user_agent, s.created_at, s.expires_at,
			   s.revoked_at, s.last_seen_at, u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`

	var s model.Session
	var role string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Provider,
		&s.UserAgent,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.RevokedAt,
		&s.LastSeenAt,
		&role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrSessionNotFound
		}
		return nil, "", fmt.Errorf("failed to get session: %w", err)
	}

	return &s, role, nil
}

// RevokeSession revokes a session by setting revoked_at.
func (r *Repository) RevokeSession(ctx context.Context, id string) error {
	query := `
		UPDATE sessions
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// RevokeUserSessions revokes every live session of a user and returns
// the revoked ids so callers can evict them from cache.
func (r *Repository) RevokeUserSessions(ctx context.Context, userID string) ([]string, error) {
	query := `
		UPDATE sessions
		SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
		RETURNING id
	`

	rows, err := r.pool.Query(ctx, query, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect revoked sessions: %w", err)
	}

	return ids, nil
}

// ListLiveSessionIDs returns the ids of a user's unrevoked, unexpired sessions.
func (r *Repository) ListLiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM sessions
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
	`, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect sessions: %w", err)
	}
	return ids, nil
}

// TouchSession updates the last_seen_at timestamp.
// Should be called asynchronously after successful authentication.
func (r *Repository) TouchSession(ctx context.Context, id string) error {
	query := `
		UPDATE sessions
		SET last_seen_at = $2
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update session last seen: %w", err)
	}

	return nil
}
