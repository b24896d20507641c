package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// RoleStore changes account roles and lists the sessions they affect.
type RoleStore interface {
	SetUserRoleByEmail(ctx context.Context, email, role string) (string, error)
	ListLiveSessionIDs(ctx context.Context, userID string) ([]string, error)
}

// SessionEvicter drops cached session lookups.
type SessionEvicter interface {
	DeleteSessions(ctx context.Context, sessionIDs ...string) error
}

// RoleService promotes and demotes accounts.
type RoleService struct {
	store   RoleStore
	evicter SessionEvicter
	logger  *slog.Logger
}

// NewRoleService creates a new RoleService. evicter may be nil when no
// session cache is reachable; cached roles then expire with the cache TTL.
func NewRoleService(store RoleStore, evicter SessionEvicter, logger *slog.Logger) *RoleService {
	return &RoleService{store: store, evicter: evicter, logger: logger.With("component", "roles")}
}

// ChangeRole sets the role of the account with email and evicts its cached
// sessions so the new role applies on the next request. It returns the
// number of sessions evicted.
func (s *RoleService) ChangeRole(ctx context.Context, email, role string) (int, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return 0, ErrInvalidRole
	}

	userID, err := s.store.SetUserRoleByEmail(ctx, normalizeEmail(email), role)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("set role: %w", err)
	}

	if s.evicter == nil {
		s.logger.WarnContext(ctx, "no session cache configured, cached roles expire on their own", "user_id", userID)
		return 0, nil
	}

	ids, err := s.store.ListLiveSessionIDs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	if err := s.evicter.DeleteSessions(ctx, ids...); err != nil {
		return 0, fmt.Errorf("evict sessions: %w", err)
	}

	s.logger.InfoContext(ctx, "role changed",
		"user_id", userID,
		"role", role,
		"sessions_evicted", len(ids),
	)
	return len(ids), nil
}
