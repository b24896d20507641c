package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for premium repository operations.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

const subscriptionColumns = `user_id, is_premium, start_date, end_date, type, auto_renew,
	payment_method, price::float8, status, created_at, updated_at`

// UpsertSubscription creates or replaces the user's subscription.
func (r *Repository) UpsertSubscription(ctx context.Context, s *model.PremiumSubscription) error {
	query := `
		INSERT INTO premium_subscriptions (user_id, is_premium, start_date, end_date, type, auto_renew,
			payment_method, price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			is_premium = EXCLUDED.is_premium,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			type = EXCLUDED.type,
			auto_renew = EXCLUDED.auto_renew,
			payment_method = EXCLUDED.payment_method,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		s.UserID,
		s.IsPremium,
		s.StartDate,
		s.EndDate,
		s.Type,
		s.AutoRenew,
		s.PaymentMethod,
		s.Price,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

// GetSubscription returns the user's subscription.
func (r *Repository) GetSubscription(ctx context.Context, userID string) (*model.PremiumSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM premium_subscriptions WHERE user_id = $1`

	s, err := scanSubscription(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return s, nil
}

// UpdateSubscription persists the mutable subscription fields.
func (r *Repository) UpdateSubscription(ctx context.Context, s *model.PremiumSubscription) error {
	query := `
		UPDATE premium_subscriptions
		SET is_premium = $2, end_date = $3, type = $4, auto_renew = $5, price = $6,
			status = $7, updated_at = $8
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.UserID, s.IsPremium, s.EndDate, s.Type, s.AutoRenew, s.Price, s.Status, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// ListActiveSubscriptions returns subscriptions with status active.
func (r *Repository) ListActiveSubscriptions(ctx context.Context) ([]*model.PremiumSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM premium_subscriptions
		WHERE status = 'active'
		ORDER BY end_date ASC NULLS LAST`

	return r.querySubscriptions(ctx, query)
}

// ListExpiringSubscriptions returns active subscriptions ending at or
// before the given time.
func (r *Repository) ListExpiringSubscriptions(ctx context.Context, before time.Time) ([]*model.PremiumSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM premium_subscriptions
		WHERE status = 'active' AND end_date IS NOT NULL AND end_date <= $1
		ORDER BY end_date ASC`

	return r.querySubscriptions(ctx, query, before)
}

// ListLapsedSubscriptions returns active subscriptions whose end date is
// before now; the renewal sweep either renews or expires them.
func (r *Repository) ListLapsedSubscriptions(ctx context.Context, now time.Time, limit int) ([]*model.PremiumSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM premium_subscriptions
		WHERE status = 'active' AND end_date IS NOT NULL AND end_date < $1
		ORDER BY end_date ASC
		LIMIT $2`

	return r.querySubscriptions(ctx, query, now, limit)
}

// GetPremiumStatistics aggregates subscription counters. A subscription
// counts as active with the same rule as PremiumSubscription.IsActive.
func (r *Repository) GetPremiumStatistics(ctx context.Context, now time.Time) (*model.PremiumStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_premium AND status = 'active' AND end_date > $1),
			COUNT(*) FILTER (WHERE type = 'monthly'),
			COUNT(*) FILTER (WHERE type = 'yearly'),
			COALESCE(SUM(price), 0)::float8
		FROM premium_subscriptions
	`

	var stats model.PremiumStatistics
	err := r.pool.QueryRow(ctx, query, now).Scan(
		&stats.TotalPremium,
		&stats.ActivePremium,
		&stats.MonthlySubscriptions,
		&stats.YearlySubscriptions,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get premium statistics: %w", err)
	}

	return &stats, nil
}

func (r *Repository) querySubscriptions(ctx context.Context, query string, args ...any) ([]*model.PremiumSubscription, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*model.PremiumSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

func scanSubscription(row pgx.Row) (*model.PremiumSubscription, error) {
	var s model.PremiumSubscription
	err := row.Scan(
		&s.UserID,
		&s.IsPremium,
		&s.StartDate,
		&s.EndDate,
		&s.Type,
		&s.AutoRenew,
		&s.PaymentMethod,
		&s.Price,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return &s, err
}
