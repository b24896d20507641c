package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// SweepBatchSize caps how many lapsed subscriptions one sweep handles.
const SweepBatchSize = 500

// PremiumStore persists subscriptions and the user premium flag.
type PremiumStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	SetUserPremium(ctx context.Context, userID string, premium bool, at time.Time) error
	UpsertSubscription(ctx context.Context, s *model.PremiumSubscription) error
	GetSubscription(ctx context.Context, userID string) (*model.PremiumSubscription, error)
	UpdateSubscription(ctx context.Context, s *model.PremiumSubscription) error
	ListActiveSubscriptions(ctx context.Context) ([]*model.PremiumSubscription, error)
	ListExpiringSubscriptions(ctx context.Context, before time.Time) ([]*model.PremiumSubscription, error)
	ListLapsedSubscriptions(ctx context.Context, now time.Time, limit int) ([]*model.PremiumSubscription, error)
	GetPremiumStatistics(ctx context.Context, now time.Time) (*model.PremiumStatistics, error)
}

// PremiumService manages simulated premium subscriptions.
type PremiumService struct {
	store   PremiumStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPremiumService creates a new PremiumService.
func NewPremiumService(store PremiumStore, logger *slog.Logger, recorder metrics.Recorder) *PremiumService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PremiumService{
		store:   store,
		logger:  logger.With("component", "premium"),
		metrics: recorder,
		now:     defaultNow,
	}
}

// Upgrade starts or replaces the user's subscription. Payment always succeeds.
func (s *PremiumService) Upgrade(ctx context.Context, userID string, t model.SubscriptionType) (*model.PremiumSubscription, error) {
	if !t.IsValid() {
		return nil, ErrInvalidSubscriptionType
	}

	now := s.now()
	sub := model.NewSubscription(userID, t, now)

	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	if err := s.setUserPremium(ctx, userID, true, now); err != nil {
		return nil, err
	}

	s.metrics.IncPremiumChange("upgrade")
	s.logger.InfoContext(ctx, "premium upgraded", "user_id", userID, "type", t)
	return sub, nil
}

// IsPremiumUser reports whether the user currently has premium. A stale
// flag is cleared when the subscription is missing or inactive. Errors
// are logged and treated as not premium.
func (s *PremiumService) IsPremiumUser(ctx context.Context, userID string) bool {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "premium check failed", "user_id", userID, "error", err)
		return false
	}
	if !user.IsPremium {
		return false
	}

	now := s.now()
	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrSubscriptionNotFound) {
		s.logger.WarnContext(ctx, "premium check failed", "user_id", userID, "error", err)
		return false
	}

	if sub == nil || !sub.IsActive(now) {
		if err := s.store.SetUserPremium(ctx, userID, false, now); err != nil {
			s.logger.WarnContext(ctx, "failed to clear premium flag", "user_id", userID, "error", err)
		} else {
			s.metrics.IncPremiumChange("expire")
		}
		return false
	}

	return true
}

// GetSubscription returns the user's stored subscription.
func (s *PremiumService) GetSubscription(ctx context.Context, userID string) (*model.PremiumSubscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// GetStatus summarizes premium state and feature access for the user.
func (s *PremiumService) GetStatus(ctx context.Context, userID string) (*model.PremiumStatus, error) {
	premium := s.IsPremiumUser(ctx, userID)

	sub, err := s.GetSubscription(ctx, userID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	status := &model.PremiumStatus{
		IsPremium:    premium,
		Subscription: sub,
		Features:     make(map[string]bool, len(model.FreeFeatures)+len(model.PremiumFeatures)),
	}
	if sub != nil {
		status.DaysRemaining = sub.DaysRemaining(s.now())
	}
	for _, f := range model.FreeFeatures {
		status.Features[f] = true
	}
	for _, f := range model.PremiumFeatures {
		status.Features[f] = premium
	}

	return status, nil
}

// DaysRemaining returns whole days left on the subscription, 0 when none.
func (s *PremiumService) DaysRemaining(ctx context.Context, userID string) (int, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return sub.DaysRemaining(s.now()), nil
}

// Cancel stops renewal and removes premium immediately.
func (s *PremiumService) Cancel(ctx context.Context, userID string) (*model.PremiumSubscription, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub.AutoRenew = false
	sub.IsPremium = false
	sub.Status = model.SubscriptionCancelled
	sub.UpdatedAt = now

	if err := s.updateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.setUserPremium(ctx, userID, false, now); err != nil {
		return nil, err
	}

	s.metrics.IncPremiumChange("cancel")
	s.logger.InfoContext(ctx, "premium cancelled", "user_id", userID)
	return sub, nil
}

// Reactivate restarts an existing subscription from now.
func (s *PremiumService) Reactivate(ctx context.Context, userID string, t model.SubscriptionType) (*model.PremiumSubscription, error) {
	if !t.IsValid() {
		return nil, ErrInvalidSubscriptionType
	}

	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	end := t.AddPeriod(now)
	sub.IsPremium = true
	sub.EndDate = &end
	sub.Type = t
	sub.Price = t.Price()
	sub.AutoRenew = true
	sub.Status = model.SubscriptionActive
	sub.UpdatedAt = now

	if err := s.updateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.setUserPremium(ctx, userID, true, now); err != nil {
		return nil, err
	}

	s.metrics.IncPremiumChange("reactivate")
	return sub, nil
}

// Restore sets the user premium flag again when the stored subscription
// is still active. It reports whether premium was restored.
func (s *PremiumService) Restore(ctx context.Context, userID string) (bool, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}

	now := s.now()
	if !sub.IsActive(now) {
		return false, nil
	}

	if err := s.setUserPremium(ctx, userID, true, now); err != nil {
		return false, err
	}
	return true, nil
}

// HasFeatureAccess reports whether the user may use feature.
func (s *PremiumService) HasFeatureAccess(ctx context.Context, userID, feature string) bool {
	return model.HasFeatureAccess(feature, s.IsPremiumUser(ctx, userID))
}

// GetFeatureLimit returns the user's quota for limit, or model.Unlimited.
func (s *PremiumService) GetFeatureLimit(ctx context.Context, userID, limit string) int {
	return model.FeatureLimit(limit, s.IsPremiumUser(ctx, userID))
}

// ProcessRenewal extends a lapsed auto-renewing subscription by one
// period counted from its previous end date.
func (s *PremiumService) ProcessRenewal(ctx context.Context, userID string) (*model.PremiumSubscription, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !sub.NeedsRenewal(now) {
		return sub, nil
	}

	if err := s.renew(ctx, sub, now); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *PremiumService) renew(ctx context.Context, sub *model.PremiumSubscription, now time.Time) error {
	end := sub.Type.AddPeriod(*sub.EndDate)
	sub.EndDate = &end
	sub.IsPremium = true
	sub.Status = model.SubscriptionActive
	sub.UpdatedAt = now

	if err := s.updateSubscription(ctx, sub); err != nil {
		return err
	}
	if err := s.setUserPremium(ctx, sub.UserID, true, now); err != nil {
		return err
	}

	s.metrics.IncPremiumChange("renew")
	return nil
}

func (s *PremiumService) expire(ctx context.Context, sub *model.PremiumSubscription, now time.Time) error {
	sub.IsPremium = false
	sub.Status = model.SubscriptionExpired
	sub.UpdatedAt = now

	if err := s.updateSubscription(ctx, sub); err != nil {
		return err
	}
	if err := s.setUserPremium(ctx, sub.UserID, false, now); err != nil {
		return err
	}

	s.metrics.IncPremiumChange("expire")
	return nil
}

// SweepResult reports what one sweep changed.
type SweepResult struct {
	Renewed int `json:"renewed"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// Sweep renews lapsed auto-renewing subscriptions and expires the rest.
// A failure on one subscription does not stop the others.
func (s *PremiumService) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now()

	lapsed, err := s.store.ListLapsedSubscriptions(ctx, now, SweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list lapsed subscriptions: %w", err)
	}

	result := &SweepResult{}
	for _, sub := range lapsed {
		if sub.AutoRenew {
			err = s.renew(ctx, sub, now)
		} else {
			err = s.expire(ctx, sub, now)
		}
		switch {
		case err != nil:
			result.Failed++
			s.logger.ErrorContext(ctx, "premium sweep failed for subscription", "user_id", sub.UserID, "error", err)
		case sub.Status == model.SubscriptionActive:
			result.Renewed++
		default:
			result.Expired++
		}
	}

	s.logger.InfoContext(ctx, "premium sweep finished",
		"renewed", result.Renewed,
		"expired", result.Expired,
		"failed", result.Failed,
	)
	return result, nil
}

// ListActive returns every active subscription.
func (s *PremiumService) ListActive(ctx context.Context) ([]*model.PremiumSubscription, error) {
	return s.store.ListActiveSubscriptions(ctx)
}

// ListExpiring returns active subscriptions ending within days.
func (s *PremiumService) ListExpiring(ctx context.Context, days int) ([]*model.PremiumSubscription, error) {
	if days < 0 {
		days = 0
	}
	return s.store.ListExpiringSubscriptions(ctx, s.now().AddDate(0, 0, days))
}

// Statistics returns aggregate subscription counters.
func (s *PremiumService) Statistics(ctx context.Context) (*model.PremiumStatistics, error) {
	return s.store.GetPremiumStatistics(ctx, s.now())
}

func (s *PremiumService) updateSubscription(ctx context.Context, sub *model.PremiumSubscription) error {
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return ErrSubscriptionNotFound
		}
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

func (s *PremiumService) setUserPremium(ctx context.Context, userID string, premium bool, at time.Time) error {
	if err := s.store.SetUserPremium(ctx, userID, premium, at); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set user premium: %w", err)
	}
	return nil
}
