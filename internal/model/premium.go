// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// SubscriptionType is the billing period of a premium subscription.
type SubscriptionType string

const (
	SubscriptionMonthly SubscriptionType = "monthly"
	SubscriptionYearly  SubscriptionType = "yearly"
)

// IsValid checks if the subscription type is known.
func (t SubscriptionType) IsValid() bool {
	return t == SubscriptionMonthly || t == SubscriptionYearly
}

// Price returns the simulated price for one period.
func (t SubscriptionType) Price() float64 {
	if t == SubscriptionYearly {
		return 49.99
	}
	return 4.99
}

// AddPeriod returns from advanced by one billing period. A day that does
// not exist in the target month clamps to its last day (Jan 31 -> Feb 29).
func (t SubscriptionType) AddPeriod(from time.Time) time.Time {
	if t == SubscriptionYearly {
		return addMonths(from, 12)
	}
	return addMonths(from, 1)
}

func addMonths(from time.Time, months int) time.Time {
	y, m, d := from.Date()
	first := time.Date(y, m+time.Month(months), 1, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// DefaultPaymentMethod is recorded for simulated payments.
const DefaultPaymentMethod = "Credit Card"

// PremiumSubscription is keyed by user id; a user has at most one.
type PremiumSubscription struct {
	UserID        string             `json:"user_id"`
	IsPremium     bool               `json:"is_premium"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
	Type          SubscriptionType   `json:"type"`
	AutoRenew     bool               `json:"auto_renew"`
	PaymentMethod string             `json:"payment_method"`
	Price         float64            `json:"price"`
	Status        SubscriptionStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewSubscription builds an active subscription starting at now.
func NewSubscription(userID string, t SubscriptionType, now time.Time) *PremiumSubscription {
	end := t.AddPeriod(now)
	return &PremiumSubscription{
		UserID:        userID,
		IsPremium:     true,
		StartDate:     now,
		EndDate:       &end,
		Type:          t,
		AutoRenew:     true,
		PaymentMethod: DefaultPaymentMethod,
		Price:         t.Price(),
		Status:        SubscriptionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsActive reports whether the subscription grants premium at now.
func (s *PremiumSubscription) IsActive(now time.Time) bool {
	return s.IsPremium &&
		s.Status == SubscriptionActive &&
		s.EndDate != nil &&
		s.EndDate.After(now)
}

// DaysRemaining returns whole days left until the end date.
func (s *PremiumSubscription) DaysRemaining(now time.Time) int {
	if s.EndDate == nil || !s.EndDate.After(now) {
		return 0
	}
	return int(s.EndDate.Sub(now) / (24 * time.Hour))
}

// NeedsRenewal reports whether an auto-renewing subscription has lapsed.
func (s *PremiumSubscription) NeedsRenewal(now time.Time) bool {
	return s.AutoRenew && s.EndDate != nil && s.EndDate.Before(now)
}

// Feature names used for access checks.
const (
	FeatureBasicRecipes     = "basic_recipes"
	FeatureBasicSearch      = "basic_search"
	FeatureBasicFavorites   = "basic_favorites"
	FeatureAdvancedSearch   = "advanced_search"
	FeatureMealPlanning     = "meal_planning"
	FeatureExportRecipes    = "export_recipes"
	FeatureBackupRecipes    = "backup_recipes"
	FeatureUnlimitedStorage = "unlimited_storage"
)

// FreeFeatures are available to every user.
var FreeFeatures = []string{FeatureBasicRecipes, FeatureBasicSearch, FeatureBasicFavorites}

// PremiumFeatures require an active subscription.
var PremiumFeatures = []string{
	FeatureAdvancedSearch,
	FeatureMealPlanning,
	FeatureExportRecipes,
	FeatureBackupRecipes,
	FeatureUnlimitedStorage,
}

// HasFeatureAccess decides access to feature given the premium state.
// Unknown features are denied.
func HasFeatureAccess(feature string, premium bool) bool {
	if slices.Contains(FreeFeatures, feature) {
		return true
	}
	if slices.Contains(PremiumFeatures, feature) {
		return premium
	}
	return false
}

// Limit names and values.
const (
	LimitSavedRecipes   = "saved_recipes"
	LimitCreatedRecipes = "created_recipes"
	LimitMealPlans      = "meal_plans"

	// Unlimited is returned as the limit for premium users.
	Unlimited = -1
)

var freeLimits = map[string]int{
	LimitSavedRecipes:   50,
	LimitCreatedRecipes: 10,
	LimitMealPlans:      0,
}

// FeatureLimit returns the quota for limit. Premium users are unlimited;
// unknown limits are 0 for free users.
func FeatureLimit(limit string, premium bool) int {
	if premium {
		return Unlimited
	}
	return freeLimits[limit]
}

// PremiumStatistics summarizes subscriptions for administrators.
type PremiumStatistics struct {
	TotalPremium         int64   `json:"total_premium"`
	ActivePremium        int64   `json:"active_premium"`
	MonthlySubscriptions int64   `json:"monthly_subscriptions"`
	YearlySubscriptions  int64   `json:"yearly_subscriptions"`
	TotalRevenue         float64 `json:"total_revenue"`
}

// PremiumStatus is the caller-facing view of premium state.
type PremiumStatus struct {
	IsPremium     bool                 `json:"is_premium"`
	DaysRemaining int                  `json:"days_remaining"`
	Subscription  *PremiumSubscription `json:"subscription,omitempty"`
	Features      map[string]bool      `json:"features"`
}
