// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Recipe read path
	IncRecipeCacheHit()
	IncRecipeCacheMiss()

	// Recipe management
	IncRecipeCreated()
	IncRecipeUpdated()
	IncRecipeDeleted()

	// Auth outcomes; method: "password", "google", "reset"; outcome: "success", "failure"
	IncAuthAttempt(method, outcome string)

	// Engagement
	IncFavoriteChange(action string) // "add" or "remove"
	IncReviewSubmitted(outcome string)

	// Premium
	IncPremiumChange(action string) // "upgrade", "cancel", "reactivate", "renew", "expire"

	// Recipe event pipeline
	IncRecipeEventPublished(status string) // "success" or "dropped"
	IncRecipeEventProcessed(status string) // "success", "failed", "skipped"
	ObserveRecipeEventBatchSize(size int)
	ObserveRecipeEventBatchDuration(duration time.Duration)
	SetRecipeEventQueueDepth(depth int64)

	// Reminder delivery
	IncReminderDelivery(status string) // "delivered", "retry", "failed"
	ObserveReminderDeliveryDuration(duration time.Duration)
	SetReminderQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
