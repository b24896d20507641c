package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRecipeCacheHit()                                     {}
func (n *NoopRecorder) IncRecipeCacheMiss()                                    {}
func (n *NoopRecorder) IncRecipeCreated()                                      {}
func (n *NoopRecorder) IncRecipeUpdated()                                      {}
func (n *NoopRecorder) IncRecipeDeleted()                                      {}
func (n *NoopRecorder) IncAuthAttempt(method, outcome string)                  {}
func (n *NoopRecorder) IncFavoriteChange(action string)                        {}
func (n *NoopRecorder) IncReviewSubmitted(outcome string)                      {}
func (n *NoopRecorder) IncPremiumChange(action string)                         {}
func (n *NoopRecorder) IncRecipeEventPublished(status string)                  {}
func (n *NoopRecorder) IncRecipeEventProcessed(status string)                  {}
func (n *NoopRecorder) ObserveRecipeEventBatchSize(size int)                   {}
func (n *NoopRecorder) ObserveRecipeEventBatchDuration(duration time.Duration) {}
func (n *NoopRecorder) SetRecipeEventQueueDepth(depth int64)                   {}
func (n *NoopRecorder) IncReminderDelivery(status string)                      {}
func (n *NoopRecorder) ObserveReminderDeliveryDuration(duration time.Duration) {}
func (n *NoopRecorder) SetReminderQueueDepth(depth int64)                      {}
