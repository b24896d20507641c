package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
)

const (
	// DefaultBatchSize is the number of reminders claimed per poll.
	DefaultBatchSize = 50
	// DefaultPollInterval is the time between polls.
	DefaultPollInterval = 15 * time.Second
	// DefaultLease keeps a claimed reminder invisible to other workers.
	DefaultLease = 2 * time.Minute
	// DefaultMetricsInterval is how often to update queue depth metrics.
	DefaultMetricsInterval = 30 * time.Second

	// EventReminderDue is the webhook event type.
	EventReminderDue = "reminder.due"
)

// DeliveryStore is the persistence the worker needs.
type DeliveryStore interface {
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*model.CookingReminder, error)
	MarkDelivered(ctx context.Context, rem *model.CookingReminder, n *model.Notification) error
	MarkRetry(ctx context.Context, id, errMsg string, nextAttemptAt, now time.Time) error
	MarkFailed(ctx context.Context, id, errMsg string, now time.Time) error
	QueueDepth(ctx context.Context, now time.Time) (int64, error)
}

// Sender pushes a reminder payload to an external endpoint.
type Sender interface {
	Send(ctx context.Context, deliveryID string, body []byte) error
	Host() string
}

// Worker delivers due reminders.
type Worker struct {
	store           DeliveryStore
	sender          Sender
	logger          *slog.Logger
	metrics         metrics.Recorder
	batchSize       int
	pollInterval    time.Duration
	lease           time.Duration
	metricsInterval time.Duration
	lastMetrics     time.Time
	now             func() time.Time
	started         bool
}

// NewWorker creates a reminder worker. sender may be nil, in which case
// reminders are only written to the inbox.
func NewWorker(store DeliveryStore, sender Sender, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		store:           store,
		sender:          sender,
		logger:          logger.With("component", "reminder.worker"),
		metrics:         recorder,
		batchSize:       DefaultBatchSize,
		pollInterval:    DefaultPollInterval,
		lease:           DefaultLease,
		metricsInterval: DefaultMetricsInterval,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.started {
		return errors.New("worker already started")
	}
	w.started = true

	w.logger.Info("reminder worker started",
		"poll_interval", w.pollInterval,
		"webhook", w.sender != nil,
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
			}
		}
	}
}

// ProcessOnce claims and delivers one batch, returning how many were claimed.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	now := w.now()
	w.maybeUpdateQueueDepth(ctx, now)

	reminders, err := w.store.ClaimDue(ctx, now, w.batchSize, w.lease)
	if err != nil {
		return 0, fmt.Errorf("claim due reminders: %w", err)
	}

	for _, rem := range reminders {
		if err := w.deliver(ctx, rem); err != nil {
			w.logger.Warn("reminder bookkeeping failed",
				"reminder_id", rem.ID,
				"error", err,
			)
		}
	}

	return len(reminders), nil
}

func (w *Worker) deliver(ctx context.Context, rem *model.CookingReminder) error {
	start := time.Now()

	if w.sender != nil {
		body, err := json.Marshal(BuildPayload(rem, w.now()))
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		err = w.sender.Send(ctx, rem.DeliveryKey(), body)
		w.metrics.ObserveReminderDeliveryDuration(time.Since(start))
		if err != nil {
			return w.handleFailure(ctx, rem, err.Error())
		}
	}

	now := w.now()
	n := &model.Notification{
		ID:          ulid.Make().String(),
		UserID:      rem.UserID,
		ReminderID:  rem.ID,
		DeliveryKey: rem.DeliveryKey(),
		RecipeID:    rem.RecipeID,
		Title:       model.ReminderNotificationTitle,
		Body:        rem.NotificationBody(),
		CreatedAt:   now,
	}

	if err := w.store.MarkDelivered(ctx, rem, n); err != nil {
		return w.handleFailure(ctx, rem, err.Error())
	}

	w.logger.Info("reminder delivered",
		"reminder_id", rem.ID,
		"user_id", rem.UserID,
		"attempt", rem.Attempts+1,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	w.metrics.IncReminderDelivery("delivered")
	return nil
}

func (w *Worker) handleFailure(ctx context.Context, rem *model.CookingReminder, errMsg string) error {
	attempt := rem.Attempts + 1
	now := w.now()

	if IsExhausted(attempt) {
		w.logger.Warn("reminder delivery exhausted",
			"reminder_id", rem.ID,
			"attempt", attempt,
			"error", errMsg,
		)
		w.metrics.IncReminderDelivery("failed")
		return w.store.MarkFailed(ctx, rem.ID, errMsg, now)
	}

	next := now.Add(NextRetryDelay(attempt))
	w.logger.Warn("reminder delivery failed",
		"reminder_id", rem.ID,
		"attempt", attempt,
		"next_attempt_at", next,
		"error", errMsg,
	)
	w.metrics.IncReminderDelivery("retry")
	return w.store.MarkRetry(ctx, rem.ID, errMsg, next, now)
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context, now time.Time) {
	if now.Sub(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = now

	depth, err := w.store.QueueDepth(ctx, now)
	if err != nil {
		w.logger.Warn("failed to get reminder queue depth", "error", err)
		return
	}
	w.metrics.SetReminderQueueDepth(depth)
}

// BuildPayload creates the webhook body for a due reminder.
func BuildPayload(rem *model.CookingReminder, now time.Time) model.ReminderPayload {
	return model.ReminderPayload{
		EventType: EventReminderDue,
		EventID:   rem.DeliveryKey(),
		Timestamp: now,
		Data: map[string]any{
			"reminder_id":    rem.ID,
			"user_id":        rem.UserID,
			"recipe_id":      rem.RecipeID,
			"recipe_title":   rem.RecipeTitle,
			"type":           string(rem.Type),
			"scheduled_time": rem.ScheduledTime.UTC().Format(time.RFC3339),
			"title":          model.ReminderNotificationTitle,
			"body":           rem.NotificationBody(),
		},
	}
}

// SetBatchSize overrides the default batch size.
func (w *Worker) SetBatchSize(size int) {
	if size > 0 {
		w.batchSize = size
	}
}

// SetPollInterval overrides the default poll interval.
func (w *Worker) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		w.pollInterval = interval
	}
}
