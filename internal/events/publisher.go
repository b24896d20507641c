// Package events carries recipe engagement events from request handlers to
// the daily statistics tables through a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
)

const (
	// StreamKey is the Redis stream for recipe events.
	StreamKey = "recipe-events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "recipe-events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// Payload is the compact event format stored in the stream.
type Payload struct {
	Type       string `json:"t"`
	RecipeID   string `json:"rid"`
	UserID     string `json:"uid,omitempty"`
	OccurredAt int64  `json:"at"` // Unix milliseconds
}

// NewPayload builds a payload for an event happening now.
func NewPayload(eventType model.RecipeEventType, recipeID, userID string, at time.Time) Payload {
	return Payload{
		Type:       string(eventType),
		RecipeID:   recipeID,
		UserID:     userID,
		OccurredAt: at.UnixMilli(),
	}
}

// Emitter is what request paths use to record engagement.
type Emitter interface {
	Emit(eventType model.RecipeEventType, recipeID, userID string)
}

// Publisher enqueues recipe events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event Payload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// Emit publishes without blocking the caller. Failures are logged and counted.
func (p *Publisher) Emit(eventType model.RecipeEventType, recipeID, userID string) {
	event := NewPayload(eventType, recipeID, userID, time.Now())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish recipe event",
				"type", event.Type,
				"recipe_id", event.RecipeID,
				"error", err,
			)
			p.metrics.IncRecipeEventPublished("dropped")
			return
		}

		p.logger.Debug("recipe event published",
			"type", event.Type,
			"recipe_id", event.RecipeID,
			"stream_id", streamID,
		)
		p.metrics.IncRecipeEventPublished("success")
	}()
}

// NopEmitter discards events. Used when the stream is disabled.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(model.RecipeEventType, string, string) {}
