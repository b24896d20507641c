//go:build integration

package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/testutil"
)

func TestStreamRoundTrip(t *testing.T) {
	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewPublisher(client, logger, nil)

	at := time.Now()
	if _, err := pub.Publish(ctx, NewPayload(model.EventRecipeViewed, "recipe-1", "user-1", at)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{"payload": "not json"},
	}).Result(); err != nil {
		t.Fatalf("xadd poison: %v", err)
	}

	repo := &fakeRepo{}
	w := NewWorker(client, repo, logger, "it-consumer", nil)
	w.SetBlockTimeout(100 * time.Millisecond)
	if err := w.ensureConsumerGroup(ctx); err != nil {
		t.Fatalf("ensureConsumerGroup: %v", err)
	}

	if err := w.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}

	if len(repo.aggregated) != 1 || repo.aggregated[0].RecipeID != "recipe-1" {
		t.Fatalf("aggregated = %+v", repo.aggregated)
	}

	dlq, err := client.XLen(ctx, DeadLetterStreamKey).Result()
	if err != nil || dlq != 1 {
		t.Errorf("dead letter length = %d, %v; want 1", dlq, err)
	}

	pending, err := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("pending = %d, want 0 after ack", pending.Count)
	}
}
