// Package testutil holds helpers shared by the integration tests. Tests that
// use it run only with the integration build tag and a DATABASE_URL or
// REDIS_URL pointing at disposable services.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/recipevault/recipevault/internal/migrate"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/migrations"
)

// RequireEnv skips the test when key is unset.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}

// dbLockKey serializes packages that share one test database.
const dbLockKey int64 = 0x7265636970 // "recip"

// AcquireDBLock holds a session advisory lock on a dedicated connection
// until the returned func is called.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", dbLockKey); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	return func() error {
		defer conn.Release()
		_, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", dbLockKey)
		return err
	}, nil
}

// ResetSchema drops the public schema and migrates it back to the latest
// version with the same runner the CLI uses.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public"); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	runner, db, err := Migrator(pool)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := runner.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Migrator returns a runner over the embedded migrations bound to pool.
// The caller closes the returned handle.
func Migrator(pool *pgxpool.Pool) (*migrate.Runner, io.Closer, error) {
	db := stdlib.OpenDBFromPool(pool)
	runner, err := migrate.New(db, migrations.FS, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load migrations: %w", err)
	}
	return runner, db, nil
}

// FlushRedis empties the selected Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

var seq atomic.Int64

// UniqueID returns prefix plus a process-unique suffix.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser builds an email/password user with a unique address.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	id := UniqueID("user")
	return &model.User{
		ID:           id,
		Username:     name,
		Email:        strings.ToLower(name + "-" + strings.TrimPrefix(id, "user-") + "@example.com"),
		PasswordHash: "hash",
		Role:         model.RoleUser,
		Preferences:  map[string]any{},
		SavedRecipes: []string{},
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestRecipe builds a Dinner recipe owned by creatorID with derived tags.
func NewTestRecipe(t testing.TB, creatorID, title string) *model.Recipe {
	t.Helper()
	now := time.Now().UTC()
	r := &model.Recipe{
		ID:            ulid.Make().String(),
		Title:         title,
		Description:   title + " description",
		CookingTime:   "30 minutes",
		Servings:      2,
		CreatorUserID: creatorID,
		Category:      "Dinner",
		Ingredients:   []string{"Tomato, 2", "Basil, 1 bunch"},
		Instructions:  []string{"Chop", "Cook"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.ApplyDefaults()
	return r
}
