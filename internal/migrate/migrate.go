// Package migrate applies the embedded SQL migrations through database/sql.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
)

// ErrNoMigrations is returned when the source has no migration files.
var ErrNoMigrations = errors.New("no migrations found")

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migration is one numbered schema step.
type Migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// Runner applies migrations from a filesystem to a database.
type Runner struct {
	db         *sql.DB
	migrations []Migration
	logger     *slog.Logger
}

// Open connects to Postgres using the lib/pq driver.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// New loads migrations from fsys. Files must be named
// NNNNNN_name.up.sql and NNNNNN_name.down.sql.
func New(db *sql.DB, fsys fs.FS, logger *slog.Logger) (*Runner, error) {
	migrations, err := Load(fsys)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, migrations: migrations, logger: logger}, nil
}

// Load parses the migration files in fsys sorted by version.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int64]*Migration)
	for _, name := range entries {
		version, label, direction, ok := parseFilename(name)
		if !ok {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &Migration{Version: version, Name: label}
			byVersion[version] = m
		}
		if direction == "up" {
			m.UpSQL = string(body)
		} else {
			m.DownSQL = string(body)
		}
	}

	if len(byVersion) == 0 {
		return nil, ErrNoMigrations
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" {
			return nil, fmt.Errorf("migration %d (%s) has no up file", m.Version, m.Name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	return out, nil
}

// parseFilename splits "000002_recipes.up.sql" into (2, "recipes", "up").
func parseFilename(name string) (int64, string, string, bool) {
	base, ok := strings.CutSuffix(name, ".sql")
	if !ok {
		return 0, "", "", false
	}

	var direction string
	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return 0, "", "", false
	}
	base = strings.TrimSuffix(base, "."+direction)

	num, label, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", "", false
	}
	version, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, "", "", false
	}

	return version, label, direction, true
}

// Up applies every migration that has not been recorded yet and returns
// the versions it applied.
func (r *Runner) Up(ctx context.Context) ([]int64, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var done []int64
	for _, m := range r.migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(ctx, m.UpSQL, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				m.Version, m.Name)
			return err
		}); err != nil {
			return done, fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		r.logger.Info("migration applied", "version", m.Version, "name", m.Name)
		done = append(done, m.Version)
	}

	return done, nil
}

// Down rolls back up to steps applied migrations, newest first.
func (r *Runner) Down(ctx context.Context, steps int) ([]int64, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var done []int64
	for i := len(r.migrations) - 1; i >= 0 && len(done) < steps; i-- {
		m := r.migrations[i]
		if !applied[m.Version] {
			continue
		}
		if m.DownSQL == "" {
			return done, fmt.Errorf("migration %d (%s) has no down file", m.Version, m.Name)
		}
		if err := r.apply(ctx, m.DownSQL, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
			return err
		}); err != nil {
			return done, fmt.Errorf("revert migration %d (%s): %w", m.Version, m.Name, err)
		}
		r.logger.Info("migration reverted", "version", m.Version, "name", m.Name)
		done = append(done, m.Version)
	}

	return done, nil
}

func (r *Runner) apply(ctx context.Context, body string, record func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if err := record(tx); err != nil {
		return fmt.Errorf("record version: %w", err)
	}

	return tx.Commit()
}

func (r *Runner) appliedVersions(ctx context.Context) (map[int64]bool, error) {
	if _, err := r.db.ExecContext(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}

	return applied, rows.Err()
}
