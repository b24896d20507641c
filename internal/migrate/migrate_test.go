package migrate

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/recipevault/recipevault/migrations"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"000001_users.up.sql":     {Data: []byte("CREATE TABLE users (id TEXT)")},
		"000001_users.down.sql":   {Data: []byte("DROP TABLE users")},
		"000002_recipes.up.sql":   {Data: []byte("CREATE TABLE recipes (id TEXT)")},
		"000002_recipes.down.sql": {Data: []byte("DROP TABLE recipes")},
		"README.md":               {Data: []byte("ignored")},
	}
}

func TestLoad_SortsAndPairs(t *testing.T) {
	ms, err := Load(testFS())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("got %d migrations, want 2", len(ms))
	}
	if ms[0].Version != 1 || ms[0].Name != "users" {
		t.Errorf("first = %d %s, want 1 users", ms[0].Version, ms[0].Name)
	}
	if ms[1].DownSQL != "DROP TABLE recipes" {
		t.Errorf("second down = %q", ms[1].DownSQL)
	}
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(fstest.MapFS{})
	if !errors.Is(err, ErrNoMigrations) {
		t.Fatalf("err = %v, want ErrNoMigrations", err)
	}
}

func TestLoad_MissingUp(t *testing.T) {
	fsys := fstest.MapFS{"000003_orphan.down.sql": {Data: []byte("DROP TABLE x")}}
	if _, err := Load(fsys); err == nil {
		t.Fatal("expected error for migration without up file")
	}
}

func TestLoad_EmbeddedMigrations(t *testing.T) {
	ms, err := Load(migrations.FS)
	if err != nil {
		t.Fatalf("Load embedded: %v", err)
	}
	for i, m := range ms {
		if m.Version != int64(i+1) {
			t.Errorf("migration %d has version %d; versions must be contiguous", i, m.Version)
		}
		if m.DownSQL == "" {
			t.Errorf("migration %d (%s) has no down file", m.Version, m.Name)
		}
	}
}

func TestParseFilename(t *testing.T) {
	testCases := []struct {
		name    string
		version int64
		label   string
		dir     string
		ok      bool
	}{
		{"000002_recipes.up.sql", 2, "recipes", "up", true},
		{"000010_recipe_events.down.sql", 10, "recipe_events", "down", true},
		{"recipes.up.sql", 0, "", "", false},
		{"000001_users.sql", 0, "", "", false},
		{"abc_users.up.sql", 0, "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, l, d, ok := parseFilename(tc.name)
			if ok != tc.ok || v != tc.version || l != tc.label || d != tc.dir {
				t.Errorf("parseFilename(%q) = %d %q %q %v", tc.name, v, l, d, ok)
			}
		})
	}
}

func TestRunner_UpAppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE recipes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(int64(2), "recipes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := New(db, testFS(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	applied, err := r.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(applied) != 1 || applied[0] != 2 {
		t.Errorf("applied = %v, want [2]", applied)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunner_UpRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE users").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	r, err := New(db, testFS(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	applied, err := r.Up(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(applied) != 0 {
		t.Errorf("applied = %v, want none", applied)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunner_DownRevertsNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE recipes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schema_migrations").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := New(db, testFS(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	reverted, err := r.Down(context.Background(), 1)
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if len(reverted) != 1 || reverted[0] != 2 {
		t.Errorf("reverted = %v, want [2]", reverted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
