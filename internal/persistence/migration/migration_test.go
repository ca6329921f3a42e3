package migration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScannerOrdersAndDescribes(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/002_add_index.sql":    {Data: []byte("CREATE INDEX idx ON t(a);")},
		"m/001_create_table.sql": {Data: []byte("-- Description: base table\nCREATE TABLE t (a TEXT);")},
		"m/README.md":            {Data: []byte("ignored")},
	}

	migrations, err := NewScanner(fsys).Scan("m")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("len = %d, want 2", len(migrations))
	}
	if migrations[0].Version != "001" || migrations[0].Description != "base table" {
		t.Fatalf("first migration = %+v", migrations[0])
	}
	if migrations[1].Description != "add index" {
		t.Fatalf("fallback description = %q", migrations[1].Description)
	}
	if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
		t.Fatal("expected distinct checksums")
	}
}

func TestScannerRejectsBadFiles(t *testing.T) {
	t.Parallel()

	cases := map[string]fstest.MapFS{
		"bad name":  {"m/first.sql": {Data: []byte("SELECT 1;")}},
		"empty":     {"m/001_empty.sql": {Data: []byte("-- only a comment\n")}},
		"duplicate": {"m/001_a.sql": {Data: []byte("SELECT 1;")}, "m/001_b.sql": {Data: []byte("SELECT 2;")}},
	}
	for name, fsys := range cases {
		if _, err := NewScanner(fsys).Scan("m"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	got := splitStatements("-- header\nCREATE TABLE a (x INT);\n\n-- note\nCREATE TABLE b (y INT);\n")
	if len(got) != 2 || got[0] != "CREATE TABLE a (x INT)" || got[1] != "CREATE TABLE b (y INT)" {
		t.Fatalf("splitStatements = %q", got)
	}
}

func TestManagerRunIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openSQLite(t)
	manager, err := NewManager(db, "sqlite", quietLogger())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := manager.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := manager.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.CurrentVersion != "001" || len(status.Pending) != 0 || len(status.Applied) != 1 {
		t.Fatalf("status = %+v", status)
	}

	var tables int
	if err := db.GetContext(ctx, &tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('rooms','blocks','devices','reservations','audit_logs')`); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 5 {
		t.Fatalf("tables = %d, want 5", tables)
	}
}

func TestManagerRollsBackFailedMigration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openSQLite(t)
	fsys := fstest.MapFS{
		"m/001_ok.sql":     {Data: []byte("CREATE TABLE ok_table (a TEXT);")},
		"m/002_broken.sql": {Data: []byte("CREATE TABLE half (a TEXT);\nCREATE TABLE broken (;")},
	}
	manager := NewManagerFS(fsys, "m", NewExecutor(db, sq.Question), quietLogger())

	err := manager.Run(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.CurrentVersion != "001" || len(status.Pending) != 1 {
		t.Fatalf("status after failure = %+v", status)
	}
	var half int
	if err := db.GetContext(ctx, &half, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'half'`); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if half != 0 {
		t.Fatal("partial migration was not rolled back")
	}
}

func TestManagerDetectsEditedMigration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openSQLite(t)
	applied := fstest.MapFS{"m/001_t.sql": {Data: []byte("CREATE TABLE t (a TEXT);")}}
	if err := NewManagerFS(applied, "m", NewExecutor(db, sq.Question), quietLogger()).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	edited := fstest.MapFS{"m/001_t.sql": {Data: []byte("CREATE TABLE t (a TEXT, b TEXT);")}}
	err := NewManagerFS(edited, "m", NewExecutor(db, sq.Question), quietLogger()).Run(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestNewManagerRejectsUnknownDialect(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(nil, "oracle", nil); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("expected ErrUnknownDialect, got %v", err)
	}
}

func TestNewManagerPlaceholdersPerDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect string
		want    string
	}{
		{dialect: "sqlite", want: "SELECT version FROM schema_migrations WHERE version = ?"},
		{dialect: "postgres", want: "SELECT version FROM schema_migrations WHERE version = $1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.dialect, func(t *testing.T) {
			t.Parallel()

			m, err := NewManager(nil, tt.dialect, quietLogger())
			if err != nil {
				t.Fatalf("NewManager: %v", err)
			}
			query, _, err := m.executor.builder.Select("version").From("schema_migrations").
				Where(sq.Eq{"version": "001"}).ToSql()
			if err != nil {
				t.Fatalf("ToSql: %v", err)
			}
			if query != tt.want {
				t.Fatalf("query = %q, want %q", query, tt.want)
			}
		})
	}
}

func TestMigrationErrorMessageAndUnwrap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  *MigrationError
		want string
	}{
		{NewMigrationError("002", "002_x.sql", "verify checksum", ErrChecksumMismatch), "migration 002 (002_x.sql): verify checksum: migration checksum mismatch"},
		{NewMigrationError("", "sql/sqlite", "read directory", ErrInvalidMigrationFile), "migration sql/sqlite: read directory: invalid migration file"},
		{NewMigrationError("", "", "connect", ErrMigrationFailed), "migration: connect: migration execution failed"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
		if !errors.Is(tc.err, tc.err.Err) {
			t.Fatalf("%q does not unwrap to its cause", tc.want)
		}
	}
}
