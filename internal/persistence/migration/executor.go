package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

const versionTableDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL,
	checksum TEXT NOT NULL DEFAULT '',
	execution_time_ms BIGINT NOT NULL DEFAULT 0
)`

// Executor runs migrations and tracks them in schema_migrations.
type Executor struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

// NewExecutor creates an Executor using placeholder for bind variables.
func NewExecutor(db *sqlx.DB, placeholder sq.PlaceholderFormat) *Executor {
	return &Executor{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, versionTableDDL); err != nil {
		return NewMigrationError("", "schema_migrations", "create version table", err)
	}
	return nil
}

// Execute runs every statement of m and records it, all in one transaction.
func (e *Executor) Execute(ctx context.Context, m Migration) (err error) {
	started := e.now()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			return NewMigrationError(m.Version, m.FilePath, fmt.Sprintf("execute statement %d", i+1),
				fmt.Errorf("%w: %v", ErrMigrationFailed, execErr))
		}
	}

	query, args, err := e.builder.Insert("schema_migrations").
		Columns("version", "applied_at", "checksum", "execution_time_ms").
		Values(m.Version, e.now().UTC().Format(time.RFC3339Nano), m.Checksum, e.now().Sub(started).Milliseconds()).
		ToSql()
	if err != nil {
		return NewMigrationError(m.Version, m.FilePath, "build record query", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return NewMigrationError(m.Version, m.FilePath, "record migration", err)
	}

	if err = tx.Commit(); err != nil {
		return NewMigrationError(m.Version, m.FilePath, "commit transaction", err)
	}
	return nil
}

// Applied returns every recorded migration ordered by version.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	query, args, err := e.builder.
		Select("version", "applied_at", "checksum", "execution_time_ms").
		From("schema_migrations").
		OrderBy("version ASC").
		ToSql()
	if err != nil {
		return nil, NewMigrationError("", "schema_migrations", "build applied query", err)
	}

	var rows []struct {
		Version         string         `db:"version"`
		AppliedAt       string         `db:"applied_at"`
		Checksum        sql.NullString `db:"checksum"`
		ExecutionTimeMs int64          `db:"execution_time_ms"`
	}
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewMigrationError("", "schema_migrations", "query applied versions", err)
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		appliedAt, _ := time.Parse(time.RFC3339Nano, row.AppliedAt)
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     appliedAt,
			ExecutionTime: time.Duration(row.ExecutionTimeMs) * time.Millisecond,
			Checksum:      row.Checksum.String,
		})
	}
	return applied, nil
}
