// Package sqlstore implements the persistence repositories on top of
// database/sql using squirrel for query building and sqlx for scanning. The
// same code serves PostgreSQL (lib/pq) and embedded SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/example/facility-reservations/internal/persistence"
	"github.com/example/facility-reservations/internal/persistence/migration"
)

// Dialect selects driver specific SQL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
}

// Options tunes a Store.
type Options struct {
	// SerializeCreates takes a per-room advisory lock before create conflict
	// checks on PostgreSQL.
	SerializeCreates bool
	Logger           *slog.Logger
}

// Store is a transactional persistence.Store.
type Store struct {
	db               *sqlx.DB
	dialect          Dialect
	builder          sq.StatementBuilderType
	serializeCreates bool
	logger           *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database for dialect and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string, opts Options) (*Store, error) {
	driverName := "postgres"
	if dialect == DialectSQLite {
		driverName = "sqlite"
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One writer connection; BEGIN IMMEDIATE serializes transactions on it.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", dialect, err)
	}
	return New(db, dialect, opts), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, dialect Dialect, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &Store{
		db:               db,
		dialect:          dialect,
		builder:          sq.StatementBuilder.PlaceholderFormat(placeholder),
		serializeCreates: opts.SerializeCreates,
		logger:           logger.With("component", "storage", "dialect", string(dialect)),
	}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect reports the SQL dialect in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies every pending embedded migration for the dialect.
func (s *Store) Migrate(ctx context.Context) error {
	manager, err := migration.NewManager(s.db, string(s.dialect), s.logger)
	if err != nil {
		return err
	}
	return manager.Run(ctx)
}

// WithinTx runs fn in a transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", persistence.ErrQuery, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &txRepo{tx: tx, store: s}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", persistence.ErrQuery, err)
	}
	return nil
}

// txRepo implements persistence.Tx over one sqlx transaction.
type txRepo struct {
	tx    *sqlx.Tx
	store *Store
}

var _ persistence.Tx = (*txRepo)(nil)

func (r *txRepo) sb() sq.StatementBuilderType {
	return r.store.builder
}

// forUpdate appends a row lock on backends that support one. SQLite
// transactions already hold the database write lock from BEGIN IMMEDIATE.
func (r *txRepo) forUpdate(q sq.SelectBuilder) sq.SelectBuilder {
	if r.store.dialect == DialectPostgres {
		return q.Suffix("FOR UPDATE")
	}
	return q
}

// SerializeRoom takes a transaction scoped advisory lock keyed by room on
// PostgreSQL when SerializeCreates is enabled.
func (r *txRepo) SerializeRoom(ctx context.Context, roomID string) error {
	if r.store.dialect != DialectPostgres || !r.store.serializeCreates {
		return nil
	}
	if _, err := r.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", roomID); err != nil {
		return mapError("SerializeRoom", err)
	}
	return nil
}

func (r *txRepo) selectAll(ctx context.Context, op string, dest any, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", persistence.ErrBuildQuery, op, err)
	}
	if err := r.tx.SelectContext(ctx, dest, query, args...); err != nil {
		return mapError(op, err)
	}
	return nil
}

func (r *txRepo) selectOne(ctx context.Context, op string, dest any, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", persistence.ErrBuildQuery, op, err)
	}
	if err := r.tx.GetContext(ctx, dest, query, args...); err != nil {
		return mapError(op, err)
	}
	return nil
}

// exec runs q. When mustAffect is set, zero affected rows is ErrNotFound.
func (r *txRepo) exec(ctx context.Context, op string, q sq.Sqlizer, mustAffect bool) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", persistence.ErrBuildQuery, op, err)
	}
	res, err := r.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	if !mustAffect {
		return nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", persistence.ErrNotFound, op)
	}
	return nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "file:reservations.db"
	}
	params := []string{}
	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
