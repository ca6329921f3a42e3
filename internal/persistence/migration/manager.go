package migration

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

//go:embed sql
var embedded embed.FS

// Manager applies pending migrations in version order.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	dir      string
	logger   *slog.Logger
}

// NewManager wires a Manager to the embedded schema for dialect ("postgres" or
// "sqlite").
func NewManager(db *sqlx.DB, dialect string, logger *slog.Logger) (*Manager, error) {
	var placeholder sq.PlaceholderFormat = sq.Question
	switch dialect {
	case "postgres":
		placeholder = sq.Dollar
	case "sqlite":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
	return NewManagerFS(embedded, "sql/"+dialect, NewExecutor(db, placeholder), logger), nil
}

// NewManagerFS wires a Manager to an arbitrary migration tree.
func NewManagerFS(fsys fs.FS, dir string, executor *Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		scanner:  NewScanner(fsys),
		executor: executor,
		dir:      dir,
		logger:   logger.With("component", "migration"),
	}
}

// Run executes all pending migrations in sequential order
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "schema version",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending))

	for i, mig := range status.Pending {
		m.logger.InfoContext(ctx, "applying migration",
			"version", mig.Version,
			"description", mig.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(status.Pending)))

		if err := m.executor.Execute(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "error", err)
			return err
		}
	}

	if len(status.Pending) > 0 {
		m.logger.InfoContext(ctx, "migrations complete",
			"applied", len(status.Pending),
			"elapsed", time.Since(started).String())
	}
	return nil
}

// Status reports applied and pending migrations after validating that the
// applied history still matches the files.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, err
	}

	available, err := m.scanner.Scan(m.dir)
	if err != nil {
		return nil, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedMap := make(map[string]bool, len(applied))
	status := &Status{Applied: applied}
	for _, a := range applied {
		appliedMap[a.Version] = true
		if versionNumber(a.Version) > versionNumber(status.CurrentVersion) {
			status.CurrentVersion = a.Version
		}
	}
	for _, mig := range available {
		if !appliedMap[mig.Version] {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

// validateSequence ensures versions are gap free, every applied version still
// has a file, and applied files were not edited.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[string]Migration, len(available))
	for i, mig := range available {
		byVersion[mig.Version] = mig
		if i > 0 && versionNumber(mig.Version) != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration version after %s", ErrVersionConflict, available[i-1].Version)
		}
	}
	for _, a := range applied {
		mig, ok := byVersion[a.Version]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, a.Version)
		}
		if a.Checksum != "" && a.Checksum != mig.Checksum {
			return NewMigrationError(a.Version, mig.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}
