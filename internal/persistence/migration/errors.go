package migration

import (
	"errors"
	"fmt"
)

// Sentinels are wrapped by *MigrationError; match them with errors.Is.
var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
	// ErrVersionConflict means the database and the embedded files disagree on
	// which versions exist.
	ErrVersionConflict = errors.New("migration version conflict")
	// ErrChecksumMismatch means an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	ErrUnknownDialect   = errors.New("no migrations for dialect")
)

// MigrationError records which file and step failed.
type MigrationError struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

func (e *MigrationError) Error() string {
	switch {
	case e.Version != "":
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	case e.FilePath != "":
		return fmt.Sprintf("migration %s: %s: %v", e.FilePath, e.Operation, e.Err)
	default:
		return fmt.Sprintf("migration: %s: %v", e.Operation, e.Err)
	}
}

func (e *MigrationError) Unwrap() error { return e.Err }

func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, FilePath: filePath, Operation: operation, Err: err}
}
