package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKey is returned when a write references a missing row.
	ErrForeignKey = errors.New("persistence: foreign key violation")
	// ErrBuildQuery wraps query builder failures.
	ErrBuildQuery = errors.New("persistence: build query")
	// ErrQuery wraps driver failures.
	ErrQuery = errors.New("persistence: query")
)
