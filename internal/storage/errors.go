package storage

import "errors"

// Domain-specific errors for storage backends.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownType is returned for a vfs type outside the known set.
	ErrUnknownType = errors.New("storage: unknown backend type")

	// ErrInvalidFilename is returned for empty names or names that escape
	// the backend's directory.
	ErrInvalidFilename = errors.New("storage: invalid database filename")

	// ErrPoolExhausted is returned when opening or importing a new database
	// would exceed the pool's capacity.
	ErrPoolExhausted = errors.New("storage: pool capacity exhausted")

	// ErrNotFound is returned when exporting a database that does not exist.
	ErrNotFound = errors.New("storage: database file not found")
)
