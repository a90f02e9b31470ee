package repositories

import "errors"

// Typed persistence outcomes. Implementations must classify their driver
// errors into these sentinels so callers never match on error strings.
var (
	// ErrNotFound is returned when a record does not exist, or when a
	// conditional update matched no rows.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert or update violates a
	// uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key violation")
)
