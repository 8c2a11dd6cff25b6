// Package store defines the persistence contract for the Plateful server:
// the Store interface, query filter types, and sentinel errors shared by
// every backend implementation.
package store

import "errors"

// Sentinel errors returned by Store implementations. The service layer maps
// these onto domain errors; they never reach HTTP responses directly.
var (
	// ErrNotFound is returned when the requested row does not exist, or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on unique-constraint collisions, such as
	// a duplicate email or recipe title.
	ErrAlreadyExists = errors.New("already exists")
)
