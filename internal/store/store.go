// Package store wraps the MongoDB collections behind small typed APIs so
// the services above it never see driver-level errors.
package store

import "errors"

var (
	// ErrNotFound is returned when a point lookup matches no document.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateEmail is returned when an insert violates the unique
	// index on users.email.
	ErrDuplicateEmail = errors.New("store: email already registered")
)
