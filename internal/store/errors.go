package store

import "errors"

// Store errors.
var (
	// ErrNotFound is returned by Get when no entry exists under the key.
	ErrNotFound = errors.New("cache entry not found")

	// ErrConflict is returned by Put when the key already maps to
	// different content. Keys are content-derived, so this indicates a
	// data-integrity problem and is never silently overwritten.
	ErrConflict = errors.New("cache key maps to divergent content")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyAddress is returned when the Redis address is not configured.
	ErrEmptyAddress = errors.New("redis address is required")
)
