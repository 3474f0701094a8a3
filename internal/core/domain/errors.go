package domain

import "errors"

// Repository-level sentinel errors.
var (
	// ErrUnavailable indicates the backing store is not connected.
	// HTTP Status: 503 Service Unavailable
	ErrUnavailable = errors.New("store unavailable")

	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("duplicate record")
)
