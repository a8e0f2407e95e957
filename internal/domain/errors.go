package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the user is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a state change loses a race (e.g. capacity
	// re-validation fails at commit time). Callers may retry or fall back.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when the request is invalid (e.g. an RSVP to a ticketed event).
	ErrInvalidInput = errors.New("invalid input")
)
