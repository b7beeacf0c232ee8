package model

import "errors"

// Domain error taxonomy. Services and repositories surface these
// sentinels directly so handlers can map each one to a single HTTP
// status; everything else is wrapped as an internal error.
var (
	// ErrNotFound is returned when a requested resource does not exist
	// or has been soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a uniqueness violation: duplicate slug,
	// duplicate email, or a second registration for the same event.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidState is returned when a business rule rejects the
	// operation: wrong event status, past dates, terminal registration.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrCapacityExceeded is returned when an event has no remaining
	// confirmed capacity.
	ErrCapacityExceeded = errors.New("event is full")

	// ErrForbidden is returned when the caller is neither the resource
	// owner nor an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrPreconditionFailed is returned when a delete is blocked by
	// dependent rows.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrUnauthorized is returned on bad credentials or tokens.
	ErrUnauthorized = errors.New("invalid credentials")
)
