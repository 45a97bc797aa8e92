package models

import "errors"

// Sentinel errors shared by the service and store layers. The transport
// layer maps them to HTTP status codes; nothing in this core retries them.
var (
	// ErrUnauthorized: a role or ownership check failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: the caller is not a participant of the thread.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists: creation conflicts with an existing record.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument: malformed request, e.g. a single-participant thread.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBlocked: sending is disabled by a block relation the caller holds.
	ErrBlocked = errors.New("blocked")

	// ErrInvalidState: the operation is illegal in the entity's current
	// state, e.g. editing a deleted message.
	ErrInvalidState = errors.New("invalid state")
)
