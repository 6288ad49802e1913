// Package common defines shared constants and sentinel errors used across
// the layers of the redaction service. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Storage / repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrStorageFailure = errors.New("storage failure")

	// Access control.
	ErrAccessDenied = errors.New("access denied")

	// Validation errors. Always safe to report verbatim to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// Engine errors. The document could not be parsed or re-serialized.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrPartialFailure signals that an operation succeeded against storage
	// but its audit record could not be written and the compensating
	// rollback failed too. The caller must not treat the operation as
	// successful.
	ErrPartialFailure = errors.New("partial failure, audit trail incomplete")

	// Generic internal failure.
	ErrInternal = errors.New("internal error")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
)
