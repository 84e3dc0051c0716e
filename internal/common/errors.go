// Package common defines shared constants and sentinel errors used across
// casetrack components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Engine-level errors (archive/restore flow control).
	ErrorPreconditionFailed = errors.New("precondition failed")
	ErrorConflict           = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
