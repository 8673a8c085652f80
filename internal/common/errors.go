// Package common defines shared sentinel errors used across the sync
// service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors (bad or missing input).
	ErrValidation    = errors.New("validation error")
	ErrArchiveFormat = errors.New("invalid archive format")

	// ErrConflict signals a lost race on a conditional write, e.g. a
	// concurrent fulfillment already completed the session.
	ErrConflict = errors.New("write conflict")
)
