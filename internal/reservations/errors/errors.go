// Package errors holds the sentinel errors of the reservation persistence
// layer. Service-level failures carry richer application errors instead.
package errors

import "errors"

var (
	// ErrCorruptFile marks a persisted file whose document is not a list.
	ErrCorruptFile = errors.New("persisted file is not a valid reservation list")

	// ErrMalformedRow marks a list row missing required reservation fields.
	ErrMalformedRow = errors.New("row is missing required reservation fields")
)
