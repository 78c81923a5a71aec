package common

import "errors"

// Error kinds shared by services, storage and the HTTP layer. Wrap with
// fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	// ErrNotFound means no stored portfolio (or requested item) exists.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the caller sent malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamUnavailable means an external collaborator (the optimizer) failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrConflict means a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("conflict")
)
