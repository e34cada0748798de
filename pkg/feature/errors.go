package feature

import (
	"errors"
	"fmt"
)

// Predefined errors for the feature package.
var (
	// ErrNotFound indicates that no percentage is stored for a feature.
	// Lookups report absence with found=false; this error is for callers
	// that need an error value, such as HTTP handlers.
	ErrNotFound = errors.New("feature: percentage not found")

	// ErrBackendUnavailable indicates that the backing store could not answer:
	// connection loss, timeout or any other transport failure.
	ErrBackendUnavailable = errors.New("feature: backend unavailable")

	// ErrInvalidArgument indicates a percentage outside [0, 1] or another
	// malformed input.
	ErrInvalidArgument = errors.New("feature: invalid argument")

	// ErrInvalidRecord indicates that the backend holds a value that cannot be
	// decoded into a percentage.
	ErrInvalidRecord = errors.New("feature: stored percentage is invalid")

	// ErrLookupPanic indicates that the lookup or the evaluator factory
	// panicked while loading a feature.
	ErrLookupPanic = errors.New("feature: lookup panicked")

	// ErrConfiguration indicates that the manager could not be assembled.
	ErrConfiguration = errors.New("feature: configuration error")

	// ErrMissingConfiguration indicates that a required collaborator was not supplied.
	ErrMissingConfiguration = fmt.Errorf("%w: missing required collaborator", ErrConfiguration)
)

// Unavailable wraps a backend failure so it matches ErrBackendUnavailable.
// It returns nil for a nil err.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrBackendUnavailable, err)
}
