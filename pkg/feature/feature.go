package feature

import "context"

// Lookup is the storage contract every backend implements.
//
// A missing record is reported as found=false with a nil error. Transport
// failures are reported as errors matching ErrBackendUnavailable so callers
// can tell "not found" from "could not determine".
type Lookup interface {
	// LookupPercentage returns the rollout percentage stored for featureID.
	LookupPercentage(ctx context.Context, featureID string) (percentage float64, found bool, err error)

	// SetPercentage upserts the percentage and reports whether the write was accepted.
	SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error)

	// DeletePercentage removes the record. Deleting a missing record is not an error.
	DeletePercentage(ctx context.Context, featureID string) error
}

// Manager answers enablement questions.
type Manager interface {
	// IsEnabled reports whether featureID is on for discriminator. It never
	// fails: any error resolving the feature is logged and reported as false.
	IsEnabled(ctx context.Context, featureID, discriminator string) bool

	// Invalidate drops the cached evaluator so the next IsEnabled call reads
	// the backend synchronously.
	Invalidate(ctx context.Context, featureID string)
}

// Decorator wraps an implementation with another one of the same contract.
// Decorators may observe calls or translate transient failures; they must not
// change results otherwise.
type Decorator[T any] func(T) T

// Executor runs background cache reloads.
type Executor interface {
	Submit(job func()) error
}

// IfEnabledElse calls IsEnabled once and returns the result of exactly one of
// onEnabled or onDisabled.
func IfEnabledElse[T any](ctx context.Context, m Manager, featureID, discriminator string, onEnabled, onDisabled func() T) T {
	if m.IsEnabled(ctx, featureID, discriminator) {
		return onEnabled()
	}
	return onDisabled()
}

// apply wraps base with decorators, first decorator innermost.
func apply[T any](base T, decorators []Decorator[T]) T {
	for _, d := range decorators {
		if d != nil {
			base = d(base)
		}
	}
	return base
}
