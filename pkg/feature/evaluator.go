package feature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Evaluator decides whether a feature is on for one discriminator.
// Evaluators are pure and safe for concurrent use.
type Evaluator func(discriminator string) bool

// Enabled reports whether the feature is on for discriminator.
func (e Evaluator) Enabled(discriminator string) bool {
	return e(discriminator)
}

// EvaluatorFactory turns stored percentages into evaluators.
type EvaluatorFactory interface {
	// Generate returns the evaluator for featureID rolled out to percentage.
	// Percentages outside [0, 1] fail with ErrInvalidArgument.
	Generate(featureID string, percentage float64) (Evaluator, error)

	// DisabledFeature returns the evaluator used when no record exists.
	DisabledFeature() Evaluator
}

// HashEvaluatorFactory buckets discriminators by hashing them together with
// the feature id, so the same caller lands in independent buckets for
// different features. Buckets are stable across processes and restarts.
type HashEvaluatorFactory struct{}

// NewHashEvaluatorFactory returns the default factory.
func NewHashEvaluatorFactory() HashEvaluatorFactory {
	return HashEvaluatorFactory{}
}

func (HashEvaluatorFactory) Generate(featureID string, percentage float64) (Evaluator, error) {
	if err := ValidatePercentage(percentage); err != nil {
		return nil, err
	}

	switch percentage {
	case 0:
		return alwaysOff, nil
	case 1:
		return alwaysOn, nil
	}

	return func(discriminator string) bool {
		return Bucket(featureID, discriminator) < percentage
	}, nil
}

func (HashEvaluatorFactory) DisabledFeature() Evaluator {
	return alwaysOff
}

// Bucket maps (featureID, discriminator) to a stable value in [0, 1]. The
// feature id is length-prefixed so no two pairs hash the same input bytes.
func Bucket(featureID, discriminator string) float64 {
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(featureID)))

	d := xxhash.New()
	_, _ = d.Write(prefix[:])
	_, _ = d.WriteString(featureID)
	_, _ = d.WriteString(discriminator)
	return float64(d.Sum64()) / float64(math.MaxUint64)
}

// ValidatePercentage rejects NaN and values outside [0, 1].
func ValidatePercentage(percentage float64) error {
	if math.IsNaN(percentage) || percentage < 0 || percentage > 1 {
		return errors.Join(ErrInvalidArgument,
			fmt.Errorf("percentage must be between 0 and 1, got %v", percentage))
	}
	return nil
}

func alwaysOff(string) bool { return false }

func alwaysOn(string) bool { return true }
