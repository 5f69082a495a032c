// Package normalize maps similarity scores to a non-negative distribution summing to 1.
package normalize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// Base returns the unconstrained distribution for scores under the given method.
// Empty input yields an empty result.
func Base(scores []float64, m Method) ([]float64, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNormalizationMethod, string(m))
	}
	if len(scores) == 0 {
		return []float64{}, nil
	}

	switch m {
	case Softmax:
		return softmax(scores), nil
	case MinMax:
		return minmax(scores), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNormalizationMethod, string(m))
}

// Uniform returns n copies of 1/n.
func Uniform(n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	v := 1 / float64(n)
	for i := range out {
		out[i] = v
	}
	return out
}

// softmax subtracts the maximum before exponentiating so large scores cannot overflow.
func softmax(scores []float64) []float64 {
	hi := floats.Max(scores)
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - hi)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// minmax rescales to [0, 1] and divides by the sum. Identical scores give the uniform
// distribution.
func minmax(scores []float64) []float64 {
	lo, hi := floats.Min(scores), floats.Max(scores)
	if hi == lo {
		return Uniform(len(scores))
	}

	out := make([]float64, len(scores))
	span := hi - lo
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
