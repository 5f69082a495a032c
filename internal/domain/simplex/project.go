// Package simplex projects weight vectors onto the simplex intersected with a uniform box
// [MinWeight, MaxWeight].
package simplex

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
)

// Defaults used by the weighting pipeline.
const (
	DefaultMinWeight     = 0.05
	DefaultMaxWeight     = 0.45
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

// feasibilitySlack absorbs float error in lo*n and hi*n (0.05*20 is not exactly 1).
const feasibilitySlack = 1e-9

// Options configures Project. Zero MaxIterations or Tolerance select the defaults.
type Options struct {
	MinWeight     float64
	MaxWeight     float64
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions returns bounds [0.05, 0.45], 100 iterations, tolerance 1e-6.
func DefaultOptions() Options {
	return Options{
		MinWeight:     DefaultMinWeight,
		MaxWeight:     DefaultMaxWeight,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

// Validate checks 0 <= MinWeight < MaxWeight <= 1.
func (o Options) Validate() error {
	if o.MinWeight < 0 || o.MaxWeight > 1 || o.MinWeight >= o.MaxWeight {
		return fmt.Errorf("%w: need 0 <= min_weight < max_weight <= 1, got [%g, %g]",
			domain.ErrInvalidBounds, o.MinWeight, o.MaxWeight)
	}
	if o.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must not be negative", domain.ErrInvalidBounds)
	}
	if o.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative", domain.ErrInvalidBounds)
	}
	return nil
}

// Feasible reports whether n weights in [lo, hi] can sum to 1, i.e. lo*n <= 1 <= hi*n.
func Feasible(n int, lo, hi float64) bool {
	if n <= 0 {
		return false
	}
	fn := float64(n)
	return lo*fn <= 1+feasibilitySlack && hi*fn >= 1-feasibilitySlack
}

// Project returns a distribution summing to 1 with every element in
// [MinWeight, MaxWeight]. The input is not modified.
//
// When the bounds cannot be met for len(weights) items the result is the uniform
// distribution, whatever the input. Otherwise the weights are repeatedly clamped and
// renormalized until they sit within Tolerance of the box, followed by one final
// clamp+renormalize pass. Renormalizing can leave an element marginally outside the box; in
// that case the remaining mass is redistributed in proportion to each element's headroom,
// which keeps the bounds exact.
func Project(weights []float64, opts Options) []float64 {
	n := len(weights)
	if n == 0 {
		return []float64{}
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	lo, hi := opts.MinWeight, opts.MaxWeight

	if !Feasible(n, lo, hi) {
		return normalize.Uniform(n)
	}

	w := make([]float64, n)
	copy(w, weights)

	for range opts.MaxIterations {
		clamp(w, lo, hi)
		total := floats.Sum(w)
		if total == 0 {
			w = normalize.Uniform(n)
			break
		}
		floats.Scale(1/total, w)
		if within(w, lo-opts.Tolerance, hi+opts.Tolerance) {
			break
		}
	}

	clamp(w, lo, hi)
	floats.Scale(1/floats.Sum(w), w)

	if !within(w, lo, hi) {
		redistribute(w, lo, hi)
	}
	return w
}

func clamp(w []float64, lo, hi float64) {
	for i, x := range w {
		switch {
		case x < lo:
			w[i] = lo
		case x > hi:
			w[i] = hi
		}
	}
}

func within(w []float64, lo, hi float64) bool {
	for _, x := range w {
		if x < lo || x > hi {
			return false
		}
	}
	return true
}

// redistribute clamps w and spreads the missing (or excess) mass over the elements in
// proportion to their distance from the bound being approached. For a feasible box the total
// headroom is at least the residual, so no element crosses a bound.
func redistribute(w []float64, lo, hi float64) {
	clamp(w, lo, hi)
	residual := 1 - floats.Sum(w)

	var room float64
	switch {
	case residual > 0:
		for _, x := range w {
			room += hi - x
		}
		if room == 0 {
			return
		}
		for i, x := range w {
			w[i] = x + residual*(hi-x)/room
		}
	case residual < 0:
		for _, x := range w {
			room += x - lo
		}
		if room == 0 {
			return
		}
		for i, x := range w {
			w[i] = x + residual*(x-lo)/room
		}
	}
}
