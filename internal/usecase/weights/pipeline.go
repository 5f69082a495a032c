package weights

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/criteria"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
	"github.com/kailas-cloud/critweight/internal/domain/rounding"
	"github.com/kailas-cloud/critweight/internal/domain/similarity"
	"github.com/kailas-cloud/critweight/internal/domain/simplex"
)

// Params selects the pipeline stages' behavior.
type Params struct {
	Metric     similarity.Metric
	Method     normalize.Method
	Projection simplex.Options
	Rounding   RoundingParams
}

// RoundingParams controls the optional sum-preserving rounding stage.
type RoundingParams struct {
	Enabled  bool
	Decimals int
}

// DefaultParams returns cosine + softmax, bounds [0.05, 0.45], rounding to 2 decimals.
func DefaultParams() Params {
	return Params{
		Metric:     similarity.Default,
		Method:     normalize.Default,
		Projection: simplex.DefaultOptions(),
		Rounding:   RoundingParams{Enabled: true, Decimals: rounding.DefaultDecimals},
	}
}

// Validate checks enum values, projection bounds and rounding precision.
func (p Params) Validate() error {
	if !p.Metric.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMetric, string(p.Metric))
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownNormalizationMethod, string(p.Method))
	}
	if err := p.Projection.Validate(); err != nil {
		return fmt.Errorf("projection: %w", err)
	}
	if p.Rounding.Decimals < 0 || p.Rounding.Decimals > rounding.MaxDecimals {
		return fmt.Errorf("%w: round_decimals must be between 0 and %d, got %d",
			domain.ErrInvalidRequest, rounding.MaxDecimals, p.Rounding.Decimals)
	}
	return nil
}

// Computation is the pipeline output, index-aligned with the criterion vectors.
type Computation struct {
	Scores  []float64
	Weights []float64
	Ranks   []int
	// Uniform is set when the bounds were infeasible for the criterion count and the
	// projection returned 1/N for every item.
	Uniform bool
}

// Results pairs the computation with criterion labels and returns them ordered by rank.
// labels may be shorter than the computation; missing labels are empty.
func (c Computation) Results(labels []string) []criteria.Result {
	out := make([]criteria.Result, len(c.Weights))
	for i := range c.Weights {
		var label string
		if i < len(labels) {
			label = labels[i]
		}
		out[i] = criteria.New(i, label, c.Weights[i], c.Scores[i], c.Ranks[i])
	}
	criteria.SortByRank(out)
	return out
}

// Compute runs scoring, base normalization, box-constrained projection and, when enabled,
// sum-preserving rounding. Ranks follow the projected weights, so two criteria that round
// to the same value keep their unrounded order. It is a pure function of its inputs.
func Compute(query []float32, vectors [][]float32, p Params) (Computation, error) {
	scores, err := similarity.Score(query, vectors, p.Metric)
	if err != nil {
		return Computation{}, fmt.Errorf("score: %w", err)
	}

	base, err := normalize.Base(scores, p.Method)
	if err != nil {
		return Computation{}, fmt.Errorf("normalize: %w", err)
	}

	n := len(base)
	uniform := n > 0 && !simplex.Feasible(n, p.Projection.MinWeight, p.Projection.MaxWeight)
	projected := simplex.Project(base, p.Projection)
	ranks := criteria.Ranks(rankKeys(projected))

	w := projected
	if p.Rounding.Enabled {
		w = rounding.PreserveSum(projected, p.Rounding.Decimals)
	}

	return Computation{
		Scores:  scores,
		Weights: w,
		Ranks:   ranks,
		Uniform: uniform,
	}, nil
}

// rankScale collapses float noise left by projection, so weights pinned to the same bound
// tie and fall back to input order.
const rankScale = 1e12

func rankKeys(w []float64) []float64 {
	keys := make([]float64, len(w))
	for i, v := range w {
		keys[i] = math.Round(v*rankScale) / rankScale
	}
	return keys
}
