// Package similarity scores criterion embeddings against a query embedding.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// Score returns one similarity per candidate, index-aligned with candidates.
// Higher is more similar for every metric. Inputs are not modified.
func Score(query []float32, candidates [][]float32, m Metric) ([]float64, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMetric, string(m))
	}

	q := widen(query)
	if m == Cosine {
		unit(q)
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		if len(c) != len(q) {
			return nil, fmt.Errorf("candidate %d has dimension %d, query has %d: %w",
				i, len(c), len(q), domain.ErrDimensionMismatch)
		}
		v := widen(c)

		switch m {
		case Cosine:
			unit(v)
			scores[i] = floats.Dot(q, v)
		case Dot:
			scores[i] = floats.Dot(q, v)
		case Euclidean:
			scores[i] = 1 / (1 + floats.Distance(q, v, 2))
		}
	}
	return scores, nil
}

// widen copies a float32 embedding into a float64 slice for accumulation.
func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// unit scales v to unit L2 length in place. A zero vector is left as is.
func unit(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}
