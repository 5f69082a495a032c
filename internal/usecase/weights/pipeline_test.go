package weights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
	"github.com/kailas-cloud/critweight/internal/domain/rounding"
	"github.com/kailas-cloud/critweight/internal/domain/similarity"
)

var (
	exampleQuery   = []float32{1, 0}
	exampleVectors = [][]float32{{1, 0}, {0, 1}, {1, 1}}
)

func TestCompute_EndToEndExample(t *testing.T) {
	c, err := Compute(exampleQuery, exampleVectors, DefaultParams())
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 0, 0.70710678}, c.Scores, 1e-6)
	assert.InDeltaSlice(t, []float64{0.45, 0.18, 0.37}, c.Weights, 1e-12)
	assert.Equal(t, []int{1, 3, 2}, c.Ranks)
	assert.False(t, c.Uniform)
}

func TestCompute_WithoutRounding(t *testing.T) {
	p := DefaultParams()
	p.Rounding.Enabled = false

	c, err := Compute(exampleQuery, exampleVectors, p)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.45, 0.18163129, 0.36836871}, c.Weights, 1e-6)
	sum := 0.0
	for _, w := range c.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCompute_MinMax(t *testing.T) {
	// Dot scores [0.2, 0.9, 0.5] → minmax [0, 1, 0.4286] → projected [0.1, 0.45, 0.45].
	p := DefaultParams()
	p.Metric = similarity.Dot
	p.Method = normalize.MinMax

	c, err := Compute([]float32{1}, [][]float32{{0.2}, {0.9}, {0.5}}, p)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.10, 0.45, 0.45}, c.Weights, 1e-12)
	assert.Equal(t, []int{3, 1, 2}, c.Ranks)
}

func TestCompute_RanksFollowUnroundedWeights(t *testing.T) {
	// Softmax ≈ [0.3385, 0.3414, 0.1521, 0.1680]; the first two both round to 0.34.
	vectors := [][]float32{{0.8, 0.6}, {0.81, 0.59}, {0, 1}, {0.1, 1}}

	c, err := Compute([]float32{1, 0}, vectors, DefaultParams())
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.34, 0.34, 0.15, 0.17}, c.Weights, 1e-12)
	assert.Equal(t, []int{2, 1, 4, 3}, c.Ranks)

	results := c.Results(nil)
	assert.Equal(t, 1, results[0].Index())
	assert.Equal(t, 0, results[1].Index())
}

func TestCompute_SingleCriterionIsUniform(t *testing.T) {
	c, err := Compute([]float32{1, 2}, [][]float32{{3, 4}}, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, []float64{1}, c.Weights)
	assert.Equal(t, []int{1}, c.Ranks)
	assert.True(t, c.Uniform)
}

func TestCompute_TooManyCriteriaIsUniform(t *testing.T) {
	vectors := make([][]float32, 25)
	for i := range vectors {
		vectors[i] = []float32{float32(i + 1), 1}
	}
	p := DefaultParams()
	p.Rounding.Enabled = false

	c, err := Compute([]float32{1, 0}, vectors, p)
	require.NoError(t, err)

	assert.True(t, c.Uniform)
	for _, w := range c.Weights {
		assert.InDelta(t, 1.0/25, w, 1e-12)
	}
	// Equal weights rank by input position.
	for i, r := range c.Ranks {
		assert.Equal(t, i+1, r)
	}
}

func TestCompute_DimensionMismatch(t *testing.T) {
	_, err := Compute([]float32{1, 0}, [][]float32{{1, 0}, {1, 0, 0}}, DefaultParams())
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestCompute_InvalidEnums(t *testing.T) {
	p := DefaultParams()
	p.Metric = "manhattan"
	_, err := Compute(exampleQuery, exampleVectors, p)
	assert.ErrorIs(t, err, domain.ErrUnknownMetric)

	p = DefaultParams()
	p.Method = "zscore"
	_, err = Compute(exampleQuery, exampleVectors, p)
	assert.ErrorIs(t, err, domain.ErrUnknownNormalizationMethod)
}

func TestComputation_Results(t *testing.T) {
	c, err := Compute(exampleQuery, exampleVectors, DefaultParams())
	require.NoError(t, err)

	results := c.Results([]string{"Team", "Finance", "Market"})
	require.Len(t, results, 3)

	assert.Equal(t, "Team", results[0].Criterion())
	assert.Equal(t, 1, results[0].Rank())
	assert.Equal(t, "Market", results[1].Criterion())
	assert.Equal(t, 2, results[1].Rank())
	assert.Equal(t, "Finance", results[2].Criterion())
	assert.Equal(t, 1, results[2].Index())
	assert.InDelta(t, 0.0, results[2].Score(), 1e-9)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.Projection.MinWeight = 0.5
	p.Projection.MaxWeight = 0.4
	assert.ErrorIs(t, p.Validate(), domain.ErrInvalidBounds)

	p = DefaultParams()
	p.Rounding.Decimals = 12
	assert.ErrorIs(t, p.Validate(), domain.ErrInvalidRequest)

	p = DefaultParams()
	p.Rounding.Decimals = rounding.MaxDecimals
	require.NoError(t, p.Validate())
	p.Rounding.Decimals = rounding.MaxDecimals + 1
	assert.ErrorIs(t, p.Validate(), domain.ErrInvalidRequest)

	p = DefaultParams()
	p.Metric = "bogus"
	assert.ErrorIs(t, p.Validate(), domain.ErrUnknownMetric)
}
