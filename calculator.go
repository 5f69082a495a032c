package critweight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/criteria"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
	"github.com/kailas-cloud/critweight/internal/domain/similarity"
	weightsuc "github.com/kailas-cloud/critweight/internal/usecase/weights"
)

// Weight is one criterion's share of the total.
type Weight struct {
	Criterion string  // label or text; empty when Compute has no labels
	Index     int     // position in the input
	Weight    float64 // in [0, 1]; all weights sum to 1
	Score     float64 // raw similarity to the question
	Rank      int     // 1 = highest weight
}

// Usage reports embedding provider consumption for one Calculate call.
type Usage struct {
	Texts       int
	TotalTokens int
}

// Result is a weighting, ordered by rank.
type Result struct {
	Weights       []Weight
	Metric        string
	Normalization string
	Uniform       bool // bounds were infeasible for the criterion count
	Usage         Usage
	Elapsed       time.Duration
}

// Calculator computes criterion weights.
type Calculator struct {
	svc         *weightsuc.Service
	hasEmbedder bool
	labels      []string
}

// New creates a Calculator. Without WithEmbedder only Compute is available.
func New(opts ...Option) (*Calculator, error) {
	cfg := defaultCalcConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	params, err := buildParams(cfg)
	if err != nil {
		return nil, err
	}

	var query weightsuc.QueryEmbedder
	var passages weightsuc.PassageEmbedder
	if cfg.embedder != nil {
		adapter := &embedderAdapter{inner: cfg.embedder}
		query = domain.NewPrefixEmbedder(adapter, cfg.queryPrefix)
		passages = domain.NewPrefixEmbedder(adapter, cfg.passagePrefix)
	}

	return &Calculator{
		svc:         weightsuc.New(query, passages, params, cfg.maxCriteria, cfg.logger),
		hasEmbedder: cfg.embedder != nil,
		labels:      cfg.labels,
	}, nil
}

// Compute weights criteria from precomputed vectors. Pass WithLabels to name them.
func Compute(query []float32, vectors [][]float32, opts ...Option) (*Result, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Compute(context.Background(), query, vectors, nil)
}

// Compute weights criteria from precomputed vectors. No provider is called.
// nil labels fall back to those set with WithLabels.
func (c *Calculator) Compute(
	ctx context.Context, query []float32, vectors [][]float32, labels []string,
) (*Result, error) {
	if labels == nil {
		labels = c.labels
	}
	out, err := c.svc.CalculateVectors(ctx, weightsuc.VectorsRequest{
		Query:   query,
		Vectors: vectors,
		Labels:  labels,
	})
	if err != nil {
		return nil, fmt.Errorf("critweight: %w", err)
	}
	return toResult(out, Usage{}), nil
}

// Calculate embeds the question, prefixed by topic when set, and the criteria, then
// weights the criteria.
func (c *Calculator) Calculate(
	ctx context.Context, question, topic string, items []string,
) (*Result, error) {
	if !c.hasEmbedder {
		return nil, errors.New("critweight: embedder required (use WithEmbedder)")
	}

	p := c.svc.Params()
	req, err := criteria.NewRequest(question, topic, items, string(p.Metric), string(p.Method), c.svc.MaxCriteria())
	if err != nil {
		return nil, fmt.Errorf("critweight: %w", err)
	}

	ctx, usage := domain.ContextWithUsage(ctx)
	out, err := c.svc.Calculate(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("critweight: %w", err)
	}
	return toResult(out, Usage{Texts: usage.Texts, TotalTokens: usage.TotalTokens}), nil
}

func buildParams(cfg *calcConfig) (weightsuc.Params, error) {
	p := weightsuc.DefaultParams()

	m, err := similarity.Parse(cfg.metric)
	if err != nil {
		return weightsuc.Params{}, fmt.Errorf("critweight: %w", err)
	}
	nm, err := normalize.Parse(cfg.normalization)
	if err != nil {
		return weightsuc.Params{}, fmt.Errorf("critweight: %w", err)
	}
	p.Metric, p.Method = m, nm

	if cfg.minWeight != nil {
		p.Projection.MinWeight = *cfg.minWeight
	}
	if cfg.maxWeight != nil {
		p.Projection.MaxWeight = *cfg.maxWeight
	}
	if cfg.rounding != nil {
		p.Rounding.Enabled = *cfg.rounding
	}
	if cfg.decimals != nil {
		p.Rounding.Decimals = *cfg.decimals
	}

	if err := p.Validate(); err != nil {
		return weightsuc.Params{}, fmt.Errorf("critweight: %w", err)
	}
	return p, nil
}

func toResult(out weightsuc.Outcome, usage Usage) *Result {
	res := &Result{
		Weights:       make([]Weight, len(out.Results)),
		Metric:        string(out.Metric),
		Normalization: string(out.Method),
		Uniform:       out.Uniform,
		Usage:         usage,
		Elapsed:       out.Elapsed,
	}
	for i := range out.Results {
		r := &out.Results[i]
		res.Weights[i] = Weight{
			Criterion: r.Criterion(),
			Index:     r.Index(),
			Weight:    r.Weight(),
			Score:     r.Score(),
			Rank:      r.Rank(),
		}
	}
	return res
}
