package weights

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/criteria"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
	"github.com/kailas-cloud/critweight/internal/domain/similarity"
	"github.com/kailas-cloud/critweight/internal/metrics"
)

// Metric label values for the input source.
const (
	sourceText    = "text"
	sourceVectors = "vectors"
)

// Outcome is a finished computation with ranked results.
type Outcome struct {
	Results []criteria.Result
	Metric  similarity.Metric
	Method  normalize.Method
	Uniform bool
	Elapsed time.Duration
}

// Overrides replaces the configured projection bounds and rounding precision for one request.
// Nil fields keep the service defaults.
type Overrides struct {
	MinWeight     *float64
	MaxWeight     *float64
	RoundDecimals *int
}

// VectorsRequest carries precomputed embeddings. Vectors are index-aligned with Labels;
// labels are optional. Empty Metric or Method keep the service defaults.
type VectorsRequest struct {
	Query     []float32
	Vectors   [][]float32
	Labels    []string
	Metric    string
	Method    string
	Overrides Overrides
}

// Service computes criterion weights from question and criterion texts.
type Service struct {
	query       QueryEmbedder
	passages    PassageEmbedder
	params      Params
	maxCriteria int
	logger      *zap.Logger
}

// New creates a weights service. params holds the configured defaults; per-request metric and
// method override them.
func New(
	query QueryEmbedder, passages PassageEmbedder, params Params, maxCriteria int, logger *zap.Logger,
) *Service {
	if maxCriteria <= 0 {
		maxCriteria = criteria.DefaultMaxCriteria
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		query:       query,
		passages:    passages,
		params:      params,
		maxCriteria: maxCriteria,
		logger:      logger,
	}
}

// MaxCriteria returns the per-request criterion limit.
func (s *Service) MaxCriteria() int { return s.maxCriteria }

// Params returns the configured defaults.
func (s *Service) Params() Params { return s.params }

// Calculate embeds the question (with its topic) and the criteria, then runs the pipeline.
func (s *Service) Calculate(ctx context.Context, req *criteria.Request) (Outcome, error) {
	start := time.Now()

	embedStart := time.Now()
	q, err := s.query.Embed(ctx, domain.QueryText(req.Question(), req.Topic()))
	if err != nil {
		return Outcome{}, fmt.Errorf("vectorize question: %w", err)
	}
	domain.UsageFromContext(ctx).Record(1, q.TotalTokens)

	batch, err := s.passages.BatchEmbed(ctx, req.Criteria())
	if err != nil {
		return Outcome{}, fmt.Errorf("vectorize criteria: %w", err)
	}
	domain.UsageFromContext(ctx).Record(len(req.Criteria()), batch.TotalTokens)
	metrics.PipelineDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())

	if len(batch.Embeddings) != len(req.Criteria()) {
		return Outcome{}, fmt.Errorf("%w: got %d embeddings for %d criteria",
			domain.ErrEmbeddingProviderError, len(batch.Embeddings), len(req.Criteria()))
	}

	p := s.params
	p.Metric = req.Metric()
	p.Method = req.Method()

	out, err := s.compute(q.Embedding, batch.Embeddings, req.Criteria(), p, sourceText)
	if err != nil {
		return Outcome{}, err
	}
	out.Elapsed = time.Since(start)

	s.logger.Debug("weights calculated",
		zap.Int("criteria", len(req.Criteria())),
		zap.String("metric", string(p.Metric)),
		zap.String("method", string(p.Method)),
		zap.Int("tokens", q.TotalTokens+batch.TotalTokens),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}

// CalculateVectors runs the pipeline on caller-supplied embeddings. No provider is called.
func (s *Service) CalculateVectors(_ context.Context, req VectorsRequest) (Outcome, error) {
	start := time.Now()

	if len(req.Query) == 0 {
		return Outcome{}, fmt.Errorf("%w: query vector is required", domain.ErrInvalidRequest)
	}
	if len(req.Vectors) == 0 {
		return Outcome{}, fmt.Errorf("%w: at least one criterion vector is required", domain.ErrInvalidRequest)
	}
	if len(req.Vectors) > s.maxCriteria {
		return Outcome{}, fmt.Errorf("%w: too many criteria (max %d, got %d)",
			domain.ErrInvalidRequest, s.maxCriteria, len(req.Vectors))
	}
	if len(req.Labels) > 0 && len(req.Labels) != len(req.Vectors) {
		return Outcome{}, fmt.Errorf("%w: %d labels for %d vectors",
			domain.ErrInvalidRequest, len(req.Labels), len(req.Vectors))
	}

	p, err := s.paramsFor(req)
	if err != nil {
		return Outcome{}, err
	}

	out, err := s.compute(req.Query, req.Vectors, req.Labels, p, sourceVectors)
	if err != nil {
		return Outcome{}, err
	}
	out.Elapsed = time.Since(start)
	return out, nil
}

func (s *Service) paramsFor(req VectorsRequest) (Params, error) {
	p := s.params

	if req.Metric != "" {
		m, err := similarity.Parse(req.Metric)
		if err != nil {
			return Params{}, fmt.Errorf("metric: %w", err)
		}
		p.Metric = m
	}
	if req.Method != "" {
		nm, err := normalize.Parse(req.Method)
		if err != nil {
			return Params{}, fmt.Errorf("normalization: %w", err)
		}
		p.Method = nm
	}

	if req.Overrides.MinWeight != nil {
		p.Projection.MinWeight = *req.Overrides.MinWeight
	}
	if req.Overrides.MaxWeight != nil {
		p.Projection.MaxWeight = *req.Overrides.MaxWeight
	}
	if req.Overrides.RoundDecimals != nil {
		p.Rounding.Enabled = true
		p.Rounding.Decimals = *req.Overrides.RoundDecimals
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (s *Service) compute(
	query []float32, vectors [][]float32, labels []string, p Params, source string,
) (Outcome, error) {
	computeStart := time.Now()
	c, err := Compute(query, vectors, p)
	if err != nil {
		return Outcome{}, fmt.Errorf("compute weights: %w", err)
	}
	metrics.PipelineDuration.WithLabelValues("compute").Observe(time.Since(computeStart).Seconds())
	metrics.WeightsComputedTotal.WithLabelValues(string(p.Metric), string(p.Method), source).Inc()
	metrics.CriteriaPerRequest.Observe(float64(len(vectors)))
	if c.Uniform {
		metrics.ProjectionFallbackTotal.WithLabelValues("infeasible").Inc()
		s.logger.Debug("bounds infeasible, returning uniform weights",
			zap.Int("criteria", len(vectors)),
			zap.Float64("min_weight", p.Projection.MinWeight),
			zap.Float64("max_weight", p.Projection.MaxWeight),
		)
	}

	return Outcome{
		Results: c.Results(labels),
		Metric:  p.Metric,
		Method:  p.Method,
		Uniform: c.Uniform,
	}, nil
}
