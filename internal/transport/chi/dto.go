package chi

import (
	"time"

	"github.com/kailas-cloud/critweight/internal/domain/criteria"
)

// ErrorResponseCode is the machine-readable error code in error bodies.
type ErrorResponseCode string

// Error codes returned by the API.
const (
	ErrorResponseCodeBadRequest                 ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed           ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnknownMetric              ErrorResponseCode = "unknown_metric"
	ErrorResponseCodeUnknownNormalizationMethod ErrorResponseCode = "unknown_normalization_method"
	ErrorResponseCodeDimensionMismatch          ErrorResponseCode = "dimension_mismatch"
	ErrorResponseCodeInvalidBounds              ErrorResponseCode = "invalid_bounds"
	ErrorResponseCodeEmbeddingProviderError     ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeUnauthorized               ErrorResponseCode = "unauthorized"
	ErrorResponseCodeRequestTooLarge            ErrorResponseCode = "request_too_large"
	ErrorResponseCodeInternalError              ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// CalculateWeightsRequest is the body of POST /api/v1/calculate-weights.
type CalculateWeightsRequest struct {
	Question      string   `json:"question"`
	Criteria      []string `json:"criteria"`
	Topic         *string  `json:"topic,omitempty"`
	Metric        string   `json:"metric,omitempty"`
	Normalization string   `json:"normalization,omitempty"`
	// NormalizationMethod is accepted as an alias of Normalization.
	NormalizationMethod string `json:"normalization_method,omitempty"`
}

// CalculateVectorsRequest is the body of POST /api/v1/calculate-weights/vectors.
type CalculateVectorsRequest struct {
	QueryVector         []float32   `json:"query_vector"`
	CriterionVectors    [][]float32 `json:"criterion_vectors"`
	Labels              []string    `json:"labels,omitempty"`
	Metric              string      `json:"metric,omitempty"`
	Normalization       string      `json:"normalization,omitempty"`
	NormalizationMethod string      `json:"normalization_method,omitempty"`
	MinWeight           *float64    `json:"min_weight,omitempty"`
	MaxWeight           *float64    `json:"max_weight,omitempty"`
	RoundDecimals       *int        `json:"round_decimals,omitempty"`
}

// CriteriaWeight is one ranked criterion in a weights response.
type CriteriaWeight struct {
	Criterion       string  `json:"criterion"`
	Weight          float64 `json:"weight"`
	SimilarityScore float64 `json:"similarity_score"`
	Rank            int     `json:"rank"`
}

// WeightResponse is the body of a successful weights computation.
type WeightResponse struct {
	CalculationID       string           `json:"calculation_id"`
	Question            string           `json:"question,omitempty"`
	Topic               *string          `json:"topic"`
	TotalCriteria       int              `json:"total_criteria"`
	Weights             []CriteriaWeight `json:"weights"`
	MetricUsed          string           `json:"metric_used"`
	NormalizationMethod string           `json:"normalization_method"`
	UniformFallback     bool             `json:"uniform_fallback"`
	ProcessingTimeMs    float64          `json:"processing_time_ms"`
	Timestamp           time.Time        `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	API     string `json:"api"`
	Health  string `json:"health"`
	Metrics string `json:"metrics"`
}

// normalizationOf returns the primary field, falling back to the alias.
func normalizationOf(primary, alias string) string {
	if primary != "" {
		return primary
	}
	return alias
}

// WeightsToDTO converts ranked results to their wire form, preserving order.
func WeightsToDTO(results []criteria.Result) []CriteriaWeight {
	out := make([]CriteriaWeight, len(results))
	for i := range results {
		r := &results[i]
		out[i] = CriteriaWeight{
			Criterion:       r.Criterion(),
			Weight:          r.Weight(),
			SimilarityScore: r.Score(),
			Rank:            r.Rank(),
		}
	}
	return out
}
