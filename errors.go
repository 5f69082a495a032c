package critweight

import "github.com/kailas-cloud/critweight/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnknownMetric              = domain.ErrUnknownMetric
	ErrUnknownNormalizationMethod = domain.ErrUnknownNormalizationMethod
	ErrDimensionMismatch          = domain.ErrDimensionMismatch
	ErrInvalidBounds              = domain.ErrInvalidBounds
	ErrInvalidRequest             = domain.ErrInvalidRequest
	ErrEmbeddingProviderError     = domain.ErrEmbeddingProviderError
)
