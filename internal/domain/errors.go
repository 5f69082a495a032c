package domain

import "errors"

var (
	// ErrUnknownMetric signals a similarity metric outside the supported set.
	ErrUnknownMetric = errors.New("unknown similarity metric")
	// ErrUnknownNormalizationMethod signals a normalization method outside the supported set.
	ErrUnknownNormalizationMethod = errors.New("unknown normalization method")
	// ErrDimensionMismatch signals a candidate vector whose dimension differs from the query's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidBounds signals weight bounds that are not a valid sub-range of [0, 1].
	ErrInvalidBounds = errors.New("invalid weight bounds")
	// ErrInvalidRequest signals a request that failed boundary validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
