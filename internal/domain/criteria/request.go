package criteria

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
	"github.com/kailas-cloud/critweight/internal/domain/similarity"
)

// Request limits.
const (
	MaxQuestionLength  = 4096
	MaxCriterionLength = 1024
	DefaultMaxCriteria = 50
)

// Request is a validated weighting request.
type Request struct {
	question string
	topic    string
	criteria []string
	metric   similarity.Metric
	method   normalize.Method
}

// NewRequest validates a weighting request. Metric and method are parsed case-insensitively;
// empty values select cosine and softmax. maxCriteria <= 0 selects DefaultMaxCriteria.
func NewRequest(
	question, topic string,
	items []string,
	metric, method string,
	maxCriteria int,
) (Request, error) {
	if maxCriteria <= 0 {
		maxCriteria = DefaultMaxCriteria
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}
	if len(question) > MaxQuestionLength {
		return Request{}, fmt.Errorf("%w: question too long (max %d chars)",
			domain.ErrInvalidRequest, MaxQuestionLength)
	}
	if len(items) == 0 {
		return Request{}, fmt.Errorf("%w: at least one criterion is required", domain.ErrInvalidRequest)
	}
	if len(items) > maxCriteria {
		return Request{}, fmt.Errorf("%w: too many criteria (max %d, got %d)",
			domain.ErrInvalidRequest, maxCriteria, len(items))
	}

	cleaned := make([]string, len(items))
	for i, c := range items {
		c = strings.TrimSpace(c)
		if c == "" {
			return Request{}, fmt.Errorf("%w: criterion %d is empty", domain.ErrInvalidRequest, i)
		}
		if len(c) > MaxCriterionLength {
			return Request{}, fmt.Errorf("%w: criterion %d too long (max %d chars)",
				domain.ErrInvalidRequest, i, MaxCriterionLength)
		}
		cleaned[i] = c
	}

	m, err := similarity.Parse(metric)
	if err != nil {
		return Request{}, fmt.Errorf("metric: %w", err)
	}
	nm, err := normalize.Parse(method)
	if err != nil {
		return Request{}, fmt.Errorf("normalization: %w", err)
	}

	return Request{
		question: question,
		topic:    strings.TrimSpace(topic),
		criteria: cleaned,
		metric:   m,
		method:   nm,
	}, nil
}

// Question returns the trimmed question text.
func (r *Request) Question() string { return r.question }

// Topic returns the optional topic (empty if absent).
func (r *Request) Topic() string { return r.topic }

// Criteria returns the trimmed criteria in request order.
func (r *Request) Criteria() []string { return r.criteria }

// Metric returns the similarity metric.
func (r *Request) Metric() similarity.Metric { return r.metric }

// Method returns the normalization method.
func (r *Request) Method() normalize.Method { return r.method }
