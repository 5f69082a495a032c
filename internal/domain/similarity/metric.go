package similarity

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// Metric selects how a criterion vector is compared to the query vector.
type Metric string

// Supported metrics.
const (
	// Cosine compares L2-normalized vectors. Range [-1, 1].
	Cosine    Metric = "cosine"
	Dot       Metric = "dot"
	Euclidean Metric = "euclidean"
)

// Default is used when a request does not name a metric.
const Default = Cosine

// IsValid checks if the metric is one of the supported values.
func (m Metric) IsValid() bool {
	return m == Cosine || m == Dot || m == Euclidean
}

// Parse converts external input into a Metric. Matching is case-insensitive and an empty
// string selects Default.
func Parse(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	m := Metric(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownMetric, s)
	}
	return m, nil
}
