package normalize

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// Method selects how raw similarity scores become an initial distribution.
type Method string

// Supported methods.
const (
	Softmax Method = "softmax"
	MinMax  Method = "minmax"
)

// Default is used when a request does not name a method.
const Default = Softmax

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == Softmax || m == MinMax
}

// Parse converts external input into a Method. Matching is case-insensitive and an empty
// string selects Default.
func Parse(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	m := Method(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownNormalizationMethod, s)
	}
	return m, nil
}
