package critweight

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// Option configures a Calculator.
type Option interface {
	apply(*calcConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*calcConfig)

func (f optionFunc) apply(c *calcConfig) { f(c) }

type calcConfig struct {
	embedder      Embedder
	queryPrefix   string
	passagePrefix string

	metric        string
	normalization string
	minWeight     *float64
	maxWeight     *float64
	rounding      *bool
	decimals      *int
	maxCriteria   int
	labels        []string

	logger *zap.Logger
}

func defaultCalcConfig() *calcConfig {
	return &calcConfig{
		queryPrefix:   domain.DefaultQueryPrefix,
		passagePrefix: domain.DefaultPassagePrefix,
	}
}

// WithEmbedder sets the text embedding provider. Required for Calculate.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *calcConfig) {
		c.embedder = e
	})
}

// WithPrefixes sets the markers prepended to the question and to each criterion before
// embedding. Defaults to "query: " and "passage: " (e5 models). Pass empty strings to disable.
func WithPrefixes(query, passage string) Option {
	return optionFunc(func(c *calcConfig) {
		c.queryPrefix = query
		c.passagePrefix = passage
	})
}

// WithMetric selects the similarity metric: cosine (default), dot or euclidean.
func WithMetric(metric string) Option {
	return optionFunc(func(c *calcConfig) {
		c.metric = metric
	})
}

// WithNormalization selects the score normalization: softmax (default) or minmax.
func WithNormalization(method string) Option {
	return optionFunc(func(c *calcConfig) {
		c.normalization = method
	})
}

// WithBounds sets the weight range. Default: [0.05, 0.45].
// When n criteria cannot fit (lo*n > 1 or hi*n < 1) the weights are uniform.
func WithBounds(lo, hi float64) Option {
	return optionFunc(func(c *calcConfig) {
		c.minWeight = &lo
		c.maxWeight = &hi
	})
}

// WithRounding rounds weights to the given number of decimals (0..6) keeping the sum at 1.
// Default: 2. Other values make New fail with ErrInvalidRequest.
func WithRounding(decimals int) Option {
	return optionFunc(func(c *calcConfig) {
		enabled := true
		c.rounding = &enabled
		c.decimals = &decimals
	})
}

// WithoutRounding returns the projected weights as computed.
func WithoutRounding() Option {
	return optionFunc(func(c *calcConfig) {
		disabled := false
		c.rounding = &disabled
	})
}

// WithMaxCriteria caps the number of criteria per call. Default: 50.
func WithMaxCriteria(n int) Option {
	return optionFunc(func(c *calcConfig) {
		c.maxCriteria = n
	})
}

// WithLabels names the criteria for Compute. Weight.Criterion carries labels[Weight.Index].
// The length must match the vectors passed to Compute.
func WithLabels(labels []string) Option {
	return optionFunc(func(c *calcConfig) {
		c.labels = labels
	})
}

// WithLogger enables debug logging of computations. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *calcConfig) {
		c.logger = l
	})
}
