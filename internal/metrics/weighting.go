package metrics

import "github.com/prometheus/client_golang/prometheus"

// Weighting pipeline Prometheus metrics.
var (
	WeightsComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "critweight",
			Name:      "weights_computed_total",
			Help:      "Total number of weight computations",
		},
		[]string{"metric", "method", "source"}, // source: "text" / "vectors"
	)

	ProjectionFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "critweight",
			Name:      "projection_fallback_total",
			Help:      "Computations that returned the uniform distribution instead of projecting",
		},
		[]string{"reason"},
	)

	CriteriaPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "critweight",
			Name:      "criteria_per_request",
			Help:      "Number of criteria per weight computation",
			Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 30, 50},
		},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "critweight",
			Name:      "pipeline_duration_seconds",
			Help:      "Weight computation duration in seconds, split by stage",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"}, // "embed" / "compute"
	)
)

var weightingRegistered bool

// RegisterWeightingMetrics registers the pipeline metrics. Must be called once from main.
func RegisterWeightingMetrics() {
	if weightingRegistered {
		return
	}
	prometheus.MustRegister(WeightsComputedTotal)
	prometheus.MustRegister(ProjectionFallbackTotal)
	prometheus.MustRegister(CriteriaPerRequest)
	prometheus.MustRegister(PipelineDuration)
	weightingRegistered = true
}
