package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/domain/criteria"
	logpkg "github.com/kailas-cloud/critweight/internal/logger"
	healthuc "github.com/kailas-cloud/critweight/internal/usecase/health"
	weightsuc "github.com/kailas-cloud/critweight/internal/usecase/weights"
)

// DefaultMaxBodyBytes caps request bodies; fifty 4096-dimension vectors fit comfortably.
const DefaultMaxBodyBytes int64 = 8 << 20

// ServiceName is reported by the health and root endpoints.
const ServiceName = "question-criteria-weight-calculator"

// Route paths.
const (
	PathCalculateWeights = "/api/v1/calculate-weights"
	PathCalculateVectors = "/api/v1/calculate-weights/vectors"
	PathHealth           = "/health"
	PathHealthV1         = "/api/v1/health"
	PathMetrics          = "/metrics"
	PathRoot             = "/"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the weighting HTTP API.
type Server struct {
	weights       *weightsuc.Service
	health        *healthuc.Service
	version       string
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
	now           func() time.Time
}

// NewServer creates an HTTP API server.
func NewServer(
	weights *weightsuc.Service,
	health *healthuc.Service,
	version string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		weights:      weights,
		health:       health,
		version:      version,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
		now:          time.Now,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrUnknownMetric, http.StatusBadRequest, ErrorResponseCodeUnknownMetric),
		sentinelHandler(domain.ErrUnknownNormalizationMethod,
			http.StatusBadRequest, ErrorResponseCodeUnknownNormalizationMethod),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, ErrorResponseCodeDimensionMismatch),
		sentinelHandler(domain.ErrInvalidBounds, http.StatusBadRequest, ErrorResponseCodeInvalidBounds),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
	}
	return s
}

// WithMaxBodyBytes overrides the request body limit. n <= 0 keeps the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get(PathRoot, s.Root)
	r.Get(PathHealth, s.HealthCheck)
	r.Get(PathMetrics, s.Metrics)
	r.Get(PathHealthV1, s.HealthCheck)
	r.Post(PathCalculateWeights, s.CalculateWeights)
	r.Post(PathCalculateVectors, s.CalculateWeightsFromVectors)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeBadRequest, "method not allowed")
	})
}

// CalculateWeights handles POST /api/v1/calculate-weights.
func (s *Server) CalculateWeights(w http.ResponseWriter, r *http.Request) {
	var body CalculateWeightsRequest
	if !s.decode(w, r, &body) {
		return
	}

	var topic string
	if body.Topic != nil {
		topic = *body.Topic
	}

	defaults := s.weights.Params()
	metric := body.Metric
	if metric == "" {
		metric = string(defaults.Metric)
	}
	method := normalizationOf(body.Normalization, body.NormalizationMethod)
	if method == "" {
		method = string(defaults.Method)
	}

	req, err := criteria.NewRequest(
		body.Question, topic, body.Criteria, metric, method, s.weights.MaxCriteria(),
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.ContextWithUsage(r.Context())
	out, err := s.weights.Calculate(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var topicOut *string
	if body.Topic != nil {
		t := req.Topic()
		topicOut = &t
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, s.weightResponse(out, req.Question(), topicOut))
}

// CalculateWeightsFromVectors handles POST /api/v1/calculate-weights/vectors.
func (s *Server) CalculateWeightsFromVectors(w http.ResponseWriter, r *http.Request) {
	var body CalculateVectorsRequest
	if !s.decode(w, r, &body) {
		return
	}

	out, err := s.weights.CalculateVectors(r.Context(), weightsuc.VectorsRequest{
		Query:   body.QueryVector,
		Vectors: body.CriterionVectors,
		Labels:  body.Labels,
		Metric:  body.Metric,
		Method:  normalizationOf(body.Normalization, body.NormalizationMethod),
		Overrides: weightsuc.Overrides{
			MinWeight:     body.MinWeight,
			MaxWeight:     body.MaxWeight,
			RoundDecimals: body.RoundDecimals,
		},
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.weightResponse(out, "", nil))
}

// HealthCheck handles GET /health and GET /api/v1/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Service: ServiceName,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Service: "Question Criteria Weight Calculator",
		Version: s.version,
		API:     PathCalculateWeights,
		Health:  PathHealth,
		Metrics: PathMetrics,
	})
}

func (s *Server) weightResponse(out weightsuc.Outcome, question string, topic *string) WeightResponse {
	return WeightResponse{
		CalculationID:       uuid.NewString(),
		Question:            question,
		Topic:               topic,
		TotalCriteria:       len(out.Results),
		Weights:             WeightsToDTO(out.Results),
		MetricUsed:          string(out.Metric),
		NormalizationMethod: string(out.Method),
		UniformFallback:     out.Uniform,
		ProcessingTimeMs:    float64(out.Elapsed.Microseconds()) / 1000,
		Timestamp:           s.now().UTC(),
	}
}

// decode reads a JSON body into v, writing a 400/413 and returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodeRequestTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Texts > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
		w.Header().Set("X-Embedding-Texts", strconv.Itoa(usage.Texts))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// clientErrors carry messages written for the caller; their full text is safe to return.
var clientErrors = []error{
	domain.ErrInvalidRequest,
	domain.ErrUnknownMetric,
	domain.ErrUnknownNormalizationMethod,
	domain.ErrDimensionMismatch,
	domain.ErrInvalidBounds,
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors keep their detail; provider errors collapse to the sentinel text.
func safeDomainMessage(err error) string {
	for _, s := range clientErrors {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		return domain.ErrEmbeddingProviderError.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
