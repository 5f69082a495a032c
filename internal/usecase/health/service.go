package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "healthy"
	// Degraded indicates at least one dependency failed its check.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentEmbedding = "embedding"
	ComponentCache     = "cache"
)

// DefaultCheckTimeout bounds each dependency probe.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	embedding EmbeddingChecker
	cache     CachePinger
	timeout   time.Duration
}

// New creates a Service. Either dependency can be nil, in which case it is not checked.
func New(embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{embedding: embedding, cache: cache, timeout: DefaultCheckTimeout}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.embedding != nil {
		checks[ComponentEmbedding] = s.probe(ctx, s.embedding.HealthCheck)
	}
	if s.cache != nil {
		checks[ComponentCache] = s.probe(ctx, s.cache.Ping)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
