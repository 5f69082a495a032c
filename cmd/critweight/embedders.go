package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/critweight/internal/config"
	dbRedis "github.com/kailas-cloud/critweight/internal/db/redis"
	"github.com/kailas-cloud/critweight/internal/domain"
	"github.com/kailas-cloud/critweight/internal/metrics"
	"github.com/kailas-cloud/critweight/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/critweight/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/critweight/internal/usecase/embedding"
)

// embedderChain holds the query and passage embedders sharing one provider client.
type embedderChain struct {
	Query   *domain.PrefixEmbedder
	Passage *domain.PrefixEmbedder
	pool    *embeddinguc.PooledEmbedder
}

// Close releases the worker pool, if any.
func (c *embedderChain) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// newEmbedderChain assembles the decorator chain:
// OpenAI -> Pooled (no native batch) -> Cached -> Instrumented -> Prefix.
// The prefix is outermost so cache keys include it.
func newEmbedderChain(
	ec config.EmbeddingConfig,
	cc config.CacheConfig,
	store *dbRedis.Store,
	logger *zap.Logger,
) (*embedderChain, error) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	chain := &embedderChain{}
	var embedder domain.Embedder = base

	if !*ec.NativeBatch {
		pool, err := embeddinguc.NewPooledEmbedder(base, ec.Workers)
		if err != nil {
			return nil, fmt.Errorf("embedding pool: %w", err)
		}
		chain.pool = pool
		embedder = pool
	}

	if store != nil {
		embedder = embcache.New(embedder, store, ec.Model, cc.TTL(), metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)

	chain.Query = domain.NewPrefixEmbedder(embedder, ec.QueryInstruction)
	chain.Passage = domain.NewPrefixEmbedder(embedder, ec.DocumentInstruction)
	return chain, nil
}
