package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// DefaultPoolSize is the number of concurrent single-text requests a PooledEmbedder issues.
const DefaultPoolSize = 8

// PooledEmbedder emulates batch embedding for providers without a native batch call by
// fanning single-text requests out over a bounded worker pool.
type PooledEmbedder struct {
	inner domain.Embedder
	pool  *ants.Pool
}

// NewPooledEmbedder creates a pooled embedder with size workers. size <= 0 selects DefaultPoolSize.
func NewPooledEmbedder(inner domain.Embedder, size int) (*PooledEmbedder, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	return &PooledEmbedder{inner: inner, pool: pool}, nil
}

// Embed delegates to the inner embedder on the caller's goroutine.
func (p *PooledEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return p.inner.Embed(ctx, text) //nolint:wrapcheck // transparent decorator
}

// BatchEmbed embeds every text concurrently and returns vectors in input order.
// The first failure cancels the remaining requests.
func (p *PooledEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]domain.EmbeddingResult, len(texts))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, text := range texts {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			res, err := p.inner.Embed(ctx, text)
			if err != nil {
				fail(fmt.Errorf("pooled embed [%d]: %w", i, err))
				return
			}
			results[i] = res
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit embed [%d]: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return domain.BatchEmbeddingResult{}, firstErr
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, r := range results {
		out.Embeddings[i] = r.Embedding
		out.PromptTokens += r.PromptTokens
		out.TotalTokens += r.TotalTokens
	}
	return out, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *PooledEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// Release stops the worker pool. The embedder must not be used afterwards.
func (p *PooledEmbedder) Release() {
	p.pool.Release()
}
