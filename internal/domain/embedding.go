package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns a single text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder turns several texts into embedding vectors in one provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries one vector and its token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors index-aligned with the input texts plus aggregate usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Default text markers expected by the e5 embedding family.
const (
	DefaultQueryPrefix   = "query: "
	DefaultPassagePrefix = "passage: "
)

// QueryText builds the text embedded for a question. A non-empty topic is put in front of the
// question so that it steers the query vector.
func QueryText(question, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return question
	}
	return topic + " " + question
}

// SequentialBatch embeds texts one by one. Used when the provider has no native batch call.
func SequentialBatch(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("sequential embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// PrefixEmbedder prepends a fixed marker (for example "query: ") to every text it embeds.
type PrefixEmbedder struct {
	inner  Embedder
	prefix string
}

// NewPrefixEmbedder wraps inner so that every text is embedded as prefix+text.
func NewPrefixEmbedder(inner Embedder, prefix string) *PrefixEmbedder {
	return &PrefixEmbedder{inner: inner, prefix: prefix}
}

// Prefix returns the marker this embedder prepends.
func (e *PrefixEmbedder) Prefix() string { return e.prefix }

// Embed prepends the marker and delegates to the inner embedder.
func (e *PrefixEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.prefix+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("prefixed embed: %w", err)
	}
	return res, nil
}

// BatchEmbed prepends the marker to each text. Falls back to one call per text when the
// inner embedder cannot batch.
func (e *PrefixEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.prefix + t
	}

	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("prefixed batch embed: %w", err)
		}
		return res, nil
	}

	res, err := SequentialBatch(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("prefixed batch embed: %w", err)
	}
	return res, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (e *PrefixEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
