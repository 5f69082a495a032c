package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/critweight/internal/db"
	"github.com/kailas-cloud/critweight/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var gotTTL time.Duration
	ms.setFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if gotTTL != time.Hour {
		t.Fatalf("expected SET with 1h TTL, got %v", gotTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected 0 tokens on hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatal("inner embedder must not be called on hit")
	}
}

func TestEmbed_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection reset")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("readonly")
	}

	result, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("store errors must not fail the request: %v", err)
	}
	if len(result.Embedding) != 1 || inner.calls != 1 {
		t.Fatalf("expected inner call, got %v (%d calls)", result.Embedding, inner.calls)
	}
}

func TestEmbed_CorruptCacheEntry(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatal("expected corrupt entry to be treated as a miss")
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestCacheKey_DependsOnModel(t *testing.T) {
	a := New(nil, nil, "model-a", 0, nil, zap.NewNop())
	b := New(nil, nil, "model-b", 0, nil, zap.NewNop())

	if a.cacheKey("passage: Team") == b.cacheKey("passage: Team") {
		t.Fatal("keys for different models must differ")
	}
	if a.cacheKey("query: x") == a.cacheKey("passage: x") {
		t.Fatal("keys for different texts must differ")
	}
	if a.cacheKey("x") != a.cacheKey("x") {
		t.Fatal("keys must be deterministic")
	}
}

func TestBatchEmbed_OnlyMissesReachProvider(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{9, 9},
		TotalTokens: 3,
	}}
	ms := newMemStore()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	ce := New(inner, ms, "m", 24*time.Hour, counter, zap.NewNop())

	// Warm "b".
	ms.data[ce.cacheKey("b")] = vectorToCacheBytes([]float32{2, 2})

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 || len(inner.lastBatch) != 2 {
		t.Fatalf("expected one batch with 2 misses, got %d calls, batch %v", inner.batchCalls, inner.lastBatch)
	}
	if inner.lastBatch[0] != "a" || inner.lastBatch[1] != "c" {
		t.Errorf("unexpected miss order: %v", inner.lastBatch)
	}
	if res.Embeddings[0][0] != 9 || res.Embeddings[1][0] != 2 || res.Embeddings[2][0] != 9 {
		t.Errorf("embeddings not index-aligned: %v", res.Embeddings)
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected tokens only for misses (6), got %d", res.TotalTokens)
	}
	if ms.ttls[ce.cacheKey("a")] != 24*time.Hour {
		t.Errorf("expected misses stored with TTL")
	}

	if hits := testutil.ToFloat64(counter.WithLabelValues("hit")); hits != 1 {
		t.Errorf("expected 1 hit, got %v", hits)
	}
	if misses := testutil.ToFloat64(counter.WithLabelValues("miss")); misses != 2 {
		t.Errorf("expected 2 misses, got %v", misses)
	}

	// Second pass is served entirely from the store.
	res, err = ce.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected no extra provider call, got %d", inner.batchCalls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("expected 0 tokens on full hit, got %d", res.TotalTokens)
	}
}

func TestBatchEmbed_SequentialFallback(t *testing.T) {
	inner := &plainEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}}
	ce := New(inner, newMemStore(), "m", 0, nil, zap.NewNop())

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 single calls, got %d", inner.calls)
	}
}

func TestBatchEmbed_Error(t *testing.T) {
	inner := &mockEmbedder{batchErr: domain.ErrEmbeddingProviderError}
	ce := New(inner, newMemStore(), "m", 0, nil, zap.NewNop())

	_, err := ce.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	ce := New(inner, newMemStore(), "m", 0, nil, zap.NewNop())

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Fatalf("expected empty result, got %v, %v", res, err)
	}
	if inner.batchCalls != 0 {
		t.Fatal("expected no provider call")
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := bytesToVector([]byte{0, 0, 0}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
