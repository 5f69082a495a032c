package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchResult BatchEmbeddingResult
	batchErr    error
	batchTexts  []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchTexts = texts
	return s.batchResult, s.batchErr
}

func TestQueryText(t *testing.T) {
	tests := []struct {
		question, topic, want string
	}{
		{"What drives success?", "", "What drives success?"},
		{"What drives success?", "Business", "Business What drives success?"},
		{"What drives success?", "   ", "What drives success?"},
	}
	for _, tc := range tests {
		if got := QueryText(tc.question, tc.topic); got != tc.want {
			t.Errorf("QueryText(%q, %q) = %q, want %q", tc.question, tc.topic, got, tc.want)
		}
	}
}

func TestPrefixEmbedder_PrependsMarker(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewPrefixEmbedder(inner, DefaultQueryPrefix)

	res, err := emb.Embed(context.Background(), "Business What drives success?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "query: Business What drives success?" {
		t.Errorf("expected prefixed text, got %q", inner.got[0])
	}
	if len(res.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(res.Embedding))
	}
}

func TestPrefixEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewPrefixEmbedder(&stubEmbedder{err: innerErr}, DefaultPassagePrefix)

	_, err := emb.Embed(context.Background(), "Team")
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestPrefixEmbedder_BatchUsesNativeBatch(t *testing.T) {
	inner := &stubBatchEmbedder{batchResult: BatchEmbeddingResult{
		Embeddings:  [][]float32{{1}, {2}},
		TotalTokens: 8,
	}}
	emb := NewPrefixEmbedder(inner, DefaultPassagePrefix)

	res, err := emb.BatchEmbed(context.Background(), []string{"Team", "Market"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchTexts) != 2 || inner.batchTexts[0] != "passage: Team" || inner.batchTexts[1] != "passage: Market" {
		t.Errorf("unexpected batch texts: %v", inner.batchTexts)
	}
	if len(inner.got) != 0 {
		t.Errorf("single Embed should not be called, got %d calls", len(inner.got))
	}
	if res.TotalTokens != 8 {
		t.Errorf("expected TotalTokens=8, got %d", res.TotalTokens)
	}
}

func TestPrefixEmbedder_BatchFallsBackToSequential(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}, PromptTokens: 2, TotalTokens: 3}}
	emb := NewPrefixEmbedder(inner, DefaultPassagePrefix)

	res, err := emb.BatchEmbed(context.Background(), []string{"Team", "Finance", "Market"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if inner.got[2] != "passage: Market" {
		t.Errorf("expected prefixed fallback text, got %q", inner.got[2])
	}
	if res.PromptTokens != 6 || res.TotalTokens != 9 {
		t.Errorf("unexpected usage: prompt=%d total=%d", res.PromptTokens, res.TotalTokens)
	}
}

func TestSequentialBatch_StopsOnError(t *testing.T) {
	inner := &stubEmbedder{err: errors.New("boom")}

	_, err := SequentialBatch(context.Background(), inner, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(inner.got) != 1 {
		t.Errorf("expected to stop after first failure, got %d calls", len(inner.got))
	}
}

func TestPrefixEmbedder_HealthCheckWithoutSupport(t *testing.T) {
	emb := NewPrefixEmbedder(&stubEmbedder{}, "")
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for inner without health check, got %v", err)
	}
}

func TestEmbeddingUsage_Record(t *testing.T) {
	ctx, u := ContextWithUsage(context.Background())
	UsageFromContext(ctx).Record(3, 42)
	UsageFromContext(ctx).Record(1, 8)

	if u.Texts != 4 || u.TotalTokens != 50 {
		t.Errorf("unexpected usage: %+v", *u)
	}

	var nilUsage *EmbeddingUsage
	nilUsage.Record(1, 1) // must not panic
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil usage for bare context")
	}
}
