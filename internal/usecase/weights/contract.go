package weights

import (
	"context"

	"github.com/kailas-cloud/critweight/internal/domain"
)

// QueryEmbedder vectorizes the question text.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// PassageEmbedder vectorizes all criteria in one call.
type PassageEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
