package indexbuild

import (
	"context"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// Embedder vectorizes record texts in batches. The build relies on the
// contract that output order matches input order.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
