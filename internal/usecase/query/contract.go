package query

import (
	"context"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/repository/artifact"
)

// PairProvider yields the loaded index/metadata snapshot.
type PairProvider interface {
	GetOrLoad(ctx context.Context) (*artifact.Pair, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Synthesizer generates the grounded answer from retrieved records.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, records []domain.RetrievedRecord) (domain.SynthesisResult, error)
}
