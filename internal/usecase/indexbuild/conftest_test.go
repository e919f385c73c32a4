package indexbuild

import (
	"context"
	"fmt"
	"hash/fnv"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

const testDims = 4

// testVec derives a vector from the text alone, so order checks survive a
// resume across separate embedder instances.
func testVec(text string, dims int) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	bits := h.Sum32()

	v := make([]float32, dims)
	for i := range v {
		v[i] = float32((bits >> (uint(i) * 4)) & 0xff)
	}
	return v
}

// stubEmbedder returns testVec per input and can fail selected calls.
type stubEmbedder struct {
	dims   int
	failOn map[int]error // 1-based call numbers that fail
	calls  int
	inputs [][]string
}

func (e *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.calls++
	e.inputs = append(e.inputs, texts)
	if err := e.failOn[e.calls]; err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	res := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		res.Embeddings[i] = testVec(t, e.dims)
		res.PromptTokens += len(t)
		res.TotalTokens += len(t)
	}
	return res, nil
}

func buildRecords(t *testing.T, n int) []domain.Record {
	t.Helper()
	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{
			ID:          fmt.Sprintf("repo_%d", i),
			Name:        fmt.Sprintf("sample-project-%d", i),
			Org:         "aws-samples",
			Description: fmt.Sprintf("reference implementation number %d", i),
		}
	}
	return records
}

func newBuilder(t *testing.T, embed Embedder, cp *Checkpoint, batchSize int) *Service {
	t.Helper()
	cfg := Config{
		Org:        "aws-samples",
		Model:      "text-embedding-3-small",
		Dimensions: testDims,
		BatchSize:  batchSize,
	}
	return New(embed, cp, cfg, zap.NewNop())
}
