package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
}

func TestInstrumentedEmbedder_WithUsage(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 100,
		TotalTokens:  100,
	}}
	p := NewInstrumentedEmbedder(inner, "test-usage", "test-model-u", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalTokens != 100 {
		t.Fatalf("expected 100 total tokens, got %d", result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	innerErr := errors.New("api error")
	inner := &mockEmbedder{err: innerErr}
	p := NewInstrumentedEmbedder(inner, "test-err", "test-model-e", zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected inner error preserved, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmpty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embeddings != nil {
		t.Errorf("expected nil embeddings, got %v", result.Embeddings)
	}
	if inner.batchCalls != 0 {
		t.Errorf("expected no inner calls for empty input, got %d", inner.batchCalls)
	}
}

func TestInstrumentedEmbedder_BatchChunking(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2},
		TotalTokens: 1,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	for i := range texts {
		texts[i] = "text"
	}

	result, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	if inner.batchCalls != 2 {
		t.Errorf("expected 2 API chunks, got %d", inner.batchCalls)
	}
	if result.TotalTokens != len(texts) {
		t.Errorf("expected aggregated tokens %d, got %d", len(texts), result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BatchFallbackForSingleEmbedder(t *testing.T) {
	inner := &singleOnlyEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(result.Embeddings))
	}
	if inner.embedCalls != 3 {
		t.Errorf("expected 3 single-embed calls, got %d", inner.embedCalls)
	}
}
