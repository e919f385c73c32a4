package reposcout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	blobFS "github.com/kailas-cloud/reposcout/internal/blob/fs"
	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/index"
	"github.com/kailas-cloud/reposcout/internal/repository/artifact"
)

func TestNew_NoStorage(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("expected error when no storage configured")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}}
	_, err := createStore(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNoopEmbedder(t *testing.T) {
	noop := &noopEmbedder{}
	_, err := noop.Embed(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error from noopEmbedder")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379", "secret")(cfg)
	if cfg.driver != "valkey" {
		t.Errorf("driver = %q, want valkey", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	cfg2 := &clientConfig{}
	WithRedis("localhost:6380", "pass")(cfg2)
	if cfg2.driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg2.driver)
	}

	cfg3 := &clientConfig{}
	WithFS("/var/lib/reposcout")(cfg3)
	if cfg3.driver != "fs" || cfg3.root != "/var/lib/reposcout" {
		t.Errorf("fs config = (%q, %q)", cfg3.driver, cfg3.root)
	}

	WithLocation("corpus", "idx.bin", "meta.json")(cfg3)
	if cfg3.bucket != "corpus" || cfg3.indexKey != "idx.bin" || cfg3.metadataKey != "meta.json" {
		t.Errorf("location = (%q, %q, %q)", cfg3.bucket, cfg3.indexKey, cfg3.metadataKey)
	}

	WithSearchLimits(3, 20)(cfg3)
	if cfg3.defaultK != 3 || cfg3.maxK != 20 {
		t.Errorf("search limits = (%d, %d), want (3, 20)", cfg3.defaultK, cfg3.maxK)
	}

	WithRetry(2, 100*time.Millisecond)(cfg3)
	if cfg3.maxRetries != 2 || cfg3.retryBase != 100*time.Millisecond {
		t.Errorf("retry = (%d, %v)", cfg3.maxRetries, cfg3.retryBase)
	}

	WithOpenAIEmbedding("http://localhost:8081/v1", "key", "my-model", 256)(cfg3)
	if cfg3.embeddingModel != "my-model" || cfg3.dimensions != 256 {
		t.Errorf("embedding = (%q, %d)", cfg3.embeddingModel, cfg3.dimensions)
	}

	WithOpenAISynthesis("http://localhost:8082/v1", "key", "chat-model")(cfg3)
	if cfg3.llmModel != "chat-model" {
		t.Errorf("llm model = %q", cfg3.llmModel)
	}
}

func TestWithOpenAIEmbedding_ZeroKeepsDefaults(t *testing.T) {
	cfg := &clientConfig{embeddingModel: "default-model", dimensions: 1024}
	WithOpenAIEmbedding("http://localhost:8081/v1", "key", "", 0)(cfg)
	if cfg.embeddingModel != "default-model" {
		t.Errorf("model = %q, want default kept", cfg.embeddingModel)
	}
	if cfg.dimensions != 1024 {
		t.Errorf("dimensions = %d, want default kept", cfg.dimensions)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close()
}

func TestWithEmbedder(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, nil
		},
	}
	cfg := &clientConfig{}
	WithEmbedder(mock)(cfg)
	if cfg.embedder == nil {
		t.Error("expected non-nil embedder")
	}
}

// publishTestPair builds and publishes a 3-record pair into an fs store root.
func publishTestPair(t *testing.T, root string) {
	t.Helper()

	store, err := blobFS.NewStore(root)
	if err != nil {
		t.Fatalf("create fs store: %v", err)
	}
	defer store.Close()

	idx, err := index.NewFlat(2)
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	for _, v := range [][]float32{{0, 0}, {1, 0}, {5, 5}} {
		if err := idx.Append(v); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	records := []domain.Record{
		{ID: "r0", Name: "zero-zero", Org: "aws-samples", Description: "first", Stars: 42},
		{ID: "r1", Name: "one-zero", Org: "aws-samples", Description: "second"},
		{ID: "r2", Name: "five-five", Org: "aws-samples", Description: "third"},
	}
	m := artifact.Manifest{
		BuildID:    uuid.New(),
		Org:        "aws-samples",
		Model:      "test-model",
		Dimensions: 2,
		BuiltAt:    time.Now().UTC(),
	}

	repo := artifact.NewRepository(store, artifact.Location{
		Bucket: "reposcout", IndexKey: "index.bin", MetadataKey: "metadata.json",
	})
	if err := repo.Publish(context.Background(), idx, records, m); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestClient_Query_InProcess(t *testing.T) {
	root := t.TempDir()
	publishTestPair(t, root)

	embedder := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{0, 0}, TotalTokens: 3}, nil
		},
	}
	synth := &mockSynthesizer{
		fn: func(_ context.Context, query string, sources []Source) (SynthesisResult, error) {
			if len(sources) == 0 {
				t.Errorf("synthesizer got no sources for %q", query)
			}
			return SynthesisResult{Text: "Try " + sources[0].Repository + ".", TotalTokens: 9}, nil
		},
	}

	client, err := New(
		WithFS(root),
		WithEmbedder(embedder),
		WithSynthesizer(synth),
		WithSearchLimits(2, 10),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	answer, err := client.Query(context.Background(), "realtime chat sample", 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if answer.Text != "Try zero-zero." {
		t.Errorf("answer = %q", answer.Text)
	}
	if answer.Degraded {
		t.Error("expected non-degraded answer")
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(answer.Sources))
	}
	if answer.Sources[0].Repository != "zero-zero" || answer.Sources[1].Repository != "one-zero" {
		t.Errorf("source order: %q, %q", answer.Sources[0].Repository, answer.Sources[1].Repository)
	}
	if answer.Sources[0].Score != 1 {
		t.Errorf("top score = %v, want 1", answer.Sources[0].Score)
	}
	if answer.Sources[0].Stars != 42 {
		t.Errorf("stars = %d, want 42", answer.Sources[0].Stars)
	}
}

func TestClient_Query_DegradedWithoutSynthesizer(t *testing.T) {
	root := t.TempDir()
	publishTestPair(t, root)

	embedder := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{0, 0}}, nil
		},
	}

	client, err := New(WithFS(root), WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	answer, err := client.Query(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !answer.Degraded {
		t.Error("expected degraded answer without a synthesizer")
	}
	if answer.Text != "" {
		t.Errorf("degraded text = %q, want empty", answer.Text)
	}
	if len(answer.Sources) == 0 {
		t.Error("expected sources in degraded answer")
	}
}

func TestClient_Query_EmptyQuestion(t *testing.T) {
	root := t.TempDir()
	publishTestPair(t, root)

	client, err := New(WithFS(root), WithEmbedder(&mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{0, 0}}, nil
		},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	_, err = client.Query(context.Background(), "   ", 0)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestClient_Query_NoArtifactPublished(t *testing.T) {
	client, err := New(WithFS(t.TempDir()), WithEmbedder(&mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{0, 0}}, nil
		},
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	_, err = client.Query(context.Background(), "anything", 0)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockSynthesizer struct {
	fn func(ctx context.Context, query string, sources []Source) (SynthesisResult, error)
}

func (m *mockSynthesizer) Synthesize(
	ctx context.Context, query string, sources []Source,
) (SynthesisResult, error) {
	return m.fn(ctx, query, sources)
}
