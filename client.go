// Package reposcout answers natural-language questions over a published
// repository index in-process, wiring the same retrieval pipeline the API
// server runs: load the artifact pair, embed the question, search, synthesize.
package reposcout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/blob"
	blobFS "github.com/kailas-cloud/reposcout/internal/blob/fs"
	blobValkey "github.com/kailas-cloud/reposcout/internal/blob/valkey"
	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/repository/artifact"
	openaiTransport "github.com/kailas-cloud/reposcout/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/reposcout/internal/usecase/embedding"
	queryuc "github.com/kailas-cloud/reposcout/internal/usecase/query"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the reposcout SDK entry point.
type Client struct {
	store blob.Store
	query *queryuc.Service
}

// New creates a reposcout Client and connects to artifact storage.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		bucket:         "reposcout",
		indexKey:       "index.bin",
		metadataKey:    "metadata.json",
		embeddingModel: domain.DefaultEmbeddingModel,
		dimensions:     domain.DefaultDimensions,
		defaultK:       5,
		maxK:           50,
		logger:         zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("reposcout: storage required (use WithValkey, WithRedis or WithFS)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("reposcout: storage not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (blob.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := blobValkey.NewStore(blobValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("reposcout: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "fs":
		s, err := blobFS.NewStore(cfg.root)
		if err != nil {
			return nil, fmt.Errorf("reposcout: create fs store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("reposcout: unknown driver %q", cfg.driver)
	}
}

func wireClient(store blob.Store, cfg *clientConfig) *Client {
	var emb domain.Embedder
	switch {
	case cfg.embedder != nil:
		emb = &embedderAdapter{inner: cfg.embedder}
	case cfg.embeddingAPIKey != "" || cfg.embeddingBaseURL != "":
		base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.embeddingAPIKey,
			BaseURL:    cfg.embeddingBaseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.dimensions,
			Logger:     cfg.logger,
		})
		emb = embeddinguc.NewRetryingEmbedder(
			base, cfg.maxRetries, cfg.retryBase, "openai", cfg.embeddingModel, cfg.logger,
		)
	default:
		emb = &noopEmbedder{}
	}

	var synth queryuc.Synthesizer
	switch {
	case cfg.synthesizer != nil:
		synth = &synthesizerAdapter{inner: cfg.synthesizer}
	case cfg.llmAPIKey != "" || cfg.llmBaseURL != "":
		synth = openaiTransport.NewSynthesizer(&openaiTransport.SynthesizerConfig{
			APIKey:      cfg.llmAPIKey,
			BaseURL:     cfg.llmBaseURL,
			Model:       cfg.llmModel,
			MaxTokens:   cfg.maxTokens,
			Temperature: cfg.temperature,
			Logger:      cfg.logger,
		})
	default:
		// No answer model: every answer degrades to sources only.
		synth = &noopSynthesizer{}
	}

	pairs := artifact.NewCache(artifact.NewRepository(store, artifact.Location{
		Bucket:      cfg.bucket,
		IndexKey:    cfg.indexKey,
		MetadataKey: cfg.metadataKey,
	}))

	querySvc := queryuc.New(pairs, emb, synth, queryuc.Config{
		DefaultK: cfg.defaultK,
		MaxK:     cfg.maxK,
	}, cfg.logger)

	return &Client{store: store, query: querySvc}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Query answers one question over the published index. k is the number of
// sources to retrieve; 0 uses the configured default.
func (c *Client) Query(ctx context.Context, question string, k int) (Answer, error) {
	a, err := c.query.Answer(ctx, queryuc.Params{Query: question, K: k})
	if err != nil {
		return Answer{}, fmt.Errorf("query: %w", err)
	}
	return answerFromDomain(a), nil
}

// noopEmbedder fails every call; used when no embedding provider is configured.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"reposcout: embedder not configured (use WithOpenAIEmbedding or WithEmbedder)",
	)
}

// noopSynthesizer fails every call, which the pipeline turns into a degraded
// sources-only answer.
type noopSynthesizer struct{}

func (noopSynthesizer) Synthesize(
	_ context.Context, _ string, _ []domain.RetrievedRecord,
) (domain.SynthesisResult, error) {
	return domain.SynthesisResult{}, errors.New(
		"reposcout: synthesizer not configured (use WithOpenAISynthesis or WithSynthesizer)",
	)
}
