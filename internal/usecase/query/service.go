// Package query runs the per-request retrieval pipeline: validate the
// question, load the index snapshot, embed, search, synthesize. Stages fail
// with classified sentinels except synthesis, which degrades the answer
// instead of failing a request that already holds retrieval results.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/logger"
	"github.com/kailas-cloud/reposcout/internal/metrics"
)

// Pipeline stage names, used in error messages and metric labels.
const (
	StageValidating   = "validating"
	StageLoading      = "loading"
	StageEmbedding    = "embedding"
	StageSearching    = "searching"
	StageSynthesizing = "synthesizing"
)

// Params is one query request after transport decoding.
type Params struct {
	Query string
	// K is the number of records to retrieve; 0 means the configured default.
	K int
}

// Config bounds retrieval depth.
type Config struct {
	DefaultK int
	MaxK     int
}

// Service orchestrates the query pipeline.
type Service struct {
	pairs    PairProvider
	embed    Embedder
	synth    Synthesizer
	defaultK int
	maxK     int
	logger   *zap.Logger
}

// New creates a query service.
func New(pairs PairProvider, embed Embedder, synth Synthesizer, cfg Config, log *zap.Logger) *Service {
	return &Service{
		pairs:    pairs,
		embed:    embed,
		synth:    synth,
		defaultK: cfg.DefaultK,
		maxK:     cfg.MaxK,
		logger:   log,
	}
}

// Answer runs the staged pipeline for one question. A synthesis failure after
// successful retrieval returns a degraded answer and a nil error; every other
// stage failure aborts the request with its sentinel.
func (s *Service) Answer(ctx context.Context, p Params) (domain.Answer, error) {
	stop := stageTimer(StageValidating)
	q, k, err := s.validate(p)
	stop()
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("invalid").Inc()
		return domain.Answer{}, err
	}

	stop = stageTimer(StageLoading)
	pair, err := s.pairs.GetOrLoad(ctx)
	stop()
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return domain.Answer{}, fmt.Errorf("%s: %w", StageLoading, err)
	}
	metrics.IndexVectors.Set(float64(pair.Index.Count()))

	stop = stageTimer(StageEmbedding)
	embRes, err := s.embed.Embed(ctx, q)
	stop()
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return domain.Answer{}, fmt.Errorf("%s: %w", StageEmbedding, err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(embRes.TotalTokens)

	stop = stageTimer(StageSearching)
	hits, err := pair.Index.Search(embRes.Embedding, k)
	stop()
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return domain.Answer{}, fmt.Errorf("%s: %w", StageSearching, err)
	}

	retrieved := make([]domain.RetrievedRecord, len(hits))
	for i, h := range hits {
		retrieved[i] = domain.RetrievedRecord{
			Record:   pair.Records[h.Position],
			Distance: h.Distance,
		}
	}

	if len(retrieved) == 0 {
		// Empty index: nothing to ground an answer on, and nothing to degrade.
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
		return domain.Answer{Sources: []domain.RetrievedRecord{}}, nil
	}

	stop = stageTimer(StageSynthesizing)
	answer := s.synthesize(ctx, q, retrieved)
	stop()

	if answer.Degraded {
		metrics.QueriesTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
	}
	return answer, nil
}

func (s *Service) validate(p Params) (string, int, error) {
	q := strings.TrimSpace(p.Query)
	if q == "" {
		return "", 0, fmt.Errorf("%s: empty query: %w", StageValidating, domain.ErrInvalidQuery)
	}

	k := p.K
	if k == 0 {
		k = s.defaultK
	}
	if k < 0 || k > s.maxK {
		return "", 0, fmt.Errorf("%s: k must be between 1 and %d, got %d: %w",
			StageValidating, s.maxK, p.K, domain.ErrInvalidQuery)
	}
	return q, k, nil
}

// synthesize calls the LLM once, retrying a single time on a transient
// failure. Any remaining failure degrades the answer: sources survive, the
// text stays empty, and the request succeeds.
func (s *Service) synthesize(ctx context.Context, q string, retrieved []domain.RetrievedRecord) domain.Answer {
	res, err := s.synth.Synthesize(ctx, q, retrieved)
	if err != nil && domain.IsTransient(err) {
		res, err = s.synth.Synthesize(ctx, q, retrieved)
	}
	if err != nil {
		err = fmt.Errorf("%s: %w: %w", StageSynthesizing, domain.ErrSynthesisUnavailable, err)
		logger.FromContext(ctx, s.logger).Warn("Answer degraded, synthesis failed",
			zap.Int("sources", len(retrieved)),
			zap.Error(err),
		)
		return domain.Answer{Sources: retrieved, Degraded: true}
	}

	domain.UsageFromContext(ctx).AddSynthesisTokens(res.TotalTokens)
	return domain.Answer{Text: res.Text, Sources: retrieved}
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.QueryStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
