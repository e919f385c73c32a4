// Package indexbuild runs the offline pipeline that turns canonical records
// into a publishable index pair: render the embed text per record, embed in
// batches, append vectors strictly in record order, stamp a fresh build ID.
// A checkpoint makes the expensive embedding phase resumable.
package indexbuild

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/index"
	"github.com/kailas-cloud/reposcout/internal/repository/artifact"
)

// DefaultBatchSize is the number of records embedded per remote batch when
// the config does not say otherwise.
const DefaultBatchSize = 100

// Config carries the build parameters.
type Config struct {
	Org        string
	Model      string
	Dimensions int
	BatchSize  int
}

// Result is one completed build.
type Result struct {
	Index    *index.Flat
	Manifest artifact.Manifest
	Embedded int // vectors embedded by this run, excludes checkpoint-restored ones
	Tokens   int // embedding tokens spent by this run
}

// Service builds the index pair from a normalized record sequence.
type Service struct {
	embed      Embedder
	checkpoint *Checkpoint
	cfg        Config
	logger     *zap.Logger
}

// New creates a build service. A nil checkpoint means every build starts
// from scratch.
func New(embed Embedder, checkpoint *Checkpoint, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Service{embed: embed, checkpoint: checkpoint, cfg: cfg, logger: logger}
}

// Build embeds every record and assembles the index. Index position i always
// belongs to records[i]; that alignment is what the metadata table relies on
// at query time, so any vector that cannot keep it fails the whole build.
func (s *Service) Build(ctx context.Context, records []domain.Record) (*Result, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to index")
	}
	dims := s.cfg.Dimensions
	if dims <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}

	slab := make([]float32, 0, len(records)*dims)
	start := 0
	if s.checkpoint != nil {
		restored, processed, err := s.checkpoint.Load(len(records))
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if processed > 0 {
			slab = append(slab, restored...)
			start = processed
			s.logger.Info("Resuming build from checkpoint",
				zap.Int("processed", processed),
				zap.Int("total", len(records)))
		}
	}

	var tokens int
	for lo := start; lo < len(records); lo += s.cfg.BatchSize {
		hi := min(lo+s.cfg.BatchSize, len(records))

		texts := make([]string, 0, hi-lo)
		for _, rec := range records[lo:hi] {
			texts = append(texts, rec.EmbedText())
		}

		res, err := s.embed.BatchEmbed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed records %d..%d: %w", lo, hi-1, err)
		}
		for i, vec := range res.Embeddings {
			if len(vec) != dims {
				return nil, fmt.Errorf("record %d: vector dim %d != %d: %w",
					lo+i, len(vec), dims, domain.ErrVectorDimMismatch)
			}
			slab = append(slab, vec...)
		}
		tokens += res.TotalTokens

		if s.checkpoint != nil {
			if err := s.checkpoint.Save(slab, hi, len(records)); err != nil {
				return nil, fmt.Errorf("save checkpoint: %w", err)
			}
		}
		s.logger.Info("Embedded batch",
			zap.Int("from", lo),
			zap.Int("to", hi),
			zap.Int("total", len(records)),
			zap.Int("tokens", res.TotalTokens))
	}

	idx, err := index.NewFlat(dims)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	for i := range records {
		if err := idx.Append(slab[i*dims : (i+1)*dims]); err != nil {
			return nil, fmt.Errorf("append vector %d: %w", i, err)
		}
	}

	m := artifact.Manifest{
		BuildID:    uuid.New(),
		Org:        s.cfg.Org,
		Model:      s.cfg.Model,
		Dimensions: dims,
		BuiltAt:    time.Now().UTC(),
	}

	if s.checkpoint != nil {
		if err := s.checkpoint.Remove(); err != nil {
			s.logger.Warn("Checkpoint cleanup failed", zap.Error(err))
		}
	}

	s.logger.Info("Build complete",
		zap.String("build_id", m.BuildID.String()),
		zap.Int("vectors", idx.Count()),
		zap.Int("embedded", len(records)-start),
		zap.Int("tokens", tokens))

	return &Result{
		Index:    idx,
		Manifest: m,
		Embedded: len(records) - start,
		Tokens:   tokens,
	}, nil
}
