package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/metrics"
)

const (
	// DefaultMaxAttempts bounds embedding attempts per request.
	DefaultMaxAttempts = 5
	// DefaultRetryBase is the first backoff delay; it doubles per attempt.
	DefaultRetryBase = 500 * time.Millisecond
)

// RetryingEmbedder wraps an embedder with bounded exponential backoff on
// transient provider failures. Permanent rejections and dimension mismatches
// are returned immediately; only rate limits and provider outages are worth
// waiting out. Exhausted retries are classified domain.ErrEmbeddingUnavailable
// with the last provider error chained.
type RetryingEmbedder struct {
	inner       domain.Embedder
	maxAttempts int
	baseDelay   time.Duration
	provider    string
	model       string
	logger      *zap.Logger
}

// NewRetryingEmbedder wraps an embedder with retry. Non-positive maxAttempts
// or baseDelay fall back to the defaults.
func NewRetryingEmbedder(
	inner domain.Embedder, maxAttempts int, baseDelay time.Duration,
	provider, model string, logger *zap.Logger,
) *RetryingEmbedder {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBase
	}
	return &RetryingEmbedder{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		provider:    provider,
		model:       model,
		logger:      logger,
	}
}

var _ domain.Embedder = (*RetryingEmbedder)(nil)
var _ domain.BatchEmbedder = (*RetryingEmbedder)(nil)

// Embed delegates to the inner embedder, retrying transient failures.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult
	err := r.attempt(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = r.inner.Embed(ctx, text)
		return innerErr
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// BatchEmbed delegates to the inner embedder, retrying the whole batch on
// transient failures. The provider call is all-or-nothing, so a retry never
// duplicates vectors.
func (r *RetryingEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var result domain.BatchEmbeddingResult
	err := r.attempt(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = batchEmbed(ctx, r.inner, texts)
		return innerErr
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return result, nil
}

func (r *RetryingEmbedder) attempt(ctx context.Context, call func(ctx context.Context) error) error {
	var lastErr error
	for n := 0; n < r.maxAttempts; n++ {
		if n > 0 {
			delay := r.baseDelay << (n - 1)
			r.logger.Warn("Transient embedding failure, backing off",
				zap.String("provider", r.provider),
				zap.String("model", r.model),
				zap.Int("attempt", n+1),
				zap.Int("max_attempts", r.maxAttempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			metrics.EmbeddingRetriesTotal.WithLabelValues(r.provider, r.model).Inc()

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("embedding retry wait: %w: %w", domain.ErrEmbeddingUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, domain.ErrVectorDimMismatch) {
			// Keeps its own classification; this is a config fault, not an outage.
			return lastErr
		}
		if !domain.IsTransient(lastErr) {
			return fmt.Errorf("embedding failed: %w: %w", domain.ErrEmbeddingUnavailable, lastErr)
		}
	}
	return fmt.Errorf("embedding failed after %d attempts: %w: %w",
		r.maxAttempts, domain.ErrEmbeddingUnavailable, lastErr)
}

// batchEmbed dispatches to native batch support or the per-text fallback.
func batchEmbed(ctx context.Context, e domain.Embedder, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := e.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, e, texts)
}
