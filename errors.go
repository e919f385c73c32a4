package reposcout

import "github.com/kailas-cloud/reposcout/internal/domain"

// Sentinel errors a Query call can return, re-exported for errors.Is checks.
var (
	// ErrInvalidQuery signals an empty or out-of-range request. Never retried.
	ErrInvalidQuery = domain.ErrInvalidQuery
	// ErrIndexUnavailable signals that the index pair could not be loaded.
	ErrIndexUnavailable = domain.ErrIndexUnavailable
	// ErrEmbeddingUnavailable signals an embedding failure after exhausted retries.
	ErrEmbeddingUnavailable = domain.ErrEmbeddingUnavailable
)
