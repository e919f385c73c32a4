package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or malformed query. Never retried.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexUnavailable signals that the index pair could not be fetched or
	// failed an invariant check.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrEmbeddingUnavailable signals an embedding failure after exhausted retries.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrSynthesisUnavailable signals an LLM synthesis failure after retry.
	// Callers holding retrieval results degrade instead of failing.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch between a query
	// or build embedding and the index. Always fatal, never padded over.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit at an upstream provider. Transient.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderUnavailable signals a transient upstream provider failure
	// (5xx, network error, timeout).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderRequest signals a permanent upstream rejection (bad model,
	// bad request). Retrying cannot help.
	ErrProviderRequest = errors.New("provider rejected request")
)

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}
