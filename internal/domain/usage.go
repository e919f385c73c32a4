package domain

import "context"

type requestUsageKey struct{}

// RequestUsage collects provider token usage for a single request. The
// handler puts a mutable pointer into the context before calling the service;
// stages add as they spend; the handler reads it for response headers.
type RequestUsage struct {
	EmbeddingTokens int
	SynthesisTokens int
	Used            bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *RequestUsage) {
	u := &RequestUsage{}
	return context.WithValue(ctx, requestUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *RequestUsage {
	u, _ := ctx.Value(requestUsageKey{}).(*RequestUsage)
	return u
}

// AddEmbeddingTokens records tokens spent on query embedding.
func (u *RequestUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
		u.Used = true
	}
}

// AddSynthesisTokens records tokens spent on answer synthesis.
func (u *RequestUsage) AddSynthesisTokens(n int) {
	if u != nil {
		u.SynthesisTokens += n
		u.Used = true
	}
}
