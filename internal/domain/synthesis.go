package domain

import "context"

// Synthesizer generates a grounded natural-language answer from retrieved
// records. Implementations must answer from the supplied records only, never
// from model world knowledge.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, records []RetrievedRecord) (SynthesisResult, error)
}

// SynthesisResult carries the generated answer text and token usage.
type SynthesisResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
