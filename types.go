package reposcout

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// Embedder vectorizes query text. Implement it to plug a custom provider.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Synthesizer generates the answer text from retrieved sources. Implement it
// to plug a custom answer model.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, sources []Source) (SynthesisResult, error)
}

// SynthesisResult carries the answer text and provider token usage.
type SynthesisResult struct {
	Text        string
	TotalTokens int
}

// Source is one retrieved repository with its retrieval geometry.
type Source struct {
	ID                string
	Repository        string
	Org               string
	Description       string
	URL               string
	SolutionType      string
	Competency        string
	CustomerProblems  string
	SolutionMarketing string
	PrimaryLanguage   string
	SecondaryLanguage string
	AWSServices       []string
	DeploymentTools   []string
	CostRange         string
	SetupTime         string
	USP               string
	FreshnessStatus   string
	Stars             int
	Topics            []string

	// Distance is the L2 distance to the query; Score is 1/(1+Distance).
	Distance float64
	Score    float64
}

// Answer is one answered question. Degraded means retrieval succeeded but
// synthesis did not; Sources are still populated.
type Answer struct {
	Text     string
	Sources  []Source
	Degraded bool
}

func sourceFromDomain(r domain.RetrievedRecord) Source {
	return Source{
		ID:                r.Record.ID,
		Repository:        r.Record.Name,
		Org:               r.Record.Org,
		Description:       r.Record.Description,
		URL:               r.Record.URL,
		SolutionType:      r.Record.SolutionType,
		Competency:        r.Record.Competency,
		CustomerProblems:  r.Record.CustomerProblems,
		SolutionMarketing: r.Record.SolutionMarketing,
		PrimaryLanguage:   r.Record.PrimaryLanguage,
		SecondaryLanguage: r.Record.SecondaryLanguage,
		AWSServices:       r.Record.AWSServices,
		DeploymentTools:   r.Record.DeploymentTools,
		CostRange:         r.Record.CostRange,
		SetupTime:         r.Record.SetupTime,
		USP:               r.Record.USP,
		FreshnessStatus:   r.Record.FreshnessStatus,
		Stars:             r.Record.Stars,
		Topics:            r.Record.Topics,
		Distance:          r.Distance,
		Score:             r.Score(),
	}
}

func answerFromDomain(a domain.Answer) Answer {
	sources := make([]Source, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = sourceFromDomain(s)
	}
	return Answer{Text: a.Text, Sources: sources, Degraded: a.Degraded}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// synthesizerAdapter wraps the public Synthesizer to satisfy the internal
// synthesis contract.
type synthesizerAdapter struct {
	inner Synthesizer
}

func (a *synthesizerAdapter) Synthesize(
	ctx context.Context, query string, records []domain.RetrievedRecord,
) (domain.SynthesisResult, error) {
	sources := make([]Source, len(records))
	for i, r := range records {
		sources[i] = sourceFromDomain(r)
	}

	res, err := a.inner.Synthesize(ctx, query, sources)
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("synthesize: %w", err)
	}
	return domain.SynthesisResult{Text: res.Text, TotalTokens: res.TotalTokens}, nil
}
