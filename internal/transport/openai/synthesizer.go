package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	"github.com/kailas-cloud/reposcout/internal/metrics"
)

// maxPromptRecords caps how many retrieved records go into the prompt.
// Retrieval may return more; the extra ones are still reported as sources.
const maxPromptRecords = 3

// Synthesizer generates answers with the OpenAI-compatible chat API.
type Synthesizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	provider    string
	timeout     time.Duration
	logger      *zap.Logger
}

// SynthesizerConfig holds the chat provider settings.
type SynthesizerConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Provider    string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewSynthesizer creates an OpenAI-compatible answer synthesizer.
func NewSynthesizer(cfg *SynthesizerConfig) *Synthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Synthesizer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		provider:    provider,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

var _ domain.Synthesizer = (*Synthesizer)(nil)

// Synthesize implements domain.Synthesizer. The prompt embeds the retrieved
// records verbatim and instructs the model to answer from them alone.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, records []domain.RetrievedRecord,
) (domain.SynthesisResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(query, records)},
		},
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.SynthesisRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return domain.SynthesisResult{}, parseAPIError("synthesis", err)
	}

	if len(resp.Choices) == 0 {
		metrics.SynthesisRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return domain.SynthesisResult{}, fmt.Errorf("empty synthesis response: %w", domain.ErrProviderUnavailable)
	}

	metrics.SynthesisRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	metrics.SynthesisRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())

	usage := resp.Usage
	if usage.TotalTokens > 0 {
		metrics.SynthesisTokensTotal.WithLabelValues(s.provider, s.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.SynthesisTokensTotal.WithLabelValues(s.provider, s.model, "completion").Add(float64(usage.CompletionTokens))
		metrics.SynthesisTokensTotal.WithLabelValues(s.provider, s.model, "total").Add(float64(usage.TotalTokens))
	}

	s.logger.Debug("Synthesis completed",
		zap.String("provider", s.provider),
		zap.String("model", s.model),
		zap.Duration("duration", duration),
		zap.Int("context_records", min(len(records), maxPromptRecords)),
		zap.Int("total_tokens", usage.TotalTokens),
	)

	return domain.SynthesisResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}, nil
}

// buildPrompt renders the grounded question prompt. The record block mirrors
// the field set users see in sources, so the model can cite what the API
// returns.
func buildPrompt(query string, records []domain.RetrievedRecord) string {
	limit := len(records)
	if limit > maxPromptRecords {
		limit = maxPromptRecords
	}

	blocks := make([]string, 0, limit)
	for _, rec := range records[:limit] {
		r := rec.Record
		blocks = append(blocks, strings.Join([]string{
			"Repository: " + r.Name,
			"Description: " + r.Description,
			"Solution Type: " + r.SolutionType,
			"Competency: " + r.Competency,
			"AWS Services: " + strings.Join(r.AWSServices, ", "),
			"Primary Language: " + r.PrimaryLanguage,
		}, "\n"))
	}

	var b strings.Builder
	b.WriteString("You are an AWS solutions expert. Based on the following AWS sample repositories, answer the user's question.\n\n")
	b.WriteString("Retrieved Repositories:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(query)
	b.WriteString("\n\nProvide a helpful answer based ONLY on the repositories above. Include repository names and relevant details.")
	return b.String()
}
