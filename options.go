package reposcout

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "valkey", "redis" or "fs"
	addrs    []string
	password string
	root     string

	bucket      string
	indexKey    string
	metadataKey string

	embedder    Embedder
	synthesizer Synthesizer

	embeddingBaseURL string
	embeddingAPIKey  string
	embeddingModel   string
	dimensions       int
	maxRetries       int
	retryBase        time.Duration

	llmBaseURL  string
	llmAPIKey   string
	llmModel    string
	maxTokens   int
	temperature float32

	defaultK int
	maxK     int

	logger *zap.Logger
}

// WithValkey reads the artifact pair from a Valkey instance.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedis reads the artifact pair from a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithFS reads the artifact pair from a local directory.
func WithFS(root string) Option {
	return func(c *clientConfig) {
		c.driver = "fs"
		c.root = root
	}
}

// WithLocation overrides where the artifact pair lives in storage.
// Defaults: bucket "reposcout", keys "index.bin" and "metadata.json".
func WithLocation(bucket, indexKey, metadataKey string) Option {
	return func(c *clientConfig) {
		c.bucket = bucket
		c.indexKey = indexKey
		c.metadataKey = metadataKey
	}
}

// WithOpenAIEmbedding configures an OpenAI-compatible embedding provider.
// Pass dimensions 0 to keep the default the index was built with.
func WithOpenAIEmbedding(baseURL, apiKey, model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.embeddingBaseURL = baseURL
		c.embeddingAPIKey = apiKey
		if model != "" {
			c.embeddingModel = model
		}
		if dimensions > 0 {
			c.dimensions = dimensions
		}
	}
}

// WithOpenAISynthesis configures an OpenAI-compatible chat model for answer
// synthesis. Without one, answers degrade to sources only.
func WithOpenAISynthesis(baseURL, apiKey, model string) Option {
	return func(c *clientConfig) {
		c.llmBaseURL = baseURL
		c.llmAPIKey = apiKey
		c.llmModel = model
	}
}

// WithEmbedder plugs a custom embedding provider. Takes precedence over
// WithOpenAIEmbedding.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithSynthesizer plugs a custom answer synthesizer. Takes precedence over
// WithOpenAISynthesis.
func WithSynthesizer(s Synthesizer) Option {
	return func(c *clientConfig) {
		c.synthesizer = s
	}
}

// WithSearchLimits sets the default and maximum number of retrieved sources.
// Defaults: 5 and 50.
func WithSearchLimits(defaultK, maxK int) Option {
	return func(c *clientConfig) {
		c.defaultK = defaultK
		c.maxK = maxK
	}
}

// WithRetry bounds embedding retry attempts and the first backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxAttempts
		c.retryBase = baseDelay
	}
}

// WithMaxTokens caps the synthesized answer length.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) {
		c.maxTokens = n
	}
}

// WithLogger enables structured logging for client operations.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
