package domain

// Embedding defaults shared by the server config, the indexer and the SDK.
// The published artifact records the model and dimensions it was actually
// built with; these are only what a fresh deployment starts from.
const (
	DefaultEmbeddingModel = "text-embedding-3-large"
	DefaultDimensions     = 1024
)
