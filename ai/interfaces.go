package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TableExtractor recovers tabular data from free text with a language model.
// Implementations must be thread-safe for concurrent use.
type TableExtractor interface {
	// ExtractTable returns the table found in text.
	// Returns an empty table if none is found.
	ExtractTable(ctx context.Context, text string) (*ExtractedTable, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// TableExtractor returns the table extraction service.
	TableExtractor() TableExtractor

	// EmbeddingModel returns the identity of the embedding model, used to
	// key cached vectors.
	EmbeddingModel() string

	// Close releases resources held by the provider and its services.
	Close() error
}
