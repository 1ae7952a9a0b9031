package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrHistoryRequired is returned when no history source is given.
	ErrHistoryRequired = errors.New("history source required")

	// ErrExtractionsRequired is returned when no extraction source is given.
	ErrExtractionsRequired = errors.New("extraction source required")

	// ErrEmbeddingCacheRequired is returned when no embedding cache is given.
	ErrEmbeddingCacheRequired = errors.New("embedding cache required")

	// ErrEmbedderRequired is returned when no embedder is given.
	ErrEmbedderRequired = errors.New("embedder required")
)
