package ai

import "errors"

var (
	// ErrEmptyEmbedding indicates the service returned no vector.
	ErrEmptyEmbedding = errors.New("empty embedding")

	// ErrEmbeddingCount indicates the service returned a different number
	// of vectors than texts sent.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
