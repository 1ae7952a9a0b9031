package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/reembed"
)

// embeddingProcessor manages the embedding cache boundary. Without an
// embedder it only looks vectors up; with one it embeds misses and stores
// them normalized, the same way reembed does.
type embeddingProcessor struct {
	cache         *cache.EmbeddingCache
	embedder      ai.Embedder
	model         string
	maxInputChars int
	logger        *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(c *cache.EmbeddingCache, embedder ai.Embedder, model string, maxInputChars int, logger *slog.Logger) (*embeddingProcessor, error) {
	if c == nil {
		return nil, fmt.Errorf("embedding cache required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		cache:         c,
		embedder:      embedder,
		model:         model,
		maxInputChars: maxInputChars,
		logger:        logger.With("processor", "embeddings"),
	}, nil
}

func (ep *embeddingProcessor) process(ctx context.Context, it *item) error {
	hash := it.doc.ContentHash
	if ep.embedder == nil {
		if vector, ok := ep.cache.Get(hash, ep.model); ok {
			it.doc.Vector = vector
			it.doc.EmbeddingCacheHit = true
		}
		return nil
	}

	text := reembed.EmbeddingInput(it.doc.Result.Content(), ep.maxInputChars)
	if text == "" {
		ep.logger.Debug("nothing to embed", "name", it.doc.Name)
		return nil
	}

	vector, hit, err := ep.cache.GetOrCompute(hash, ep.model, func() ([]float32, error) {
		ep.logger.Debug("generating embedding", "name", it.doc.Name, "chars", len(text))
		vector, err := ep.embedder.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		return reembed.NormalizeVector(vector), nil
	})
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	it.doc.Vector = vector
	it.doc.EmbeddingCacheHit = hit
	return nil
}
