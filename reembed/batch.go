// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/cache"
)

// BatchProcessor embeds batches of items and stores the vectors in the
// embedding cache.
type BatchProcessor struct {
	embedder       ai.Embedder
	cache          *cache.EmbeddingCache
	model          string
	normalize      bool
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, c *cache.EmbeddingCache, model string, normalize bool, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		cache:          c,
		model:          model,
		normalize:      normalize,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds a batch and caches each vector under its content hash.
func (bp *BatchProcessor) Process(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(items), len(embeddings))
	}

	for i, item := range items {
		vector := embeddings[i]
		if bp.normalize {
			vector = NormalizeVector(vector)
		}
		if err := bp.cache.Set(item.ContentHash, bp.model, vector); err != nil {
			return fmt.Errorf("failed to cache vector for %s: %w", item.Name, err)
		}
	}
	return nil
}
