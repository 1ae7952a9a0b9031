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
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/core"
)

// History lists the content seen so far. *dedup.Deduplicator satisfies it.
type History interface {
	Records() []*core.ContentRecord
}

// Extractions returns the cached extraction of a content hash.
type Extractions func(contentHash string) (*core.ExtractionResult, bool)

// Config holds configuration for the warm-up.
type Config struct {
	// Model keys the cached vectors.
	Model string

	// BatchSize is the number of documents per embedding call
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MaxInputChars truncates embedding input. Zero means no limit.
	MaxInputChars int

	// Force re-embeds documents that already have a cached vector.
	Force bool

	// Normalize scales vectors to unit length before caching.
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(model string) *Config {
	return &Config{
		Model:          model,
		BatchSize:      DefaultBatchSize,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Normalize:      true,
	}
}

// Summary reports what a run did.
type Summary struct {
	Total             int
	Embedded          int
	AlreadyCached     int
	MissingExtraction int
	Empty             int
	Elapsed           time.Duration
}

// Reembedder fills the embedding cache from the dedup history.
type Reembedder struct {
	history     History
	extractions Extractions
	cache       *cache.EmbeddingCache
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr, or io.Discard)
func NewReembedder(history History, extractions Extractions, c *cache.EmbeddingCache, embedder ai.Embedder, config *Config, progress io.Writer, opts ...Option) (*Reembedder, error) {
	switch {
	case history == nil:
		return nil, ErrHistoryRequired
	case extractions == nil:
		return nil, ErrExtractionsRequired
	case c == nil:
		return nil, ErrEmbeddingCacheRequired
	case embedder == nil:
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model required")
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		history:     history,
		extractions: extractions,
		cache:       c,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(embedder, c, config.Model, config.Normalize, config.MaxRetries, config.RetryDelay),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reembed", "model", config.Model)
	return r, nil
}

// Plan returns the items that need a vector, and a summary of everything
// skipped.
func (r *Reembedder) Plan() ([]Item, Summary) {
	records := r.history.Records()
	summary := Summary{Total: len(records)}

	var items []Item
	for _, rec := range records {
		if !r.config.Force && r.cache.Has(rec.ContentHash, r.config.Model) {
			summary.AlreadyCached++
			continue
		}
		result, ok := r.extractions(rec.ContentHash)
		if !ok {
			summary.MissingExtraction++
			r.logger.Debug("no cached extraction", "name", rec.OriginalName, "hash", rec.ContentHash)
			continue
		}
		text := EmbeddingInput(result.Content(), r.config.MaxInputChars)
		if text == "" {
			summary.Empty++
			continue
		}
		items = append(items, Item{ContentHash: rec.ContentHash, Name: rec.OriginalName, Text: text})
	}
	return items, summary
}

// Run embeds every planned item. Progress is reported to the configured
// writer.
func (r *Reembedder) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	items, summary := r.Plan()
	if len(items) == 0 {
		fmt.Fprintf(r.progress, "Nothing to embed (%d documents, %d already cached, %d without extraction)\n",
			summary.Total, summary.AlreadyCached, summary.MissingExtraction)
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Embedding %d documents with %s (batch size: %d)\n",
		len(items), r.config.Model, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(items), r.config.ReportInterval, "documents")
	tracker.Start()

	iterator := NewItemIterator(items, r.config.BatchSize)
	err := iterator.ForEach(ctx, func(batch []Item) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		summary.Embedded += len(batch)
		tracker.Increment(len(batch))
		return nil
	})
	summary.Elapsed = time.Since(start)
	if err != nil {
		r.logger.Error("warm-up stopped", "embedded", summary.Embedded, "err", err)
		return summary, err
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Embedding complete. %d documents in %v (%.1f documents/sec)\n",
		summary.Embedded, summary.Elapsed.Round(time.Millisecond), float64(summary.Embedded)/summary.Elapsed.Seconds())
	return summary, nil
}
