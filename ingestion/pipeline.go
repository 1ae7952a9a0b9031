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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/dedup"
	"github.com/poiesic/docingest/metrics"
)

// Progress receives per-file progress. *reembed.ProgressTracker satisfies it.
type Progress interface {
	Start()
	Increment(delta int)
	Finish()
}

// Orchestrator runs batches of files through dedup, extraction and the
// embedding cache. The batch loop is single-threaded.
type Orchestrator struct {
	dedup      *dedup.Deduplicator
	extraction processor
	embedding  processor
	extensions []string
	progress   func(total int) Progress
	metrics    *metrics.Recorder
	logger     *slog.Logger

	extractor       Extractor
	extractionCache *cache.ExtractionCache
	extractionOpts  map[string]string
	embeddings      *embeddingSettings
}

type embeddingSettings struct {
	cache         *cache.EmbeddingCache
	embedder      ai.Embedder
	model         string
	maxInputChars int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithEmbeddings enables the embedding cache boundary. embedder may be nil,
// in which case vectors are only looked up, never generated. model keys
// the cached vectors.
func WithEmbeddings(c *cache.EmbeddingCache, embedder ai.Embedder, model string, maxInputChars int) Option {
	return func(o *Orchestrator) error {
		o.embeddings = &embeddingSettings{cache: c, embedder: embedder, model: model, maxInputChars: maxInputChars}
		return nil
	}
}

// WithExtensions restricts directory discovery to the given extensions.
func WithExtensions(exts ...string) Option {
	return func(o *Orchestrator) error {
		o.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions = append(o.extensions, ext)
		}
		return nil
	}
}

// WithExtractionOptions sets the options folded into extraction cache keys.
func WithExtractionOptions(opts map[string]string) Option {
	return func(o *Orchestrator) error {
		o.extractionOpts = opts
		return nil
	}
}

// WithProgress reports per-file progress. newProgress is called once per
// batch with the number of files.
func WithProgress(newProgress func(total int) Progress) Option {
	return func(o *Orchestrator) error {
		o.progress = newProgress
		return nil
	}
}

// WithMetrics records file outcomes on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *Orchestrator) error {
		o.metrics = rec
		return nil
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(d *dedup.Deduplicator, extractor Extractor, extractionCache *cache.ExtractionCache, opts ...Option) (*Orchestrator, error) {
	if d == nil {
		return nil, ErrDeduplicatorRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if extractionCache == nil {
		return nil, ErrExtractionCacheRequired
	}

	o := &Orchestrator{
		dedup:           d,
		extractor:       extractor,
		extractionCache: extractionCache,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "ingestion")

	// Processors are built after options so they get the final config.
	o.extraction = newExtractionProcessor(o.extractor, o.extractionCache, o.extractionOpts, o.logger)
	if e := o.embeddings; e != nil {
		proc, err := newEmbeddingProcessor(e.cache, e.embedder, e.model, e.maxInputChars, o.logger)
		if err != nil {
			return nil, err
		}
		o.embedding = proc
	}
	return o, nil
}

// Ingest processes every file discovered under sourceDir. The error is
// non-nil only when sourceDir itself is unusable or ctx is cancelled; per
// file failures are reported in the result.
func (o *Orchestrator) Ingest(ctx context.Context, sourceDir string, force bool) (*core.IngestBatchResult, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceDir, sourceDir)
	}

	paths, err := Discover(sourceDir, o.extensions)
	if err != nil {
		return nil, err
	}
	return o.IngestFiles(ctx, paths, force)
}

// IngestFiles processes the given files in order.
func (o *Orchestrator) IngestFiles(ctx context.Context, paths []string, force bool) (*core.IngestBatchResult, error) {
	start := time.Now()
	result := &core.IngestBatchResult{BatchID: uuid.NewString()}
	logger := o.logger.With("batch", result.BatchID)
	logger.Info("batch started", "files", len(paths), "force", force)

	var progress Progress
	if o.progress != nil {
		progress = o.progress(len(paths))
		progress.Start()
	}

	var ctxErr error
	for _, path := range paths {
		if ctxErr = ctx.Err(); ctxErr != nil {
			logger.Warn("batch cancelled", "remaining", len(paths)-result.ProcessedCount-result.SkippedDuplicateCount-result.FailedCount())
			break
		}
		o.ingestOne(ctx, logger, path, force, result)
		if progress != nil {
			progress.Increment(1)
		}
	}
	if progress != nil {
		progress.Finish()
	}

	result.ElapsedSeconds = time.Since(start).Seconds()
	logger.Info("batch finished",
		"processed", result.ProcessedCount,
		"skipped", result.SkippedDuplicateCount,
		"failed", result.FailedCount(),
		"extraction_cache_hits", result.ExtractionCacheHits,
		"embedding_cache_hits", result.EmbeddingCacheHits,
		"records", result.TotalRecordsProduced,
		"elapsed", result.ElapsedSeconds)
	return result, ctxErr
}

func (o *Orchestrator) ingestOne(ctx context.Context, logger *slog.Logger, path string, force bool, result *core.IngestBatchResult) {
	name := filepath.Base(path)

	hash, err := dedup.ComputeHash(path)
	if err != nil {
		o.fail(logger, result, name, err)
		return
	}

	if !force {
		if dup, original := o.dedup.IsDuplicateHash(hash); dup {
			logger.Info("skipping duplicate", "name", name, "original", original)
			result.SkippedDuplicateCount++
			o.metrics.File(metrics.StatusDuplicate)
			return
		}
	}

	it := &item{
		path: path,
		doc:  &core.IngestedDocument{ContentHash: hash, Name: name, Path: path},
	}
	if err := o.extraction.process(ctx, it); err != nil {
		o.fail(logger, result, name, err)
		return
	}
	if o.embedding != nil {
		if err := o.embedding.process(ctx, it); err != nil {
			o.fail(logger, result, name, err)
			return
		}
	}

	metadata := map[string]any{
		"batch":   result.BatchID,
		"engine":  it.doc.Result.Engine,
		"records": len(it.doc.Result.Records),
	}
	if err := o.dedup.RegisterHash(ctx, path, hash, metadata); err != nil {
		o.fail(logger, result, name, fmt.Errorf("failed to register: %w", err))
		return
	}

	result.ProcessedCount++
	result.TotalRecordsProduced += len(it.doc.Result.Records)
	if it.doc.ExtractionCacheHit {
		result.ExtractionCacheHits++
	}
	if it.doc.EmbeddingCacheHit {
		result.EmbeddingCacheHits++
	}
	result.Documents = append(result.Documents, it.doc)
	o.metrics.File(metrics.StatusProcessed)
	logger.Debug("processed", "name", name, "records", len(it.doc.Result.Records),
		"extraction_cache_hit", it.doc.ExtractionCacheHit, "embedding_cache_hit", it.doc.EmbeddingCacheHit)
}

func (o *Orchestrator) fail(logger *slog.Logger, result *core.IngestBatchResult, name string, err error) {
	logger.Error("file failed", "name", name, "err", err)
	result.AddError(name, err)
	o.metrics.File(metrics.StatusFailed)
}
