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

// Package docingest assembles the ingestion core from a config.Config:
// dedup history, the three caches, the extraction engines, the fallback
// strategy and the orchestrator.
package docingest

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/ai/openai"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/config"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/dedup"
	"github.com/poiesic/docingest/extract"
	"github.com/poiesic/docingest/extract/html"
	"github.com/poiesic/docingest/extract/llm"
	"github.com/poiesic/docingest/extract/office"
	"github.com/poiesic/docingest/extract/pdf"
	"github.com/poiesic/docingest/extract/text"
	"github.com/poiesic/docingest/fallback"
	"github.com/poiesic/docingest/ingestion"
	"github.com/poiesic/docingest/metrics"
	"github.com/poiesic/docingest/quality"
	"github.com/poiesic/docingest/reembed"
	"github.com/poiesic/docingest/storage"
	"github.com/poiesic/docingest/storage/badger"
	"github.com/poiesic/docingest/storage/jsonfile"
)

var (
	// ErrConfigRequired indicates New was called without a configuration.
	ErrConfigRequired = errors.New("config required")

	// ErrEmbeddingsDisabled indicates an embedding operation was requested
	// while embeddings are turned off.
	ErrEmbeddingsDisabled = errors.New("embeddings disabled")
)

// Pipeline owns every component of the ingestion core.
type Pipeline struct {
	config       *config.Config
	history      storage.HistoryRepository
	dedup        *dedup.Deduplicator
	extraction   *cache.ExtractionCache
	embedding    *cache.EmbeddingCache
	query        *cache.QueryCache
	registry     *extract.Registry
	strategy     *fallback.Strategy
	orchestrator *ingestion.Orchestrator
	provider     ai.AIProvider
	ownsProvider bool
	metrics      *metrics.Recorder
	logger       *slog.Logger
	baseLogger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	provider   ai.AIProvider
	registerer prometheus.Registerer
	progress   io.Writer
	engines    []extract.Engine
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProvider supplies the model provider instead of building an OpenAI
// one from the configuration. The caller keeps ownership.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithRegisterer registers the metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithProgress reports per-file ingestion progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithEngines registers additional extraction engines.
func WithEngines(engines ...extract.Engine) Option {
	return func(o *options) {
		o.engines = append(o.engines, engines...)
	}
}

// New builds a Pipeline from cfg. Close releases what it opened.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	p := &Pipeline{
		config:     cfg,
		provider:   o.provider,
		metrics:    metrics.NewRecorder(o.registerer),
		logger:     o.logger.With("component", "docingest"),
		baseLogger: o.logger,
	}
	if err := p.open(o); err != nil {
		p.Close()
		return nil, err
	}
	p.logger.Info("pipeline ready",
		"engines", p.registry.Len(),
		"fallback", p.strategy.Config().Mode(),
		"history", cfg.HistoryPath(),
		"cache", cfg.CacheRoot(),
		"embeddings", cfg.Embedding.Enabled)
	return p, nil
}

func (p *Pipeline) open(o *options) error {
	cfg := p.config

	var err error
	if p.history, err = openHistory(cfg); err != nil {
		return err
	}
	if p.dedup, err = dedup.New(p.history, dedup.WithLogger(o.logger)); err != nil {
		return err
	}

	cacheOpts := []cache.Option{cache.WithLogger(o.logger), cache.WithMetrics(p.metrics)}
	if p.extraction, err = cache.NewExtractionCache(cfg.CacheConfig(cache.ExtractionName), cacheOpts...); err != nil {
		return err
	}
	if p.embedding, err = cache.NewEmbeddingCache(cfg.CacheConfig(cache.EmbeddingName), cacheOpts...); err != nil {
		return err
	}
	if p.query, err = cache.NewQueryCache(cfg.CacheConfig(cache.QueryName), cacheOpts...); err != nil {
		return err
	}

	if p.provider == nil && (cfg.Embedding.Enabled || cfg.Engines.LLM.Enabled) {
		if p.provider, err = openai.NewProvider(cfg.AIConfig()); err != nil {
			return err
		}
		p.ownsProvider = true
	}

	engines, err := p.engines(o.logger)
	if err != nil {
		return err
	}
	if p.registry, err = extract.NewRegistry(append(engines, o.engines...)...); err != nil {
		return err
	}
	p.strategy, err = fallback.New(p.registry.Engines(), quality.NewAssessor(), cfg.Fallback,
		fallback.WithLogger(o.logger), fallback.WithMetrics(p.metrics))
	if err != nil {
		return err
	}

	ingestOpts := []ingestion.Option{
		ingestion.WithLogger(o.logger),
		ingestion.WithMetrics(p.metrics),
		ingestion.WithExtensions(cfg.Ingest.Extensions...),
	}
	if cfg.Embedding.Enabled {
		ingestOpts = append(ingestOpts, ingestion.WithEmbeddings(
			p.embedding, p.provider.Embedder(), p.provider.EmbeddingModel(), cfg.Embedding.MaxInputChars))
	}
	if w := o.progress; w != nil {
		ingestOpts = append(ingestOpts, ingestion.WithProgress(func(total int) ingestion.Progress {
			return reembed.NewProgressTracker(w, total, progressInterval(total), "files")
		}))
	}
	p.orchestrator, err = ingestion.NewOrchestrator(p.dedup, p.strategy, p.extraction, ingestOpts...)
	return err
}

func openHistory(cfg *config.Config) (storage.HistoryRepository, error) {
	if cfg.Dedup.Backend == config.BackendBadger {
		repo, err := badger.OpenHistory(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := jsonfile.Open(cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// engines builds the enabled built-in engines.
func (p *Pipeline) engines(logger *slog.Logger) ([]extract.Engine, error) {
	ec := p.config.Engines
	officeEngine := office.New(ec.Office.Priority)

	var engines []extract.Engine
	if ec.Text.Enabled {
		engines = append(engines, text.New(ec.Text.Priority))
	}
	if ec.HTML.Enabled {
		engines = append(engines, html.New(ec.HTML.Priority))
	}
	if ec.PDF.Enabled {
		engines = append(engines, pdf.New(ec.PDF.Priority))
	}
	if ec.Office.Enabled {
		engines = append(engines, officeEngine)
	}
	if ec.LLM.Enabled {
		source := extract.ByExtension(map[string]extract.TextSource{
			".pdf":  pdf.Text,
			".docx": officeEngine.Text,
			".odt":  officeEngine.Text,
		}, extract.ReadUTF8)
		engine, err := llm.New(p.provider.TableExtractor(), p.config.Embedding.ExtractorModel,
			llm.WithLogger(logger),
			llm.WithPriority(ec.LLM.Priority),
			llm.WithTextSource(source))
		if err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}
	return engines, nil
}

func progressInterval(total int) int {
	return max(1, total/20)
}

// Ingest processes every file under dir.
func (p *Pipeline) Ingest(ctx context.Context, dir string, force bool) (*core.IngestBatchResult, error) {
	return p.orchestrator.Ingest(ctx, dir, force)
}

// IngestFiles processes the given files.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string, force bool) (*core.IngestBatchResult, error) {
	return p.orchestrator.IngestFiles(ctx, paths, force)
}

// Forget removes the history entry for the file's current content and drops
// its cached extraction and vector, so the next ingest processes it again.
func (p *Pipeline) Forget(ctx context.Context, path string) (bool, error) {
	hash, err := dedup.ComputeHash(path)
	if err != nil {
		return false, err
	}
	return p.ForgetHash(ctx, hash)
}

// ForgetHash is Forget for a content hash, for files that no longer exist.
func (p *Pipeline) ForgetHash(ctx context.Context, hash string) (bool, error) {
	if err := core.ValidateContentHash(hash); err != nil {
		return false, err
	}
	removed, err := p.dedup.UnregisterHash(ctx, hash)
	if err != nil {
		return false, err
	}
	p.extraction.InvalidateHash(hash, p.strategy.Identity(), nil)
	if p.provider != nil {
		p.embedding.Delete(hash, p.provider.EmbeddingModel())
	}
	if removed {
		// Cached query results may cite the forgotten document.
		p.query.InvalidateBySource(hash)
	}
	p.logger.Info("forgot content", "hash", hash, "removed", removed)
	return removed, nil
}

// Reembed fills the embedding cache for every known document that has a
// cached extraction. Force recomputes vectors that are already cached.
func (p *Pipeline) Reembed(ctx context.Context, force bool, progress io.Writer) (reembed.Summary, error) {
	if !p.config.Embedding.Enabled || p.provider == nil {
		return reembed.Summary{}, ErrEmbeddingsDisabled
	}
	rc := reembed.DefaultConfig(p.provider.EmbeddingModel())
	if p.config.Embedding.BatchSize > 0 {
		rc.BatchSize = p.config.Embedding.BatchSize
	}
	rc.MaxInputChars = p.config.Embedding.MaxInputChars
	rc.Force = force

	identity := p.strategy.Identity()
	extractions := func(hash string) (*core.ExtractionResult, bool) {
		return p.extraction.Get(hash, identity, nil)
	}
	r, err := reembed.NewReembedder(p.dedup, extractions, p.embedding, p.provider.Embedder(), rc, progress,
		reembed.WithLogger(p.baseLogger))
	if err != nil {
		return reembed.Summary{}, err
	}
	return r.Run(ctx)
}

// Caches returns the extraction, embedding and query caches.
func (p *Pipeline) Caches() []cache.Maintainer {
	return []cache.Maintainer{p.extraction, p.embedding, p.query}
}

// Cache returns the named cache.
func (p *Pipeline) Cache(name string) (cache.Maintainer, bool) {
	for _, c := range p.Caches() {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// QueryCache returns the query result cache for the search layer.
func (p *Pipeline) QueryCache() *cache.QueryCache {
	return p.query
}

// Engines describes the registered engines, highest priority first.
func (p *Pipeline) Engines() []core.EngineDescriptor {
	return p.registry.Descriptors()
}

// History returns the dedup history, oldest first.
func (p *Pipeline) History() []*core.ContentRecord {
	return p.dedup.Records()
}

// Metrics returns the metrics recorder.
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

// Close releases the history store and any provider the pipeline created.
func (p *Pipeline) Close() error {
	var errs []error
	if p.ownsProvider && p.provider != nil {
		if err := p.provider.Close(); err != nil {
			p.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if p.history != nil {
		if err := p.history.Close(); err != nil {
			p.logger.Error("error closing history", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
