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

// Package config holds the docingest configuration and loads it from YAML
// and the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/fallback"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendBadger = "badger"
)

// Engine names.
const (
	EngineText   = "text"
	EngineHTML   = "html"
	EnginePDF    = "pdf"
	EngineOffice = "office"
	EngineLLM    = "llm"
)

// Config is the complete configuration.
type Config struct {
	// DataDir is the root for the cache and history when their own paths
	// are not set.
	DataDir   string          `koanf:"data_dir"`
	Cache     CacheConfig     `koanf:"cache"`
	Dedup     DedupConfig     `koanf:"dedup"`
	Fallback  fallback.Config `koanf:"fallback"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Engines   EnginesConfig   `koanf:"engines"`
	Ingest    IngestConfig    `koanf:"ingest"`
}

// CacheConfig configures the three caches.
type CacheConfig struct {
	Dir        string     `koanf:"dir"`
	Extraction TierConfig `koanf:"extraction"`
	Embedding  TierConfig `koanf:"embedding"`
	Query      TierConfig `koanf:"query"`
}

// TierConfig configures one cache.
type TierConfig struct {
	Enabled bool `koanf:"enabled"`

	// TTLHours is the default entry lifetime. Zero or less never expires.
	TTLHours float64 `koanf:"ttl_hours"`

	// MaxEntries bounds the disk tier. Zero means unbounded.
	MaxEntries int `koanf:"max_entries"`

	// HotEntries sizes the in-memory tier. Zero disables it.
	HotEntries int `koanf:"hot_entries"`
}

// DedupConfig selects the history backend.
type DedupConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

// EmbeddingConfig configures the OpenAI-compatible model endpoints.
type EmbeddingConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Host           string `koanf:"host"`
	Model          string `koanf:"model"`
	ExtractorHost  string `koanf:"extractor_host"`
	ExtractorModel string `koanf:"extractor_model"`
	Token          string `koanf:"token"`
	MaxInputChars  int    `koanf:"max_input_chars"`
	BatchSize      int    `koanf:"batch_size"`
}

// EngineConfig enables an engine and sets its priority.
type EngineConfig struct {
	Enabled  bool `koanf:"enabled"`
	Priority int  `koanf:"priority"`
}

// EnginesConfig holds one EngineConfig per engine.
type EnginesConfig struct {
	Text   EngineConfig `koanf:"text"`
	HTML   EngineConfig `koanf:"html"`
	PDF    EngineConfig `koanf:"pdf"`
	Office EngineConfig `koanf:"office"`
	LLM    EngineConfig `koanf:"llm"`
}

// ByName returns the engine settings keyed by engine name.
func (e EnginesConfig) ByName() map[string]EngineConfig {
	return map[string]EngineConfig{
		EngineText:   e.Text,
		EngineHTML:   e.HTML,
		EnginePDF:    e.PDF,
		EngineOffice: e.Office,
		EngineLLM:    e.LLM,
	}
}

// IngestConfig configures directory discovery.
type IngestConfig struct {
	// Extensions restricts discovery. Empty means every file.
	Extensions []string `koanf:"extensions"`
}

// Option configures a Config.
type Option func(*Config)

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithCacheDir sets the cache root.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.Cache.Dir = dir
	}
}

// WithDedupBackend selects the history backend.
func WithDedupBackend(backend string) Option {
	return func(c *Config) {
		c.Dedup.Backend = backend
	}
}

// WithFallback replaces the fallback settings.
func WithFallback(fc fallback.Config) Option {
	return func(c *Config) {
		c.Fallback = fc
	}
}

// WithEmbeddings enables embeddings against host with model.
func WithEmbeddings(host, model string) Option {
	return func(c *Config) {
		c.Embedding.Enabled = true
		c.Embedding.Host = host
		c.Embedding.Model = model
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		DataDir: ".docingest",
		Cache: CacheConfig{
			Extraction: TierConfig{Enabled: true, TTLHours: cache.DefaultExtractionTTL.Hours(), HotEntries: 128},
			Embedding:  TierConfig{Enabled: true, TTLHours: cache.DefaultEmbeddingTTL.Hours(), HotEntries: 1024},
			Query:      TierConfig{Enabled: true, TTLHours: cache.DefaultQueryTTL.Hours(), MaxEntries: 1000, HotEntries: 256},
		},
		Dedup:    DedupConfig{Backend: BackendJSON},
		Fallback: fallback.DefaultConfig(),
		Embedding: EmbeddingConfig{
			Host:           aiDefaults.EmbeddingHost,
			Model:          aiDefaults.EmbeddingModel,
			ExtractorHost:  aiDefaults.ExtractorHost,
			ExtractorModel: aiDefaults.ExtractorModel,
			MaxInputChars:  aiDefaults.MaxInputChars,
			BatchSize:      32,
		},
		Engines: EnginesConfig{
			Text:   EngineConfig{Enabled: true, Priority: 1},
			HTML:   EngineConfig{Enabled: true, Priority: 2},
			PDF:    EngineConfig{Enabled: true, Priority: 3},
			Office: EngineConfig{Enabled: true, Priority: 4},
			LLM:    EngineConfig{Enabled: false, Priority: 5},
		},
	}
}

// NewConfig creates a Config from defaults and options.
func NewConfig(opts ...Option) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheRoot returns the directory holding the caches.
func (c *Config) CacheRoot() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.DataDir, "cache")
}

// HistoryPath returns the history file (json) or directory (badger).
func (c *Config) HistoryPath() string {
	if c.Dedup.Path != "" {
		return c.Dedup.Path
	}
	if c.Dedup.Backend == BackendBadger {
		return filepath.Join(c.DataDir, "history")
	}
	return filepath.Join(c.DataDir, "history.json")
}

// CacheConfig returns the cache.Config for the named cache.
func (c *Config) CacheConfig(name string) cache.Config {
	var tier TierConfig
	switch name {
	case cache.ExtractionName:
		tier = c.Cache.Extraction
	case cache.EmbeddingName:
		tier = c.Cache.Embedding
	case cache.QueryName:
		tier = c.Cache.Query
	}
	return cache.Config{
		Name:       name,
		Dir:        filepath.Join(c.CacheRoot(), name),
		Enabled:    tier.Enabled,
		DefaultTTL: time.Duration(tier.TTLHours * float64(time.Hour)),
		MaxEntries: tier.MaxEntries,
		HotEntries: tier.HotEntries,
	}
}

// AIConfig returns the model endpoint settings.
func (c *Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithExtractorHost(c.Embedding.ExtractorHost),
		ai.WithExtractorModel(c.Embedding.ExtractorModel),
		ai.WithMaxInputChars(c.Embedding.MaxInputChars),
	}
	if c.Embedding.Token != "" {
		opts = append(opts, ai.WithToken(c.Embedding.Token))
	}
	return ai.NewConfig(opts...)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" && (c.Cache.Dir == "" || c.Dedup.Path == "") {
		errs = append(errs, errors.New("data_dir is required unless cache.dir and dedup.path are set"))
	}
	for name, tier := range map[string]TierConfig{
		cache.ExtractionName: c.Cache.Extraction,
		cache.EmbeddingName:  c.Cache.Embedding,
		cache.QueryName:      c.Cache.Query,
	} {
		if tier.MaxEntries < 0 {
			errs = append(errs, fmt.Errorf("cache.%s.max_entries must not be negative", name))
		}
		if tier.HotEntries < 0 {
			errs = append(errs, fmt.Errorf("cache.%s.hot_entries must not be negative", name))
		}
	}
	if !slices.Contains([]string{BackendJSON, BackendBadger}, c.Dedup.Backend) {
		errs = append(errs, fmt.Errorf("dedup.backend must be %q or %q, got %q", BackendJSON, BackendBadger, c.Dedup.Backend))
	}
	if err := c.Fallback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fallback: %w", err))
	}
	if c.Embedding.Enabled && c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding.model is required when embeddings are enabled"))
	}
	if c.Embedding.MaxInputChars < 0 {
		errs = append(errs, errors.New("embedding.max_input_chars must not be negative"))
	}
	enabled := 0
	for name, e := range c.Engines.ByName() {
		if !e.Enabled {
			continue
		}
		enabled++
		if e.Priority < 1 {
			errs = append(errs, fmt.Errorf("engines.%s.priority must be at least 1, got %d", name, e.Priority))
		}
	}
	if enabled == 0 {
		errs = append(errs, errors.New("at least one engine must be enabled"))
	}
	return errors.Join(errs...)
}
