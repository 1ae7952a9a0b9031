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

// Package llm is an extraction engine that asks a language model to recover
// a table from a document's text.
//
// It is the slowest and least predictable engine and normally runs last.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
)

const (
	Name            = "llm"
	DefaultPriority = 5
)

var (
	// ErrExtractorRequired is returned when no table extractor is given.
	ErrExtractorRequired = errors.New("table extractor required")

	// ErrNoText is reported when the document has no text to send.
	ErrNoText = errors.New("document has no text")
)

// Engine sends document text to an ai.TableExtractor.
type Engine struct {
	extract.Info

	extractor ai.TableExtractor
	source    extract.TextSource
	exts      extract.Extensions
	logger    *slog.Logger
}

var _ extract.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithPriority sets the engine priority.
func WithPriority(priority int) Option {
	return func(e *Engine) error {
		if priority <= 0 {
			return fmt.Errorf("priority must be positive, got %d", priority)
		}
		e.EnginePriority = priority
		return nil
	}
}

// WithTextSource sets where document text comes from. The default reads
// UTF-8 files.
func WithTextSource(src extract.TextSource) Option {
	return func(e *Engine) error {
		e.source = src
		return nil
	}
}

// WithExtensions limits the engine to the given file extensions. By default
// it claims every file.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) error {
		e.exts = extract.Extensions(exts)
		return nil
	}
}

// New creates an llm engine. model is folded into the engine version so
// switching models invalidates cached extractions.
func New(extractor ai.TableExtractor, model string, opts ...Option) (*Engine, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	e := &Engine{
		Info: extract.Info{
			EngineName:     Name,
			EnginePriority: DefaultPriority,
			EngineVersion:  "1.0+" + model,
		},
		extractor: extractor,
		source:    extract.ReadUTF8,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "llm-engine")
	return e, nil
}

// IsAvailable implements extract.Engine.
func (e *Engine) IsAvailable() bool { return e.extractor != nil }

// Supports implements extract.Supporter.
func (e *Engine) Supports(path string) bool {
	return len(e.exts) == 0 || e.exts.Supports(path)
}

// Extract implements extract.Engine.
func (e *Engine) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	text, err := e.source(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	result := &core.ExtractionResult{
		Engine:        Name,
		EngineVersion: e.EngineVersion,
		Text:          text,
		Records:       []core.Record{},
	}
	if strings.TrimSpace(text) == "" {
		result.Error = ErrNoText.Error()
		return result, nil
	}

	table, err := e.extractor.ExtractTable(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("table extraction failed: %w", err)
	}
	if table.Empty() {
		e.logger.Debug("model found no table", "path", path)
		return result, nil
	}

	t := extract.Table{Headers: table.Headers, Rows: table.Rows}
	result.Records = t.Records()
	if len(table.Headers) > 0 {
		result.Headers = extract.ColumnNames(table.Headers, len(table.Headers))
	}
	result.ConfidenceHint = table.Confidence
	return result, nil
}
