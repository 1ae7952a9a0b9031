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

// Package html extracts tables from HTML documents.
//
// Markup is sanitized with bluemonday before it is converted to markdown,
// so scripts and styles never reach the parsed text.
package html

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
)

const (
	Name            = "html"
	Version         = "1.0+h2m.2.5"
	DefaultPriority = 2
)

// Engine reads .html and .htm files.
type Engine struct {
	extract.Info
	extract.Extensions

	policy    *bluemonday.Policy
	converter *converter.Converter
}

var _ extract.Engine = (*Engine)(nil)

// New creates an html engine. A priority <= 0 uses DefaultPriority.
func New(priority int) *Engine {
	if priority <= 0 {
		priority = DefaultPriority
	}
	return &Engine{
		Info:       extract.Info{EngineName: Name, EnginePriority: priority, EngineVersion: Version},
		Extensions: extract.Extensions{".html", ".htm", ".xhtml"},
		policy:     bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// IsAvailable implements extract.Engine.
func (e *Engine) IsAvailable() bool { return true }

// Extract implements extract.Engine.
func (e *Engine) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	md, err := e.Markdown(string(data))
	if err != nil {
		return nil, err
	}
	result := extract.Result(Name, Version, md)
	result.ConfidenceHint = 0.9
	return result, nil
}

// Markdown sanitizes raw HTML and renders it as markdown.
func (e *Engine) Markdown(raw string) (string, error) {
	md, err := e.converter.ConvertString(e.policy.Sanitize(raw))
	if err != nil {
		return "", fmt.Errorf("html to markdown: %w", err)
	}
	return md, nil
}
