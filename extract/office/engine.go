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

// Package office extracts text and tables from word-processor documents
// using docconv.
//
// .docx and .odt are handled in pure Go. .doc and .rtf need the wvText and
// unrtf helpers on PATH and are only claimed when those are present.
package office

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
)

const (
	Name            = "office"
	Version         = "1.0+docconv.1.3"
	DefaultPriority = 4
)

// ConvertFunc turns a document stream of the given MIME type into text.
type ConvertFunc func(r io.Reader, mimeType string) (string, error)

// Engine reads office documents.
type Engine struct {
	extract.Info
	extract.Extensions

	convert ConvertFunc
}

var _ extract.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithConverter replaces docconv, mainly for tests.
func WithConverter(fn ConvertFunc) Option {
	return func(e *Engine) {
		e.convert = fn
	}
}

// WithExtensions overrides the claimed file extensions.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.Extensions = extract.Extensions(exts)
	}
}

// New creates an office engine. A priority <= 0 uses DefaultPriority.
func New(priority int, opts ...Option) *Engine {
	if priority <= 0 {
		priority = DefaultPriority
	}
	e := &Engine{
		Info:       extract.Info{EngineName: Name, EnginePriority: priority, EngineVersion: Version},
		Extensions: detectExtensions(),
		convert:    docconvText,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func detectExtensions() extract.Extensions {
	exts := extract.Extensions{".docx", ".odt"}
	if _, err := exec.LookPath("wvText"); err == nil {
		exts = append(exts, ".doc")
	}
	if _, err := exec.LookPath("unrtf"); err == nil {
		exts = append(exts, ".rtf")
	}
	return exts
}

func docconvText(r io.Reader, mimeType string) (string, error) {
	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// IsAvailable implements extract.Engine.
func (e *Engine) IsAvailable() bool { return len(e.Extensions) > 0 }

// Extract implements extract.Engine.
func (e *Engine) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	text, err := e.Text(ctx, path)
	if err != nil {
		return nil, err
	}
	result := extract.Result(Name, Version, text)
	result.ConfidenceHint = 0.6
	return result, nil
}

// Text returns the document body as plain text. It satisfies
// extract.TextSource.
func (e *Engine) Text(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.convert(f, docconv.MimeTypeByExtension(path))
	if err != nil {
		return "", fmt.Errorf("docconv %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(text), nil
}
