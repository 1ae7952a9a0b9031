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

// Package pdf extracts text and tables from PDF files with pdfcpu.
//
// Text is recovered from the page content streams, keeping line breaks and
// turning horizontal moves into wide gaps so column layouts survive as
// aligned text for extract.ParseTable.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
)

const (
	Name            = "pdf"
	DefaultPriority = 3
)

// Version names the pdfcpu release line; bump it with the dependency so
// cached extractions are invalidated.
const Version = "1.0+pdfcpu.0.11"

// ErrNoText is returned when a PDF has no extractable text layer.
var ErrNoText = errors.New("no text content found in PDF")

// Engine reads PDF files.
type Engine struct {
	extract.Info
	extract.Extensions
}

var _ extract.Engine = (*Engine)(nil)

// New creates a pdf engine. A priority <= 0 uses DefaultPriority.
func New(priority int) *Engine {
	if priority <= 0 {
		priority = DefaultPriority
	}
	return &Engine{
		Info:       extract.Info{EngineName: Name, EnginePriority: priority, EngineVersion: Version},
		Extensions: extract.Extensions{".pdf"},
	}
}

// IsAvailable implements extract.Engine. pdfcpu is pure Go.
func (e *Engine) IsAvailable() bool { return true }

// Extract implements extract.Engine.
func (e *Engine) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	text, err := Text(ctx, path)
	if err != nil {
		return nil, err
	}
	result := extract.Result(Name, Version, text)
	result.ConfidenceHint = 0.7
	return result, nil
}

// Text returns the text layer of the PDF at path, one line per text line,
// pages separated by a blank line.
func Text(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if text := pageText(pctx, pageNr); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}

func pageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return streamText(data)
}
