// Package text extracts records from plain, markdown and delimited text files.
package text

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
)

const (
	Name            = "text"
	Version         = "1.0"
	DefaultPriority = 1
)

// Engine reads .txt, .md, .csv and .tsv files.
type Engine struct {
	extract.Info
	extract.Extensions
}

var _ extract.Engine = (*Engine)(nil)

// New creates a text engine with the given priority. A priority <= 0 uses
// DefaultPriority.
func New(priority int) *Engine {
	if priority <= 0 {
		priority = DefaultPriority
	}
	return &Engine{
		Info:       extract.Info{EngineName: Name, EnginePriority: priority, EngineVersion: Version},
		Extensions: extract.Extensions{".txt", ".md", ".markdown", ".csv", ".tsv"},
	}
}

// IsAvailable implements extract.Engine. The engine needs nothing external.
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

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return e.delimited(data, ',')
	case ".tsv":
		return e.delimited(data, '\t')
	default:
		return extract.Result(Name, Version, string(data)), nil
	}
}

func (e *Engine) delimited(data []byte, comma rune) (*core.ExtractionResult, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = comma == ','

	rows, err := r.ReadAll()
	if err != nil {
		return &core.ExtractionResult{
			Engine:        Name,
			EngineVersion: Version,
			Records:       []core.Record{},
			Error:         fmt.Sprintf("malformed delimited file: %v", err),
		}, nil
	}

	result := &core.ExtractionResult{
		Engine:         Name,
		EngineVersion:  Version,
		Text:           string(data),
		Records:        []core.Record{},
		ConfidenceHint: 0.9,
	}
	if len(rows) == 0 {
		return result, nil
	}
	table := extract.Table{Headers: rows[0], Rows: rows[1:]}
	result.Headers = extract.ColumnNames(table.Headers, len(table.Headers))
	result.Records = table.Records()
	return result, nil
}
