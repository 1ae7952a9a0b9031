package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/docingest/ai"
)

// MockTableExtractor is a test double for ai.TableExtractor.
// It allows custom behavior injection via function fields.
type MockTableExtractor struct {
	// ExtractTableFunc is called by ExtractTable if set.
	// If nil, splits each line on "|" or "," into cells.
	ExtractTableFunc func(ctx context.Context, text string) (*ai.ExtractedTable, error)

	callCount atomic.Int64
}

// NewMockTableExtractor creates a mock table extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockTableExtractor() *MockTableExtractor {
	return &MockTableExtractor{}
}

// ExtractTable treats the first non-empty line as headers and the rest as rows.
func (m *MockTableExtractor) ExtractTable(ctx context.Context, text string) (*ai.ExtractedTable, error) {
	m.callCount.Add(1)

	if m.ExtractTableFunc != nil {
		return m.ExtractTableFunc(ctx, text)
	}

	table := &ai.ExtractedTable{Confidence: 0.5}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := ","
		if strings.Contains(line, "|") {
			sep = "|"
		}
		var cells []string
		for _, cell := range strings.Split(strings.Trim(line, "|"), sep) {
			cells = append(cells, strings.TrimSpace(cell))
		}
		if table.Headers == nil {
			table.Headers = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// CallCount returns the number of times ExtractTable was called.
func (m *MockTableExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockTableExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractTableFunc = nil
}
