// Package mock provides a configurable extraction engine for tests.
package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
)

// MockEngine is a test double for extract.Engine.
// It allows custom behavior injection via function fields.
type MockEngine struct {
	extract.Info

	// Available is returned by IsAvailable.
	Available bool

	// Delay is slept (honouring ctx) before ExtractFunc runs.
	Delay time.Duration

	// IgnoreContext makes Delay ignore cancellation, like an engine stuck in
	// a blocking call.
	IgnoreContext bool

	// Panic, when non-empty, makes Extract panic with this value.
	Panic string

	// SupportsFunc is called by Supports if set. If nil, every path is supported.
	SupportsFunc func(path string) bool

	// ExtractFunc is called by Extract if set.
	// If nil, returns a result with Records copied from the field below.
	ExtractFunc func(ctx context.Context, path string) (*core.ExtractionResult, error)

	// Records is returned by the default Extract behaviour.
	Records []core.Record

	callCount atomic.Int64
}

var (
	_ extract.Engine    = (*MockEngine)(nil)
	_ extract.Supporter = (*MockEngine)(nil)
)

// NewMockEngine creates an available mock engine with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEngine(name string, priority int) *MockEngine {
	return &MockEngine{
		Info:      extract.Info{EngineName: name, EnginePriority: priority, EngineVersion: "mock-1"},
		Available: true,
	}
}

// IsAvailable implements extract.Engine.
func (m *MockEngine) IsAvailable() bool { return m.Available }

// Supports implements extract.Supporter.
func (m *MockEngine) Supports(path string) bool {
	if m.SupportsFunc != nil {
		return m.SupportsFunc(path)
	}
	return true
}

// Extract implements extract.Engine.
func (m *MockEngine) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	m.callCount.Add(1)

	if m.Delay > 0 {
		if m.IgnoreContext {
			time.Sleep(m.Delay)
		} else {
			select {
			case <-time.After(m.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if m.Panic != "" {
		panic(m.Panic)
	}
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, path)
	}

	records := make([]core.Record, len(m.Records))
	copy(records, m.Records)
	return &core.ExtractionResult{
		Engine:        m.EngineName,
		EngineVersion: m.EngineVersion,
		Records:       records,
	}, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockEngine) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockEngine) Reset() {
	m.callCount.Store(0)
	m.ExtractFunc = nil
	m.SupportsFunc = nil
}

// Rows builds n records with the given columns, each cell filled with
// non-placeholder text.
func Rows(n int, columns ...string) []core.Record {
	records := make([]core.Record, n)
	for i := range records {
		values := make(map[string]string, len(columns))
		for _, c := range columns {
			values[c] = c + "-value"
		}
		records[i] = core.Record{Values: values}
	}
	return records
}
