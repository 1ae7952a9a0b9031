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

package extract

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/docingest/core"
)

// Engine turns one document into structured records.
//
// Extract may block for a long time. Callers bound it with a context
// deadline, but an engine that ignores ctx keeps running after the caller
// has stopped waiting; cancellation is a hint, not a guarantee.
type Engine interface {
	// Name identifies the engine, e.g. "pdf".
	Name() string

	// Priority orders engines; 1 is tried first.
	Priority() int

	// IsAvailable reports whether the engine can run in this environment.
	IsAvailable() bool

	// Version is part of the cache identity of results.
	Version() string

	// Extract parses the document at path. An engine-level failure may be
	// reported either as an error or as a result with Error set.
	Extract(ctx context.Context, path string) (*core.ExtractionResult, error)
}

// Supporter is implemented by engines that only handle some file types.
// Engines that do not implement it are assumed to handle everything.
type Supporter interface {
	Supports(path string) bool
}

// Supports reports whether e accepts the file at path.
func Supports(e Engine, path string) bool {
	if s, ok := e.(Supporter); ok {
		return s.Supports(path)
	}
	return true
}

// Describe snapshots an engine's static descriptors.
func Describe(e Engine) core.EngineDescriptor {
	return core.EngineDescriptor{
		Name:      e.Name(),
		Priority:  e.Priority(),
		Available: e.IsAvailable(),
		Version:   e.Version(),
	}
}

// Extensions is a Supporter over a fixed set of lowercase file extensions.
type Extensions []string

// Supports implements Supporter.
func (x Extensions) Supports(path string) bool {
	return slices.Contains(x, strings.ToLower(filepath.Ext(path)))
}
