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
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/poiesic/docingest/core"
)

var (
	// ErrDuplicateEngine is returned when two engines share a name.
	ErrDuplicateEngine = errors.New("engine already registered")

	// ErrEngineRequired is returned when registering a nil engine.
	ErrEngineRequired = errors.New("engine required")
)

// Registry holds the engines known to the process. It is populated
// explicitly at startup.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates a registry holding engines.
func NewRegistry(engines ...Engine) (*Registry, error) {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range engines {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an engine. Names must be unique.
func (r *Registry) Register(e Engine) error {
	if e == nil {
		return ErrEngineRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.engines[e.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEngine, e.Name())
	}
	r.engines[e.Name()] = e
	return nil
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	return e, ok
}

// Engines returns all engines ordered by priority, then name.
func (r *Registry) Engines() []Engine {
	r.mu.RLock()
	engines := make([]Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.RUnlock()

	SortByPriority(engines)
	return engines
}

// Descriptors returns descriptor snapshots in priority order.
func (r *Registry) Descriptors() []core.EngineDescriptor {
	engines := r.Engines()
	out := make([]core.EngineDescriptor, len(engines))
	for i, e := range engines {
		out[i] = Describe(e)
	}
	return out
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// SortByPriority orders engines by ascending priority, ties by name.
func SortByPriority(engines []Engine) {
	slices.SortStableFunc(engines, func(a, b Engine) int {
		if c := cmp.Compare(a.Priority(), b.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name(), b.Name())
	})
}
