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

package cache

import (
	"strings"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/dedup"
)

// ExtractionCache stores extraction results keyed by content hash, engine
// identity, and extraction options.
type ExtractionCache struct {
	cache *TieredCache[*core.ExtractionResult]
}

// NewExtractionCache creates an ExtractionCache.
func NewExtractionCache(cfg Config, opts ...Option) (*ExtractionCache, error) {
	if cfg.Name == "" {
		cfg.Name = ExtractionName
	}
	c, err := New[*core.ExtractionResult](cfg, JSONCodec[*core.ExtractionResult]{}, opts...)
	if err != nil {
		return nil, err
	}
	return &ExtractionCache{cache: c}, nil
}

// ExtractionKey derives the cache key for an extraction.
func ExtractionKey(contentHash, engine string, opts map[string]string) string {
	return DeriveKey("extraction", contentHash, engine, strings.Join(sortedPairs(opts), "\x00"))
}

// Get returns the cached result for the given content and engine.
func (c *ExtractionCache) Get(contentHash, engine string, opts map[string]string) (*core.ExtractionResult, bool) {
	result, ok := c.cache.Get(ExtractionKey(contentHash, engine, opts))
	if !ok || result == nil {
		return nil, false
	}
	return result, true
}

// Set stores result for the given content and engine.
func (c *ExtractionCache) Set(contentHash, engine string, opts map[string]string, result *core.ExtractionResult) error {
	return c.cache.Set(ExtractionKey(contentHash, engine, opts), result)
}

// Invalidate drops the entry for the file's current content. Used when the
// source file is known to have changed under the same identity.
func (c *ExtractionCache) Invalidate(path, engine string, opts map[string]string) (bool, error) {
	hash, err := dedup.ComputeHash(path)
	if err != nil {
		return false, err
	}
	return c.InvalidateHash(hash, engine, opts), nil
}

// InvalidateHash drops the entry for contentHash.
func (c *ExtractionCache) InvalidateHash(contentHash, engine string, opts map[string]string) bool {
	return c.cache.Delete(ExtractionKey(contentHash, engine, opts))
}

// Name implements Maintainer.
func (c *ExtractionCache) Name() string { return c.cache.Name() }

// Stats implements Maintainer.
func (c *ExtractionCache) Stats() Stats { return c.cache.Stats() }

// Clear implements Maintainer.
func (c *ExtractionCache) Clear() int { return c.cache.Clear() }

// CleanupExpired implements Maintainer.
func (c *ExtractionCache) CleanupExpired() int { return c.cache.CleanupExpired() }
