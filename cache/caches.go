package cache

import (
	"path/filepath"
	"time"
)

// Default TTLs for the specialized caches.
const (
	DefaultExtractionTTL = 168 * time.Hour
	DefaultEmbeddingTTL  = 720 * time.Hour
	DefaultQueryTTL      = 24 * time.Hour
)

// Cache names, also used as directory names under a cache root.
const (
	ExtractionName = "extraction"
	EmbeddingName  = "embedding"
	QueryName      = "query"
)

// Maintainer is the housekeeping surface shared by every cache.
type Maintainer interface {
	Name() string
	Stats() Stats
	Clear() int
	CleanupExpired() int
}

var (
	_ Maintainer = (*TieredCache[int])(nil)
	_ Maintainer = (*ExtractionCache)(nil)
	_ Maintainer = (*EmbeddingCache)(nil)
	_ Maintainer = (*QueryCache)(nil)
)

// DefaultExtractionConfig returns the extraction cache config under root.
func DefaultExtractionConfig(root string) Config {
	return Config{
		Name:       ExtractionName,
		Dir:        filepath.Join(root, ExtractionName),
		Enabled:    true,
		DefaultTTL: DefaultExtractionTTL,
		HotEntries: 128,
	}
}

// DefaultEmbeddingConfig returns the embedding cache config under root.
func DefaultEmbeddingConfig(root string) Config {
	return Config{
		Name:       EmbeddingName,
		Dir:        filepath.Join(root, EmbeddingName),
		Enabled:    true,
		DefaultTTL: DefaultEmbeddingTTL,
		HotEntries: 1024,
	}
}

// DefaultQueryConfig returns the query cache config under root.
func DefaultQueryConfig(root string) Config {
	return Config{
		Name:       QueryName,
		Dir:        filepath.Join(root, QueryName),
		Enabled:    true,
		DefaultTTL: DefaultQueryTTL,
		MaxEntries: 1000,
		HotEntries: 256,
	}
}
