package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestExtractionCache(t *testing.T) {
	root := t.TempDir()
	c, err := NewExtractionCache(DefaultExtractionConfig(root))
	require.NoError(t, err)

	result := &core.ExtractionResult{
		Engine:  "pdf",
		Headers: []string{"item", "price"},
		Records: []core.Record{{Values: map[string]string{"item": "tea", "price": "$3"}}},
	}
	opts := map[string]string{"pages": "all", "ocr": "false"}

	require.NoError(t, c.Set(testHash, "sequential:pdf@1", opts, result))

	got, ok := c.Get(testHash, "sequential:pdf@1", map[string]string{"ocr": "false", "pages": "all"})
	require.True(t, ok, "option order must not matter")
	assert.Equal(t, result.Records, got.Records)

	_, ok = c.Get(testHash, "sequential:html@1", opts)
	assert.False(t, ok, "engine identity is part of the key")

	assert.True(t, c.InvalidateHash(testHash, "sequential:pdf@1", opts))
	_, ok = c.Get(testHash, "sequential:pdf@1", opts)
	assert.False(t, ok)

	assert.Equal(t, ExtractionName, c.Name())
	assert.DirExists(t, filepath.Join(root, ExtractionName))
}

func TestExtractionCache_InvalidateByPath(t *testing.T) {
	c, err := NewExtractionCache(DefaultExtractionConfig(t.TempDir()))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("test"), 0644))

	require.NoError(t, c.Set(testHash, "e", nil, &core.ExtractionResult{Engine: "e"}))
	removed, err := c.Invalidate(path, "e", nil)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = c.Invalidate(filepath.Join(t.TempDir(), "missing"), "e", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestEmbeddingCache(t *testing.T) {
	c, err := NewEmbeddingCache(DefaultEmbeddingConfig(t.TempDir()))
	require.NoError(t, err)

	vec := []float32{0.1, 0.2, 0.3}
	require.NoError(t, c.Set(testHash, "model-a", vec))

	got, ok := c.Get(testHash, "model-a")
	require.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok = c.Get(testHash, "model-b")
	assert.False(t, ok, "switching models must miss")

	calls := 0
	computed, hit, err := c.GetOrCompute(testHash, "model-b", func() ([]float32, error) {
		calls++
		return []float32{9}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []float32{9}, computed)

	_, hit, err = c.GetOrCompute(testHash, "model-b", func() ([]float32, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)
	assert.True(t, c.Has(testHash, "model-b"))
}

func TestQueryCache(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultQueryConfig(t.TempDir())
	c, err := NewQueryCache(cfg, WithClock(clock.Now))
	require.NoError(t, err)

	hits := []core.SearchHit{{Source: "a.pdf", Score: 0.9}}
	filters := map[string]string{"type": "pdf", "year": "2024"}
	require.NoError(t, c.Set("  Quarterly   REVENUE ", filters, 5, hits))

	got, ok := c.Get("quarterly revenue", map[string]string{"year": "2024", "type": "pdf"}, 5)
	require.True(t, ok)
	assert.Equal(t, hits, got)

	_, ok = c.Get("quarterly revenue", filters, 10)
	assert.False(t, ok, "k is part of the key")

	t.Run("invalidate by age", func(t *testing.T) {
		clock.Advance(3 * time.Hour)
		require.NoError(t, c.Set("fresh", nil, 5, hits))

		assert.Equal(t, 1, c.InvalidateByAge(2))
		_, ok := c.Get("fresh", nil, 5)
		assert.True(t, ok)
	})

	t.Run("invalidate by source clears everything", func(t *testing.T) {
		require.NoError(t, c.Set("another", nil, 1, hits))
		assert.Equal(t, 2, c.InvalidateBySource("unrelated.docx"))
		assert.Equal(t, 0, c.Stats().TotalEntries)
	})
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeQuery("  Hello\t\nWORLD "))
	assert.Equal(t, "", NormalizeQuery("   "))
}
