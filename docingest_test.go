package docingest

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docingest/ai/mock"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/config"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/dedup"
	"github.com/poiesic/docingest/extract"
	extractmock "github.com/poiesic/docingest/extract/mock"
	"github.com/poiesic/docingest/metrics"
)

const (
	partsCSV = "name,qty,bin\nbolts,4,A1\nnuts,9,A2\nwashers,30,B1\n"
	notesMD  = "# Stock\n\n| name | qty |\n|---|---|\n| gears | 2 |\n| chains | 5 |\n"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func sourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.csv":    partsCSV,
		"copy.csv": partsCSV,
		"notes.md": notesMD,
	})
	return dir
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(config.WithDataDir(t.TempDir()))
	cfg.Embedding.Enabled = true
	return cfg
}

func newPipeline(t *testing.T, cfg *config.Config, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithProvider(mock.NewMockProvider())}, opts...)
	p, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewRequiresValidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfigRequired)

	cfg := config.DefaultConfig()
	cfg.Dedup.Backend = "postgres"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestIngestDeduplicatesAndCaches(t *testing.T) {
	ctx := context.Background()
	dir := sourceDir(t)
	p := newPipeline(t, testConfig(t))

	first, err := p.Ingest(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ProcessedCount)
	assert.Equal(t, 1, first.SkippedDuplicateCount)
	assert.Zero(t, first.FailedCount())
	assert.Zero(t, first.ExtractionCacheHits)
	assert.Equal(t, 5, first.TotalRecordsProduced)
	for _, doc := range first.Documents {
		assert.NotEmpty(t, doc.Vector, doc.Name)
	}
	assert.Len(t, p.History(), 2)

	second, err := p.Ingest(ctx, dir, false)
	require.NoError(t, err)
	assert.Zero(t, second.ProcessedCount)
	assert.Equal(t, 3, second.SkippedDuplicateCount)

	forced, err := p.Ingest(ctx, dir, true)
	require.NoError(t, err)
	assert.Equal(t, 3, forced.ProcessedCount)
	assert.Equal(t, 3, forced.ExtractionCacheHits)
	assert.Equal(t, 3, forced.EmbeddingCacheHits)
}

func TestIngestReportsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.csv":    partsCSV,
		"blob.bin": "\x00\x01\x02",
	})
	p := newPipeline(t, testConfig(t))

	result, err := p.Ingest(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	require.Equal(t, 1, result.FailedCount())
	assert.Equal(t, "blob.bin", result.Errors[0].ItemName)
	assert.ErrorIs(t, result.Errors[0].Err, core.ErrAllBackendsFailed)
}

func TestIngestExtensionFilter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ingest.Extensions = []string{"md"}
	p := newPipeline(t, cfg)

	result, err := p.Ingest(context.Background(), sourceDir(t), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Zero(t, result.SkippedDuplicateCount)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	dir := sourceDir(t)
	p := newPipeline(t, testConfig(t))

	_, err := p.Ingest(ctx, dir, false)
	require.NoError(t, err)
	require.NoError(t, p.QueryCache().Set("bolts", nil, 5, []core.SearchHit{{Source: "a.csv", Score: 0.9}}))

	removed, err := p.Forget(ctx, filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok := p.QueryCache().Get("bolts", nil, 5)
	assert.False(t, ok, "query cache cleared")

	again, err := p.Ingest(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, again.ProcessedCount)
	assert.Equal(t, 2, again.SkippedDuplicateCount)
	assert.Zero(t, again.ExtractionCacheHits)
	assert.Zero(t, again.EmbeddingCacheHits)

	removed, err = p.Forget(ctx, filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = p.Forget(ctx, filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestForgetHashValidates(t *testing.T) {
	p := newPipeline(t, testConfig(t))
	_, err := p.ForgetHash(context.Background(), "not-a-hash")
	assert.ErrorIs(t, err, core.ErrInvalidHash)

	_, err = p.Forget(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestReembed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Embedding.Enabled = false
	provider := mock.NewMockProvider()

	// Ingest without embeddings, then warm the cache.
	p, err := New(cfg, WithProvider(provider))
	require.NoError(t, err)
	_, err = p.Ingest(ctx, sourceDir(t), false)
	require.NoError(t, err)
	_, err = p.Reembed(ctx, false, io.Discard)
	assert.ErrorIs(t, err, ErrEmbeddingsDisabled)
	require.NoError(t, p.Close())

	cfg.Embedding.Enabled = true
	p = newPipeline(t, cfg, WithProvider(provider))

	var out bytes.Buffer
	summary, err := p.Reembed(ctx, false, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Embedded)
	assert.Contains(t, out.String(), "Embedding 2 documents")

	summary, err = p.Reembed(ctx, false, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlreadyCached)
	assert.Zero(t, summary.Embedded)

	summary, err = p.Reembed(ctx, true, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Embedded)

	for _, rec := range p.History() {
		_, ok := p.embedding.Get(rec.ContentHash, mock.MockModel)
		assert.True(t, ok, rec.OriginalName)
	}
}

func TestBadgerHistorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := sourceDir(t)
	cfg := testConfig(t)
	cfg.Dedup.Backend = config.BackendBadger

	p, err := New(cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	first, err := p.Ingest(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ProcessedCount)
	require.NoError(t, p.Close())

	p = newPipeline(t, cfg)
	second, err := p.Ingest(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 3, second.SkippedDuplicateCount)
}

func TestEnginesAndCaches(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engines.PDF.Enabled = false
	p := newPipeline(t, cfg)

	descriptors := p.Engines()
	require.NotEmpty(t, descriptors)
	assert.Equal(t, "text", descriptors[0].Name)
	for _, d := range descriptors {
		assert.NotEqual(t, "pdf", d.Name)
		assert.NotEqual(t, "llm", d.Name)
	}

	assert.Len(t, p.Caches(), 3)
	for _, name := range []string{cache.ExtractionName, cache.EmbeddingName, cache.QueryName} {
		c, ok := p.Cache(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := p.Cache("nope")
	assert.False(t, ok)

	_, err := p.Ingest(context.Background(), sourceDir(t), false)
	require.NoError(t, err)
	c, _ := p.Cache(cache.ExtractionName)
	assert.Equal(t, 2, c.Stats().TotalEntries)
	assert.Equal(t, 2, c.Clear())
	assert.Zero(t, c.Stats().TotalEntries)
}

func TestLLMEngineUsesProviderExtractor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engines.LLM.Enabled = true
	p := newPipeline(t, cfg)

	names := make([]string, 0, len(p.Engines()))
	for _, d := range p.Engines() {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "llm")
}

func TestWithEnginesRejectsDuplicateNames(t *testing.T) {
	_, err := New(testConfig(t),
		WithProvider(mock.NewMockProvider()),
		WithEngines(extractmock.NewMockEngine("text", 9)))
	assert.ErrorIs(t, err, extract.ErrDuplicateEngine)
}

func TestWithEnginesAddsCandidates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"scan.tiff": "II*\x00"})

	engine := extractmock.NewMockEngine("ocr", 9)
	engine.Records = extractmock.Rows(8, "name", "qty")
	p := newPipeline(t, testConfig(t), WithEngines(engine))

	result, err := p.Ingest(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 1, engine.CallCount())
	assert.Equal(t, "ocr", result.Documents[0].Result.Engine)
}

func TestMetricsAndProgress(t *testing.T) {
	reg := prometheus.NewRegistry()
	var progress bytes.Buffer
	p := newPipeline(t, testConfig(t), WithRegisterer(reg), WithProgress(&progress))

	_, err := p.Ingest(context.Background(), sourceDir(t), false)
	require.NoError(t, err)

	files := p.Metrics().Files()
	assert.Equal(t, 2.0, testutil.ToFloat64(files.WithLabelValues(metrics.StatusProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(files.WithLabelValues(metrics.StatusDuplicate)))
	assert.Contains(t, progress.String(), "3/3")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHistoryRecordsHash(t *testing.T) {
	dir := sourceDir(t)
	p := newPipeline(t, testConfig(t))
	_, err := p.Ingest(context.Background(), dir, false)
	require.NoError(t, err)

	hash, err := dedup.ComputeHash(filepath.Join(dir, "a.csv"))
	require.NoError(t, err)
	var found bool
	for _, rec := range p.History() {
		if rec.ContentHash == hash {
			found = true
			assert.Equal(t, "a.csv", rec.OriginalName)
			assert.Equal(t, "text", rec.ExtraMetadata["engine"])
		}
	}
	assert.True(t, found)
}
