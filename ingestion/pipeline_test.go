package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/poiesic/docingest/ai/mock"
	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/dedup"
	"github.com/poiesic/docingest/extract"
	"github.com/poiesic/docingest/extract/mock"
	"github.com/poiesic/docingest/fallback"
	"github.com/poiesic/docingest/metrics"
	"github.com/poiesic/docingest/storage/jsonfile"
)

type fixedScorer float64

func (s fixedScorer) Assess(*core.ExtractionResult) core.QualityScore {
	return core.QualityScore{Total: float64(s), Grade: core.GradeFor(float64(s))}
}

// env wires an orchestrator over temp directories.
type env struct {
	t          *testing.T
	root       string
	src        string
	engine     *mock.MockEngine
	strategy   *fallback.Strategy
	dedup      *dedup.Deduplicator
	extraction *cache.ExtractionCache
	embeddings *cache.EmbeddingCache
	embedder   *aimock.MockEmbedder
}

// newEnv creates an engine that fails on any file containing "bad" and
// produces one record per line otherwise.
func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	engine := mock.NewMockEngine("lines", 1)
	engine.ExtractFunc = func(_ context.Context, path string) (*core.ExtractionResult, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.Contains(string(data), "bad") {
			return nil, errors.New("unparseable")
		}
		result := &core.ExtractionResult{Engine: "lines", Text: string(data), Records: []core.Record{}}
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			result.Records = append(result.Records, core.Record{Values: map[string]string{"line": line}})
		}
		return result, nil
	}

	strategy, err := fallback.New([]extract.Engine{engine}, fixedScorer(90), fallback.DefaultConfig())
	require.NoError(t, err)

	e := &env{t: t, root: root, src: src, engine: engine, strategy: strategy, embedder: aimock.NewMockEmbedder()}
	e.dedup = e.openDedup()

	e.extraction, err = cache.NewExtractionCache(cache.DefaultExtractionConfig(filepath.Join(root, "cache")))
	require.NoError(t, err)
	e.embeddings, err = cache.NewEmbeddingCache(cache.DefaultEmbeddingConfig(filepath.Join(root, "cache")))
	require.NoError(t, err)
	return e
}

func (e *env) openDedup() *dedup.Deduplicator {
	repo, err := jsonfile.Open(filepath.Join(e.root, "history.json"))
	require.NoError(e.t, err)
	d, err := dedup.New(repo)
	require.NoError(e.t, err)
	return d
}

func (e *env) write(name, content string) string {
	path := filepath.Join(e.src, name)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *env) orchestrator(opts ...Option) *Orchestrator {
	opts = append([]Option{WithEmbeddings(e.embeddings, e.embedder, aimock.MockModel, 0)}, opts...)
	o, err := NewOrchestrator(e.dedup, e.strategy, e.extraction, opts...)
	require.NoError(e.t, err)
	return o
}

func TestNewOrchestrator_RequiredDependencies(t *testing.T) {
	e := newEnv(t)

	_, err := NewOrchestrator(nil, e.strategy, e.extraction)
	require.ErrorIs(t, err, ErrDeduplicatorRequired)
	_, err = NewOrchestrator(e.dedup, nil, e.extraction)
	require.ErrorIs(t, err, ErrExtractorRequired)
	_, err = NewOrchestrator(e.dedup, e.strategy, nil)
	require.ErrorIs(t, err, ErrExtractionCacheRequired)
	_, err = NewOrchestrator(e.dedup, e.strategy, e.extraction, WithEmbeddings(nil, nil, "m", 0))
	require.Error(t, err)
}

func TestIngest_PartialFailure(t *testing.T) {
	e := newEnv(t)
	e.write("file1.txt", "alpha\nbeta")
	e.write("file2.txt", "bad bytes")
	e.write("file3.txt", "gamma")

	result, err := e.orchestrator().Ingest(context.Background(), e.src, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, 1, result.FailedCount())
	assert.Equal(t, "file2.txt", result.Errors[0].ItemName)
	assert.ErrorIs(t, result.Errors[0].Err, core.ErrAllBackendsFailed)
	assert.Contains(t, result.Errors[0].Message, "all backends failed")
	assert.Equal(t, 3, result.TotalRecordsProduced)
	assert.NotEmpty(t, result.BatchID)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "file1.txt", result.Documents[0].Name)
	assert.Equal(t, "file3.txt", result.Documents[1].Name)
	assert.Len(t, result.Documents[0].Vector, aimock.DefaultDimension)

	// The failed file is not registered, so it will be retried.
	assert.Equal(t, 2, e.dedup.Len())
}

func TestIngest_SkipsDuplicates(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "same bytes")
	e.write("nested/copy.txt", "same bytes")
	e.write("b.txt", "other bytes")

	o := e.orchestrator()
	result, err := o.Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, 1, result.SkippedDuplicateCount)

	again, err := o.Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 0, again.ProcessedCount)
	assert.Equal(t, 3, again.SkippedDuplicateCount)
	assert.Equal(t, 2, e.engine.CallCount())
}

func TestIngest_ForceServesFromCache(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "one")
	e.write("b.txt", "two")

	o := e.orchestrator()
	_, err := o.Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	engineCalls, embedCalls := e.engine.CallCount(), e.embedder.CallCount()

	result, err := o.Ingest(context.Background(), e.src, true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, 0, result.SkippedDuplicateCount)
	assert.Equal(t, 2, result.ExtractionCacheHits)
	assert.Equal(t, 2, result.EmbeddingCacheHits)
	assert.Equal(t, engineCalls, e.engine.CallCount())
	assert.Equal(t, embedCalls, e.embedder.CallCount())
	assert.True(t, result.Documents[0].ExtractionCacheHit)
}

func TestIngest_RegistersCacheHits(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "one")

	_, err := e.orchestrator().Ingest(context.Background(), e.src, false)
	require.NoError(t, err)

	// A fresh history with warm caches: the file is processed from cache and
	// still recorded as seen.
	require.NoError(t, os.Remove(filepath.Join(e.root, "history.json")))
	e.dedup = e.openDedup()
	require.Equal(t, 0, e.dedup.Len())

	result, err := e.orchestrator().Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExtractionCacheHits)
	assert.Equal(t, 1, e.dedup.Len())
}

func TestIngest_EmbeddingLookupOnly(t *testing.T) {
	e := newEnv(t)
	path := e.write("a.txt", "one")
	hash, err := dedup.ComputeHash(path)
	require.NoError(t, err)
	require.NoError(t, e.embeddings.Set(hash, "external", []float32{1, 2}))

	o, err := NewOrchestrator(e.dedup, e.strategy, e.extraction, WithEmbeddings(e.embeddings, nil, "external", 0))
	require.NoError(t, err)

	result, err := o.Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmbeddingCacheHits)
	assert.Equal(t, []float32{1, 2}, result.Documents[0].Vector)
	assert.Equal(t, 0, e.embedder.CallCount())
}

func TestIngest_EmbeddingFailureIsPerFile(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "one")
	e.write("b.txt", "two")
	e.embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if text == "one" {
			return nil, errors.New("embedding service down")
		}
		return []float32{1}, nil
	}

	result, err := e.orchestrator().Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "a.txt", result.Errors[0].ItemName)
	assert.Equal(t, 1, e.dedup.Len())
}

func TestIngest_SourceDirErrors(t *testing.T) {
	e := newEnv(t)
	file := e.write("a.txt", "x")
	o := e.orchestrator()

	_, err := o.Ingest(context.Background(), filepath.Join(e.root, "missing"), false)
	require.ErrorIs(t, err, ErrSourceDir)

	_, err = o.Ingest(context.Background(), file, false)
	require.ErrorIs(t, err, ErrSourceDir)
}

func TestIngest_EmptyDirectory(t *testing.T) {
	e := newEnv(t)
	result, err := e.orchestrator().Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 0, result.FailedCount())
}

func TestIngestFiles_MissingFile(t *testing.T) {
	e := newEnv(t)
	result, err := e.orchestrator().IngestFiles(context.Background(), []string{filepath.Join(e.src, "gone.txt")}, false)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0].Err, core.ErrNotFound)
}

func TestIngest_Cancelled(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "one")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.orchestrator().Ingest(ctx, e.src, false)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 0, e.engine.CallCount())
}

type countingProgress struct {
	mu       sync.Mutex
	total    int
	started  bool
	count    int
	finished bool
}

func (p *countingProgress) Start()  { p.started = true }
func (p *countingProgress) Finish() { p.finished = true }
func (p *countingProgress) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count += delta
}

func TestIngest_ProgressAndMetrics(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "one")
	e.write("b.txt", "bad")
	e.write("c.txt", "one")

	progress := &countingProgress{}
	rec := metrics.NewRecorder(prometheus.NewRegistry())
	o := e.orchestrator(
		WithProgress(func(total int) Progress {
			progress.total = total
			return progress
		}),
		WithMetrics(rec),
	)

	_, err := o.Ingest(context.Background(), e.src, false)
	require.NoError(t, err)

	assert.True(t, progress.started)
	assert.True(t, progress.finished)
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.count)

	files := rec.Files()
	assert.Equal(t, 1.0, testutil.ToFloat64(files.WithLabelValues(metrics.StatusProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(files.WithLabelValues(metrics.StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(files.WithLabelValues(metrics.StatusDuplicate)))
}

func TestIngest_ExtensionFilter(t *testing.T) {
	e := newEnv(t)
	e.write("a.txt", "one")
	e.write("b.pdf", "two")

	result, err := e.orchestrator(WithExtensions("TXT", "")).Ingest(context.Background(), e.src, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, "a.txt", result.Documents[0].Name)
}
