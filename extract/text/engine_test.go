package text

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docingest/extract"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngine_Descriptors(t *testing.T) {
	e := New(0)
	assert.Equal(t, Name, e.Name())
	assert.Equal(t, DefaultPriority, e.Priority())
	assert.True(t, e.IsAvailable())
	assert.Equal(t, 7, New(7).Priority())

	assert.True(t, extract.Supports(e, "a/b.CSV"))
	assert.True(t, extract.Supports(e, "notes.md"))
	assert.False(t, extract.Supports(e, "report.pdf"))
}

func TestEngine_CSV(t *testing.T) {
	path := writeFile(t, "prices.csv", "item,price\napple,1.20\npear,\"2,50\"\n")

	result, err := New(0).Extract(context.Background(), path)
	require.NoError(t, err)
	require.False(t, result.Failed())

	assert.Equal(t, []string{"item", "price"}, result.Headers)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "pear", result.Records[1].Values["item"])
	assert.Equal(t, "2,50", result.Records[1].Values["price"])
}

func TestEngine_TSVRaggedRows(t *testing.T) {
	path := writeFile(t, "data.tsv", "a\tb\tc\n1\t2\n")

	result, err := New(0).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, result.Records[0].Values)
}

func TestEngine_MarkdownTable(t *testing.T) {
	md := "# Report\n\n| name | qty |\n|------|-----|\n| bolt | 4 |\n| nut | 9 |\n\ntrailing prose\n"
	path := writeFile(t, "report.md", md)

	result, err := New(0).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "qty"}, result.Headers)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "9", result.Records[1].Values["qty"])
	assert.Equal(t, md, result.Text)
}

func TestEngine_PlainProse(t *testing.T) {
	path := writeFile(t, "notes.txt", "just a sentence\n")

	result, err := New(0).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, "just a sentence\n", result.Text)
}

func TestEngine_MissingFile(t *testing.T) {
	_, err := New(0).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestEngine_Cancelled(t *testing.T) {
	path := writeFile(t, "x.txt", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(0).Extract(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
}
