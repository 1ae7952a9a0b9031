package office

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docingest/extract"
)

func writeDoc(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))
	return path
}

func TestEngine_Extract(t *testing.T) {
	var gotMime string
	e := New(0, WithConverter(func(r io.Reader, mimeType string) (string, error) {
		gotMime = mimeType
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "binary", string(data))
		return "\nCity\tPopulation\nOslo\t709000\nBergen\t291000\n", nil
	}))

	result, err := e.Extract(context.Background(), writeDoc(t, "cities.docx"))
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", gotMime)
	assert.Equal(t, []string{"City", "Population"}, result.Headers)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "291000", result.Records[1].Values["Population"])
	assert.Equal(t, Name, result.Engine)
}

func TestEngine_ConvertError(t *testing.T) {
	boom := errors.New("boom")
	e := New(0, WithConverter(func(io.Reader, string) (string, error) { return "", boom }))

	_, err := e.Extract(context.Background(), writeDoc(t, "x.docx"))
	require.ErrorIs(t, err, boom)
}

func TestEngine_Supports(t *testing.T) {
	e := New(0)
	assert.True(t, e.IsAvailable())
	assert.True(t, extract.Supports(e, "a.DOCX"))
	assert.True(t, extract.Supports(e, "a.odt"))
	assert.False(t, extract.Supports(e, "a.pdf"))

	none := New(0, WithExtensions())
	assert.False(t, none.IsAvailable())
}
