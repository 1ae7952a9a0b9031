package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docingest/extract"
)

func TestDecodeString(t *testing.T) {
	tests := map[string]string{
		`plain`:       "plain",
		`a\(b\)`:      "a(b)",
		`tab\there`:   "tab\there",
		`oct\101\102`: "octAB",
		`space\040x`:  "space x",
		`back\\slash`: `back\slash`,
		`short\7`:     "short\a",
		`trailing\`:   `trailing\`,
	}
	for in, want := range tests {
		assert.Equal(t, want, decodeString([]byte(in)), in)
	}
}

func TestStreamText_Lines(t *testing.T) {
	stream := `BT
/F1 12 Tf
72 720 Td
(Hello) Tj
0 -14 Td
(World) Tj
ET`
	assert.Equal(t, "Hello\nWorld", streamText([]byte(stream)))
}

func TestStreamText_TableLayout(t *testing.T) {
	stream := `BT
72 700 Td
(Item) Tj
100 0 Td
(Price) Tj
-100 -14 Td
[(Ap) 20 (ple) -400 (1.20)] TJ
T*
[(Pear) -300 (2.50)] TJ
ET`
	text := streamText([]byte(stream))
	assert.Equal(t, "Item   Price\nApple   1.20\nPear   2.50", text)

	table, ok := extract.ParseTable(text)
	require.True(t, ok)
	assert.Equal(t, []string{"Item", "Price"}, table.Headers)
	assert.Equal(t, [][]string{{"Apple", "1.20"}, {"Pear", "2.50"}}, table.Rows)
}

func TestStreamText_QuoteOperator(t *testing.T) {
	stream := "BT\n(first) Tj\n(second) '\nET"
	assert.Equal(t, "first\nsecond", streamText([]byte(stream)))
}

func TestEngine_Descriptors(t *testing.T) {
	e := New(0)
	assert.Equal(t, Name, e.Name())
	assert.Equal(t, DefaultPriority, e.Priority())
	assert.Contains(t, e.Version(), "pdfcpu")
	assert.True(t, e.IsAvailable())
	assert.True(t, extract.Supports(e, "x.PDF"))
	assert.False(t, extract.Supports(e, "x.txt"))
}

func TestEngine_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := New(0).Extract(context.Background(), path)
	require.Error(t, err)
}

func TestEngine_MissingFile(t *testing.T) {
	_, err := New(0).Extract(context.Background(), filepath.Join(t.TempDir(), "none.pdf"))
	require.Error(t, err)
}
