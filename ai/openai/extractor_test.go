package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableResponse(t *testing.T) {
	t.Run("fenced reply", func(t *testing.T) {
		raw := "```json\n{\"headers\":[\"Item\",\"Price\"],\"rows\":[[\"Tea\",\"$3\"]],\"confidence\":0.9}\n```"
		table, err := parseTableResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.Headers)
		assert.Equal(t, [][]string{{"Tea", "$3"}}, table.Rows)
		assert.Equal(t, 0.9, table.Confidence)
	})

	t.Run("ragged rows fitted to headers", func(t *testing.T) {
		raw := `{"headers":["a","b"],"rows":[["1"],["2","3","4"],[]],"confidence":3}`
		table, err := parseTableResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"1", ""}, {"2", "3"}}, table.Rows)
		assert.Equal(t, 1.0, table.Confidence)
	})

	t.Run("missing key quote repaired", func(t *testing.T) {
		raw := `{"headers":["a"], rows":[["1"]], "confidence":0.5}`
		table, err := parseTableResponse(raw)
		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseTableResponse("I could not find a table.")
		assert.Error(t, err)
	})
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid input unchanged", `{"rows": []}`, `{"rows": []}`},
		{"missing opening quote", `{"headers": [], rows": []}`, `{"headers": [], "rows": []}`},
		{"after brace", `{ confidence": 1}`, `{ "confidence": 1}`},
		{"trailing comma", `{"rows": [["a", "b",],]}`, `{"rows": [["a", "b"]]}`},
		{"comma inside string kept", `{"headers": ["a,]"]}`, `{"headers": ["a,]"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestTextUtils(t *testing.T) {
	assert.Equal(t, "a\n\nb", normalizeSpace("  a  \n\n\n\nb\t\n"))
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "hi", truncateRunes("hi", 10))
	assert.Equal(t, strings.Repeat("x", 5), truncateRunes(strings.Repeat("x", 5), 0))
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt()
	assert.Contains(t, prompt, `"headers"`)
	assert.NotContains(t, prompt, "%s")
}
