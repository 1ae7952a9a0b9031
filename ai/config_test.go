package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ExtractorHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ExtractorModel)
	assert.Equal(t, "none", cfg.Token)
	assert.Equal(t, 12000, cfg.MaxInputChars)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ExtractorHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithExtractorHost("http://extract:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://extract:9090/v1", cfg.ExtractorHost)
	})

	t.Run("with custom models and token", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithExtractorModel("gpt-4o-mini"),
			WithToken("sk-test"),
			WithMaxInputChars(500),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.ExtractorModel)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, 500, cfg.MaxInputChars)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, ExtractorHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.ExtractorHost)
			assert.Equal(t, "none", cfg.Token)
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }},
		{"missing extractor host", func(c *Config) { c.ExtractorHost = "" }},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"missing extractor model", func(c *Config) { c.ExtractorModel = "" }},
		{"non-positive input bound", func(c *Config) { c.MaxInputChars = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExtractedTableEmpty(t *testing.T) {
	var nilTable *ExtractedTable
	assert.True(t, nilTable.Empty())
	assert.True(t, (&ExtractedTable{Headers: []string{"a"}}).Empty())
	assert.False(t, (&ExtractedTable{Rows: [][]string{{"1"}}}).Empty())
}
