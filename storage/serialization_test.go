package storage

import (
	"testing"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestMarshalUnmarshalContentRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.ContentRecord{
		ContentHash:   testHash,
		OriginalName:  "a.txt",
		AbsolutePath:  "/data/a.txt",
		SizeBytes:     4,
		ProcessedAt:   now,
		ExtraMetadata: map[string]any{"engine": "text"},
	}

	data, err := MarshalContentRecord(record)
	require.NoError(t, err)

	decoded, err := UnmarshalContentRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record.OriginalName, decoded.OriginalName)
	assert.True(t, record.ProcessedAt.Equal(decoded.ProcessedAt))
	assert.Equal(t, "text", decoded.ExtraMetadata["engine"])
}

func TestUnmarshalContentRecord_Invalid(t *testing.T) {
	_, err := UnmarshalContentRecord([]byte("{not json"))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestUnmarshalHistory(t *testing.T) {
	t.Run("empty data yields empty table", func(t *testing.T) {
		records, err := UnmarshalHistory(nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("key wins over embedded hash", func(t *testing.T) {
		data, err := MarshalHistory(map[string]*core.ContentRecord{
			testHash: {ContentHash: "stale", OriginalName: "a.txt"},
		})
		require.NoError(t, err)

		records, err := UnmarshalHistory(data)
		require.NoError(t, err)
		require.Contains(t, records, testHash)
		assert.Equal(t, testHash, records[testHash].ContentHash)
	})

	t.Run("null entries are dropped", func(t *testing.T) {
		records, err := UnmarshalHistory([]byte(`{"abc": null}`))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("garbage is reported", func(t *testing.T) {
		_, err := UnmarshalHistory([]byte("]["))
		assert.ErrorIs(t, err, ErrEncoding)
	})
}
