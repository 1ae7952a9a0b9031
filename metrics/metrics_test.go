package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.CacheHit("extraction")
		r.CacheMiss("extraction")
		r.CacheEviction("extraction")
		r.FallbackAttempt("pdf", OutcomeAccepted, time.Second)
		r.File(StatusProcessed)
	})
}

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.CacheHit("extraction")
	r.CacheHit("extraction")
	r.CacheMiss("embedding")
	r.CacheEviction("query")
	r.FallbackAttempt("pdf", OutcomeBelow, 20*time.Millisecond)
	r.FallbackAttempt("pdf", OutcomeBelow, 30*time.Millisecond)
	r.File(StatusDuplicate)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("extraction", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("embedding", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheEvictions.WithLabelValues("query")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.fallbackAttempts.WithLabelValues("pdf", OutcomeBelow)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.files.WithLabelValues(StatusDuplicate)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNewRecorder_NilRegisterer(t *testing.T) {
	r := NewRecorder(nil)
	r.File(StatusFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.files.WithLabelValues(StatusFailed)))
}
