// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus counters for the ingestion core.
//
// A nil *Recorder is valid and records nothing, so components can take an
// optional recorder without branching.
//
// Metrics:
//   - docingest_cache_requests_total{cache,result} - cache lookups by hit/miss
//   - docingest_cache_evictions_total{cache} - LRU evictions
//   - docingest_fallback_attempts_total{engine,outcome} - engine invocations
//   - docingest_files_total{status} - files seen by the orchestrator
//   - docingest_engine_duration_seconds{engine} - engine call latency
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallback attempt outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeBelow    = "below_threshold"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"

	// OutcomeUnavailable marks an engine skipped without being invoked.
	// It never reaches the attempts counter.
	OutcomeUnavailable = "unavailable"
)

// File statuses.
const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"
)

// Recorder holds the Prometheus collectors.
type Recorder struct {
	cacheRequests    *prometheus.CounterVec
	cacheEvictions   *prometheus.CounterVec
	fallbackAttempts *prometheus.CounterVec
	files            *prometheus.CounterVec
	engineDuration   *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors, which is handy in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docingest_cache_requests_total",
				Help: "Total number of cache lookups",
			},
			[]string{"cache", "result"}, // "hit" or "miss"
		),
		cacheEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docingest_cache_evictions_total",
				Help: "Total number of LRU evictions",
			},
			[]string{"cache"},
		),
		fallbackAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docingest_fallback_attempts_total",
				Help: "Total number of extraction engine invocations",
			},
			[]string{"engine", "outcome"},
		),
		files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docingest_files_total",
				Help: "Total number of files seen during ingestion",
			},
			[]string{"status"},
		),
		engineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docingest_engine_duration_seconds",
				Help:    "Duration of extraction engine calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"engine"},
		),
	}
}

// CacheHit records a cache hit.
func (r *Recorder) CacheHit(cache string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss records a cache miss.
func (r *Recorder) CacheMiss(cache string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(cache, "miss").Inc()
}

// CacheEviction records an LRU eviction.
func (r *Recorder) CacheEviction(cache string) {
	if r == nil {
		return
	}
	r.cacheEvictions.WithLabelValues(cache).Inc()
}

// FallbackAttempt records one engine invocation and how long it took.
func (r *Recorder) FallbackAttempt(engine, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.fallbackAttempts.WithLabelValues(engine, outcome).Inc()
	r.engineDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

// File records a file outcome.
func (r *Recorder) File(status string) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(status).Inc()
}

// CacheRequests exposes the cache lookup counter, mainly for tests.
func (r *Recorder) CacheRequests() *prometheus.CounterVec { return r.cacheRequests }

// FallbackAttempts exposes the engine attempt counter, mainly for tests.
func (r *Recorder) FallbackAttempts() *prometheus.CounterVec { return r.fallbackAttempts }

// Files exposes the file outcome counter, mainly for tests.
func (r *Recorder) Files() *prometheus.CounterVec { return r.files }
