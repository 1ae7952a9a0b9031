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

package cache

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/metrics"
	"golang.org/x/sync/singleflight"
)

const indexFile = "index.json"

// Config configures one TieredCache instance.
type Config struct {
	Name       string        // label used in logs and metrics
	Dir        string        // one directory per cache instance
	Enabled    bool          // false turns every operation into a no-op
	DefaultTTL time.Duration // used when Set is called without an override; <= 0 never expires
	MaxEntries int           // LRU bound on disk entries; 0 is unbounded
	HotEntries int           // in-memory tier size; 0 disables it
}

// EntryMeta is the index record kept for every entry.
type EntryMeta struct {
	Created   time.Time `json:"created"`
	Accessed  time.Time `json:"accessed"`
	TTLHours  float64   `json:"ttl_hours"`
	SizeBytes int64     `json:"size_bytes"`
}

// Expired reports whether the entry's TTL has lapsed at now.
func (m EntryMeta) Expired(now time.Time) bool {
	if m.TTLHours <= 0 {
		return false
	}
	ttl := time.Duration(m.TTLHours * float64(time.Hour))
	return now.Sub(m.Created) > ttl
}

// Stats is a snapshot of cache counters and size.
type Stats struct {
	Name         string  `json:"name"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	TotalEntries int     `json:"total_entries"`
	SizeBytes    int64   `json:"size_bytes"`
	Evictions    int64   `json:"evictions"`
}

// Option configures a TieredCache.
type Option func(*options) error

type options struct {
	logger   *slog.Logger
	now      func() time.Time
	recorder *metrics.Recorder
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for TTL and LRU bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithMetrics reports hits, misses, and evictions to r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) error {
		o.recorder = r
		return nil
	}
}

// TieredCache is a disk-persisted key/value store with per-entry TTL and
// LRU eviction, fronted by an in-memory hot tier.
//
// Each entry is one payload file in Config.Dir; index.json maps keys to
// their EntryMeta. Recency is tracked in the index rather than through file
// timestamps so it survives across processes.
//
// Values returned from the hot tier are shared; callers must not mutate
// them.
type TieredCache[V any] struct {
	cfg      Config
	codec    Codec[V]
	logger   *slog.Logger
	now      func() time.Time
	recorder *metrics.Recorder

	mu        sync.Mutex
	index     map[string]*EntryMeta
	hot       *expirable.LRU[string, V]
	hits      int64
	misses    int64
	evictions int64

	group singleflight.Group
}

// New creates a TieredCache and loads its index. A disabled cache touches
// nothing on disk. Failure to create the directory is returned as an error.
func New[V any](cfg Config, codec Codec[V], opts ...Option) (*TieredCache[V], error) {
	if codec == nil {
		return nil, ErrCodecRequired
	}
	o := &options{
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if cfg.Name == "" {
		cfg.Name = "cache"
	}

	c := &TieredCache[V]{
		cfg:      cfg,
		codec:    codec,
		logger:   o.logger.With("component", "cache", "cache", cfg.Name),
		now:      o.now,
		recorder: o.recorder,
		index:    make(map[string]*EntryMeta),
	}
	if !cfg.Enabled {
		return c, nil
	}
	if cfg.Dir == "" {
		return nil, ErrDirRequired
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if cfg.HotEntries > 0 {
		hotTTL := cfg.DefaultTTL
		if hotTTL < 0 {
			hotTTL = 0
		}
		c.hot = expirable.NewLRU[string, V](cfg.HotEntries, nil, hotTTL)
	}
	c.loadIndex()
	return c, nil
}

// Name returns the cache label.
func (c *TieredCache[V]) Name() string {
	return c.cfg.Name
}

// Enabled reports whether the cache does anything.
func (c *TieredCache[V]) Enabled() bool {
	return c.cfg.Enabled
}

// Get returns the value for key. Expired entries are removed and count as
// misses; an undecodable payload is deleted and counts as a miss.
func (c *TieredCache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.cfg.Enabled {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.index[key]
	if !ok {
		c.missLocked()
		return zero, false
	}

	now := c.now()
	if meta.Expired(now) {
		c.removeLocked(key)
		c.saveIndexLocked()
		c.missLocked()
		return zero, false
	}

	path := c.payloadPath(key)
	if c.hot != nil {
		if v, ok := c.hot.Get(key); ok {
			if _, err := os.Stat(path); err == nil {
				meta.Accessed = now
				c.saveIndexLocked()
				c.hitLocked()
				return v, true
			}
			c.hot.Remove(key)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("payload missing, pruning index entry", "key", key)
			delete(c.index, key)
			c.saveIndexLocked()
		} else {
			c.logger.Warn("failed to read payload", "key", key, "err", err)
		}
		c.missLocked()
		return zero, false
	}

	v, err := c.codec.Decode(data)
	if err != nil {
		c.logger.Warn("dropping entry", "key", key, "err", fmt.Errorf("%w: %w", core.ErrCacheCorrupt, err))
		c.removeLocked(key)
		c.saveIndexLocked()
		c.missLocked()
		return zero, false
	}

	if c.hot != nil {
		c.hot.Add(key, v)
	}
	meta.Accessed = now
	c.saveIndexLocked()
	c.hitLocked()
	return v, true
}

// Set stores value under key. ttl overrides Config.DefaultTTL for this
// entry; a non-positive override means the entry never expires. When the
// cache is full the least recently accessed entry is evicted first.
func (c *TieredCache[V]) Set(key string, value V, ttl ...time.Duration) error {
	if !c.cfg.Enabled {
		return nil
	}

	entryTTL := c.cfg.DefaultTTL
	if len(ttl) > 0 {
		entryTTL = ttl[0]
	}
	ttlHours := 0.0
	if entryTTL > 0 {
		ttlHours = entryTTL.Hours()
	}

	data, err := c.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", c.cfg.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[key]; !exists && c.cfg.MaxEntries > 0 {
		for len(c.index) >= c.cfg.MaxEntries {
			if !c.evictLocked() {
				break
			}
		}
	}

	if err := writeFileAtomic(c.payloadPath(key), data); err != nil {
		return fmt.Errorf("failed to write %s entry: %w", c.cfg.Name, err)
	}

	now := c.now()
	c.index[key] = &EntryMeta{
		Created:   now,
		Accessed:  now,
		TTLHours:  ttlHours,
		SizeBytes: int64(len(data)),
	}
	if c.hot != nil {
		c.hot.Add(key, value)
	}
	c.saveIndexLocked()
	return nil
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Concurrent callers for the same key share one load. The bool
// reports whether the value came from the cache.
func (c *TieredCache[V]) GetOrLoad(key string, load func() (V, error), ttl ...time.Duration) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	type loaded struct {
		value  V
		cached bool
	}
	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.peek(key); ok {
			return loaded{value: v, cached: true}, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, v, ttl...); err != nil {
			c.logger.Warn("failed to store loaded value", "key", key, "err", err)
		}
		return loaded{value: v}, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	l := res.(loaded)
	return l.value, l.cached, nil
}

// peek is Get without touching counters, used after a counted miss.
func (c *TieredCache[V]) peek(key string) (V, bool) {
	var zero V
	if !c.cfg.Enabled {
		return zero, false
	}
	c.mu.Lock()
	meta, ok := c.index[key]
	c.mu.Unlock()
	if !ok || meta.Expired(c.now()) {
		return zero, false
	}
	if c.hot != nil {
		if v, ok := c.hot.Get(key); ok {
			return v, true
		}
	}
	data, err := os.ReadFile(c.payloadPath(key))
	if err != nil {
		return zero, false
	}
	v, err := c.codec.Decode(data)
	if err != nil {
		return zero, false
	}
	return v, true
}

// Delete removes key. Reports whether an entry existed.
func (c *TieredCache[V]) Delete(key string) bool {
	if !c.cfg.Enabled {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[key]; !ok {
		return false
	}
	c.removeLocked(key)
	c.saveIndexLocked()
	return true
}

// Exists reports whether key holds a live entry. Counters are untouched.
func (c *TieredCache[V]) Exists(key string) bool {
	if !c.cfg.Enabled {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.index[key]
	if !ok || meta.Expired(c.now()) {
		return false
	}
	_, err := os.Stat(c.payloadPath(key))
	return err == nil
}

// Clear removes every entry and returns how many there were.
func (c *TieredCache[V]) Clear() int {
	if !c.cfg.Enabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.index)
	for key := range c.index {
		c.removeLocked(key)
	}
	if c.hot != nil {
		c.hot.Purge()
	}
	c.saveIndexLocked()
	c.logger.Info("cache cleared", "entries", count)
	return count
}

// CleanupExpired removes every entry whose TTL has lapsed.
func (c *TieredCache[V]) CleanupExpired() int {
	now := c.now()
	return c.DeleteWhere(func(_ string, meta EntryMeta) bool {
		return meta.Expired(now)
	})
}

// DeleteWhere removes every entry for which match returns true.
func (c *TieredCache[V]) DeleteWhere(match func(key string, meta EntryMeta) bool) int {
	if !c.cfg.Enabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, meta := range c.index {
		if match(key, *meta) {
			c.removeLocked(key)
			removed++
		}
	}
	if removed > 0 {
		c.saveIndexLocked()
	}
	return removed
}

// Keys returns the indexed keys in sorted order.
func (c *TieredCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.index))
}

// EntryMeta returns the index record for key.
func (c *TieredCache[V]) EntryMeta(key string) (EntryMeta, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.index[key]
	if !ok {
		return EntryMeta{}, false
	}
	return *meta, true
}

// Stats returns a snapshot of the counters.
func (c *TieredCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Name:         c.cfg.Name,
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		TotalEntries: len(c.index),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	for _, meta := range c.index {
		s.SizeBytes += meta.SizeBytes
	}
	return s
}

func (c *TieredCache[V]) hitLocked() {
	c.hits++
	c.recorder.CacheHit(c.cfg.Name)
}

func (c *TieredCache[V]) missLocked() {
	c.misses++
	c.recorder.CacheMiss(c.cfg.Name)
}

// evictLocked removes the least recently accessed entry.
func (c *TieredCache[V]) evictLocked() bool {
	var victim string
	var oldest *EntryMeta
	for key, meta := range c.index {
		if oldest == nil || lessRecent(meta, oldest, key, victim) {
			victim, oldest = key, meta
		}
	}
	if oldest == nil {
		return false
	}
	c.removeLocked(victim)
	c.evictions++
	c.recorder.CacheEviction(c.cfg.Name)
	c.logger.Debug("evicted", "key", victim, "accessed", oldest.Accessed)
	return true
}

// lessRecent orders entries by access time, then creation time, then key.
func lessRecent(a, b *EntryMeta, aKey, bKey string) bool {
	if c := a.Accessed.Compare(b.Accessed); c != 0 {
		return c < 0
	}
	if c := a.Created.Compare(b.Created); c != 0 {
		return c < 0
	}
	return cmp.Less(aKey, bKey)
}

// removeLocked deletes the payload, index entry, and hot copy of key.
// The caller persists the index.
func (c *TieredCache[V]) removeLocked(key string) {
	if err := os.Remove(c.payloadPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("failed to remove payload", "key", key, "err", err)
	}
	delete(c.index, key)
	if c.hot != nil {
		c.hot.Remove(key)
	}
}

func (c *TieredCache[V]) payloadPath(key string) string {
	return filepath.Join(c.cfg.Dir, fileName(key))
}

func (c *TieredCache[V]) loadIndex() {
	data, err := os.ReadFile(filepath.Join(c.cfg.Dir, indexFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to read index, starting empty", "err", err)
		}
		return
	}
	index := make(map[string]*EntryMeta)
	if err := json.Unmarshal(data, &index); err != nil {
		c.logger.Warn("index unreadable, starting empty", "err", fmt.Errorf("%w: %w", core.ErrCacheCorrupt, err))
		return
	}
	for key, meta := range index {
		if meta == nil {
			delete(index, key)
		}
	}
	c.index = index
	c.logger.Debug("index loaded", "entries", len(index))
}

// saveIndexLocked persists the index. Failures are logged; the in-memory
// index stays authoritative for this process.
func (c *TieredCache[V]) saveIndexLocked() {
	data, err := json.Marshal(c.index)
	if err != nil {
		c.logger.Error("failed to encode index", "err", err)
		return
	}
	if err := writeFileAtomic(filepath.Join(c.cfg.Dir, indexFile), data); err != nil {
		c.logger.Error("failed to write index", "err", err)
	}
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
