package policy

import (
	"sync"
	"time"
)

// SnapshotCache holds the rendered active-policy texts for a short TTL.
// Thread-safe implementation using sync.RWMutex
type SnapshotCache struct {
	mu         sync.RWMutex
	texts      []string
	loadedAt   time.Time
	valid      bool
	generation uint64 // bumped on every invalidation
	ttl        time.Duration
	hits       uint64
	misses     uint64
	now        func() time.Time
}

// NewSnapshotCache creates a new SnapshotCache with the specified TTL.
// A non-positive TTL disables caching.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns a copy of the cached snapshot and the generation it was read at.
// ok is false when the cache is empty or expired.
func (c *SnapshotCache) Get() (texts []string, generation uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.ttl <= 0 || c.now().Sub(c.loadedAt) > c.ttl {
		c.misses++
		return nil, c.generation, false
	}

	c.hits++
	return copyTexts(c.texts), c.generation, true
}

// Set stores a snapshot loaded at generation.
// A snapshot loaded before the latest invalidation is discarded.
func (c *SnapshotCache) Set(generation uint64, texts []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.ttl <= 0 {
		return false
	}

	c.texts = copyTexts(texts)
	c.loadedAt = c.now()
	c.valid = true
	return true
}

// Invalidate drops the cached snapshot
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.texts = nil
	c.valid = false
	c.generation++
}

// Stats returns cache statistics
func (c *SnapshotCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	size := 0
	if c.valid {
		size = len(c.texts)
	}

	return CacheStats{
		Size:       size,
		Generation: c.generation,
		Hits:       c.hits,
		Misses:     c.misses,
		HitRate:    c.calculateHitRate(),
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size       int
	Generation uint64
	Hits       uint64
	Misses     uint64
	HitRate    float64
}

// calculateHitRate calculates the cache hit rate (must be called with lock held)
func (c *SnapshotCache) calculateHitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

func copyTexts(texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}
