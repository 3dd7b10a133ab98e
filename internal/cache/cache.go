// Package cache implements the query result cache from spec §4.9,
// grounded on original_source/src/utils/cache.py's QueryCache (LRU +
// TTL, SHA-256 canonical-JSON key) and go-enhanced-rag-service's
// pkg/cache idiom of a small Cache interface with in-memory/Redis
// implementations. LRU ordering is delegated to
// hashicorp/golang-lru/v2 instead of hand-rolling an OrderedDict.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	result    []byte
	storedAt  time.Time
}

// Stats mirrors QueryCache.get_stats (spec §4.9).
type Stats struct {
	Size    int
	MaxSize int
	Hits    int64
	Misses  int64
	HitRate float64
	TTL     time.Duration
}

// QueryCache is a thread-safe LRU cache of search results keyed on the
// canonical (query, filters) pair. Eviction is LRU-on-overflow (oldest
// accessed entry, not insertion order); expiry is TTL-on-read (spec
// §4.9). CleanupExpired sweeps all expired entries when called; nothing
// in this package calls it on a schedule.
type QueryCache struct {
	mu      sync.Mutex
	lru     *lru.Cache[string, entry]
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64
}

func New(maxSize int, ttl time.Duration) (*QueryCache, error) {
	if maxSize <= 0 {
		maxSize = 1000
	}
	l, err := lru.New[string, entry](maxSize)
	if err != nil {
		return nil, err
	}
	return &QueryCache{lru: l, maxSize: maxSize, ttl: ttl}, nil
}

// Key derives the cache key from a query and its metadata filters,
// serializing to canonical (sorted-key) JSON before hashing (spec §4.9,
// ported from cache.py's _generate_key).
func Key(query string, filters map[string]interface{}) string {
	payload := struct {
		Query   string                 `json:"query"`
		Filters map[string]interface{} `json:"filters"`
	}{Query: query, Filters: canonicalize(filters)}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// canonicalize returns filters unchanged if non-nil, else an empty map,
// matching cache.py's `filters or {}`. encoding/json already sorts map
// keys when marshaling, so no further normalization is needed.
func canonicalize(filters map[string]interface{}) map[string]interface{} {
	if filters == nil {
		return map[string]interface{}{}
	}
	return filters
}

// Get returns the cached result for key, or (nil, false) on a miss or
// an expired entry (which is evicted as a side effect).
func (c *QueryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.storedAt) > c.ttl {
		c.lru.Remove(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.result, true
}

// Set stores result under key, evicting the least-recently-used entry
// if the cache is at capacity (handled internally by golang-lru).
func (c *QueryCache) Set(key string, result []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry{result: result, storedAt: time.Now()})
}

// Invalidate drops one key, a no-op if absent.
func (c *QueryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Clear empties the cache and resets hit/miss counters (spec §4.9).
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.hits = 0
	c.misses = 0
}

// CleanupExpired sweeps all entries and removes those past their TTL,
// for use by a background janitor independent of read-time expiry.
func (c *QueryCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return 0
	}
	now := time.Now()
	var expired []string
	for _, k := range c.lru.Keys() {
		if e, ok := c.lru.Peek(k); ok && now.Sub(e.storedAt) > c.ttl {
			expired = append(expired, k)
		}
	}
	sort.Strings(expired)
	for _, k := range expired {
		c.lru.Remove(k)
	}
	return len(expired)
}

// StatsSnapshot returns current size/hit-rate statistics (spec §4.9).
func (c *QueryCache) StatsSnapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
		TTL:     c.ttl,
	}
}
