package productboard

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry pairs a cached value with its expiry deadline.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a bounded store for API read results. Capacity is enforced by
// LRU eviction (least recently accessed entry dropped first) and entries
// additionally expire after their TTL; either condition makes an entry
// unavailable.
type Cache struct {
	entries    *lru.Cache[string, cacheEntry]
	defaultTTL time.Duration
	capacity   int
}

// CacheStats reports the current cache occupancy.
type CacheStats struct {
	Size     int `json:"size"`
	Capacity int `json:"capacity"`
}

// NewCache creates a cache holding at most capacity entries, each expiring
// after defaultTTL unless Set is given an explicit TTL.
func NewCache(capacity int, defaultTTL time.Duration) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	// lru.New only fails for non-positive sizes, which are clamped above
	entries, _ := lru.New[string, cacheEntry](capacity)
	return &Cache{
		entries:    entries,
		defaultTTL: defaultTTL,
		capacity:   capacity,
	}
}

// GenerateKey builds a deterministic cache key from a method name and its
// parameters. Nil parameters are dropped and keys are sorted, so two
// semantically equal parameter sets always produce the same key regardless
// of map order or null noise. The method name acts as a namespace prefix
// for InvalidatePrefix.
func GenerateKey(name string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(":{")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(canonicalJSON(k))
		b.WriteByte(':')
		b.Write(canonicalJSON(params[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// canonicalJSON serialises a value deterministically: map keys are sorted
// recursively so iteration order never leaks into the output.
func canonicalJSON(v any) []byte {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, canonicalJSON(k)...)
			out = append(out, ':')
			out = append(out, canonicalJSON(val[k])...)
		}
		return append(out, '}')
	case []any:
		out := []byte{'['}
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, canonicalJSON(item)...)
		}
		return append(out, ']')
	default:
		data, err := json.Marshal(v)
		if err != nil {
			// Unmarshalable values (channels etc.) never appear in tool
			// parameters; degrade to a stable placeholder rather than panic
			return []byte(`"?"`)
		}
		return data
	}
}

// Get returns the cached value for key. Expired entries are treated as
// absent even if not yet evicted, and are removed on access.
func (c *Cache) Get(key string) (any, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value under key, overwriting any existing entry. A ttl of
// zero uses the cache default. Inserting beyond capacity evicts the least
// recently used entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries.Add(key, cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
}

// Wrap returns the cached value for key if present and unexpired,
// otherwise invokes compute, stores the result, and returns it.
//
// There is deliberately no per-key mutual exclusion: concurrent callers
// for the same key may each run compute and overwrite one another, which
// is acceptable for idempotent API reads.
func (c *Cache) Wrap(key string, compute func() (any, error)) (any, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}

	c.Set(key, value, 0)
	return value, nil
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed. Used to drop a whole result family after a
// mutation, e.g. all "feature_list:" entries after a feature update.
func (c *Cache) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			if c.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

// Delete removes a single entry. Idempotent.
func (c *Cache) Delete(key string) {
	c.entries.Remove(key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Stats returns the current size and configured capacity.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Size:     c.entries.Len(),
		Capacity: c.capacity,
	}
}
