package productboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyDeterministic(t *testing.T) {
	a := GenerateKey("feature_list", map[string]any{
		"status.name": "In progress",
		"owner.email": "pm@example.com",
	})
	b := GenerateKey("feature_list", map[string]any{
		"owner.email": "pm@example.com",
		"status.name": "In progress",
	})

	assert.Equal(t, a, b, "key must not depend on map iteration order")
	assert.Equal(t, `feature_list:{"owner.email":"pm@example.com","status.name":"In progress"}`, a)
}

func TestGenerateKeyStripsNilParams(t *testing.T) {
	with := GenerateKey("note_list", map[string]any{"term": "login", "tag": nil})
	without := GenerateKey("note_list", map[string]any{"term": "login"})

	assert.Equal(t, without, with)
}

func TestGenerateKeySortsNestedMaps(t *testing.T) {
	a := GenerateKey("op", map[string]any{
		"filter": map[string]any{"b": 2, "a": 1},
	})
	b := GenerateKey("op", map[string]any{
		"filter": map[string]any{"a": 1, "b": 2},
	})

	assert.Equal(t, a, b)
	assert.Equal(t, `op:{"filter":{"a":1,"b":2}}`, a)
}

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(10, time.Minute)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("key", "value", 0)
	value, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", value)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10, time.Minute)
	cache.Set("key", "value", 10*time.Millisecond)

	_, ok := cache.Get("key")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get("key")
	assert.False(t, ok, "expired entry must read as absent")
	assert.Equal(t, 0, cache.Stats().Size, "expired entry is removed on access")
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewCache(2, time.Minute)
	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)

	// Touch "a" so "b" becomes least recently used
	_, ok := cache.Get("a")
	require.True(t, ok)

	cache.Set("c", 3, 0)

	_, ok = cache.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestCacheWrapComputesOnce(t *testing.T) {
	cache := NewCache(10, time.Minute)
	calls := 0
	compute := func() (any, error) {
		calls++
		return "result", nil
	}

	for i := 0; i < 3; i++ {
		value, err := cache.Wrap("key", compute)
		require.NoError(t, err)
		assert.Equal(t, "result", value)
	}
	assert.Equal(t, 1, calls)
}

func TestCacheWrapDoesNotCacheErrors(t *testing.T) {
	cache := NewCache(10, time.Minute)
	calls := 0
	boom := errors.New("upstream failure")

	for i := 0; i < 2; i++ {
		_, err := cache.Wrap("key", func() (any, error) {
			calls++
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls, "failed computes must not populate the cache")
}

func TestCacheInvalidatePrefix(t *testing.T) {
	cache := NewCache(10, time.Minute)
	cache.Set("feature_list:{}", 1, 0)
	cache.Set(`feature_list:{"status.name":"Done"}`, 2, 0)
	cache.Set("product_list:{}", 3, 0)

	removed := cache.InvalidatePrefix("feature_list:")
	assert.Equal(t, 2, removed)

	_, ok := cache.Get("product_list:{}")
	assert.True(t, ok, "entries outside the prefix survive")
	assert.Equal(t, 1, cache.Stats().Size)
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(10, time.Minute)
	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)

	cache.Clear()
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestCacheStats(t *testing.T) {
	cache := NewCache(7, time.Minute)
	cache.Set("a", 1, 0)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 7, stats.Capacity)
}
