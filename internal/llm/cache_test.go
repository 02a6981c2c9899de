package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepcli/internal/performance"
)

func TestResponseCacheRoundTrip(t *testing.T) {
	cache, err := NewResponseCache(8, time.Minute, nil)
	require.NoError(t, err)

	key := cache.Key(Request{Prompt: "hello"})
	assert.Nil(t, cache.Get(key))

	cache.Put(key, &Response{Content: "hi"})
	got := cache.Get(key)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Content)
}

func TestResponseCacheKeyDependsOnContent(t *testing.T) {
	cache, err := NewResponseCache(8, time.Minute, nil)
	require.NoError(t, err)

	a := cache.Key(Request{Prompt: "hello"})
	b := cache.Key(Request{Prompt: "goodbye"})
	c := cache.Key(Request{Prompt: "hello", ResponseFormat: "json_object"})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, cache.Key(Request{Prompt: "hello"}))
}

func TestResponseCacheTTLExpiry(t *testing.T) {
	cache, err := NewResponseCache(8, 10*time.Millisecond, nil)
	require.NoError(t, err)

	key := cache.Key(Request{Prompt: "hello"})
	cache.Put(key, &Response{Content: "hi"})
	require.NotNil(t, cache.Get(key))

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, cache.Get(key))
	assert.Equal(t, 0, cache.Len())
}

func TestResponseCacheEviction(t *testing.T) {
	cache, err := NewResponseCache(2, time.Minute, nil)
	require.NoError(t, err)

	cache.Put("a", &Response{Content: "a"})
	cache.Put("b", &Response{Content: "b"})
	cache.Put("c", &Response{Content: "c"})

	assert.Nil(t, cache.Get("a"))
	assert.NotNil(t, cache.Get("b"))
	assert.NotNil(t, cache.Get("c"))
}

func TestResponseCacheRecordsHitsAndMisses(t *testing.T) {
	monitor := performance.NewMonitor()
	cache, err := NewResponseCache(8, time.Minute, monitor)
	require.NoError(t, err)

	key := cache.Key(Request{Prompt: "hello"})
	cache.Get(key)
	cache.Put(key, &Response{Content: "hi"})
	cache.Get(key)

	stats := monitor.Snapshot()
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.CacheMisses)
}
