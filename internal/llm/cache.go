package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"deepcli/internal/performance"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

type cacheEntry struct {
	response *Response
	storedAt time.Time
}

// ResponseCache memoizes completion responses keyed by the request content.
// Entries expire after a TTL and evict LRU-first when the cache is full.
type ResponseCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	monitor *performance.Monitor
}

// NewResponseCache builds a cache. size <= 0 and ttl <= 0 fall back to the
// defaults. monitor may be nil.
func NewResponseCache(size int, ttl time.Duration, monitor *performance.Monitor) (*ResponseCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{entries: entries, ttl: ttl, monitor: monitor}, nil
}

// Key derives a stable cache key from the request content.
func (c *ResponseCache) Key(req Request) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature *float64  `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
		Format      string    `json:"format"`
	}{req.Model, req.messages(), req.Temperature, req.MaxTokens, req.ResponseFormat})
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for key, or nil when absent or expired.
func (c *ResponseCache) Get(key string) *Response {
	entry, ok := c.entries.Get(key)
	if ok && time.Since(entry.storedAt) <= c.ttl {
		if c.monitor != nil {
			c.monitor.RecordCacheHit()
		}
		return entry.response
	}
	if ok {
		c.entries.Remove(key)
	}
	if c.monitor != nil {
		c.monitor.RecordCacheMiss()
	}
	return nil
}

// Put stores a response under key.
func (c *ResponseCache) Put(key string, resp *Response) {
	c.entries.Add(key, cacheEntry{response: resp, storedAt: time.Now()})
}

// Len reports the number of live entries, including any not yet expired.
func (c *ResponseCache) Len() int { return c.entries.Len() }

// Purge drops every entry.
func (c *ResponseCache) Purge() { c.entries.Purge() }
