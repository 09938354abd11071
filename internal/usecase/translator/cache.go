package translator

import (
	"fmt"
	"sync"
	"time"

	"lingochat/internal/domain"
)

const (
	// DefaultCacheSize bounds the number of cached translations.
	DefaultCacheSize = 2000
	// DefaultCacheMaxAge is the entry TTL; expiry is lazy, on read.
	DefaultCacheMaxAge = 24 * time.Hour

	longTextThreshold = 100
	keyHeadTailLen    = 50
)

type cacheEntry struct {
	result      domain.TranslationResult
	timestamp   time.Time // last access
	accessCount int
}

// Cache is a bounded, TTL'd store of prior translation results keyed by
// (source, target, text fingerprint). Eviction removes the entry with the
// oldest last-access time, ties broken by lowest access count.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	maxAge  time.Duration
	now     func() time.Time
}

type CacheOption func(*Cache)

func WithCacheSize(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

func WithCacheMaxAge(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithCacheClock overrides the time source (tests).
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: DefaultCacheSize,
		maxAge:  DefaultCacheMaxAge,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached result for (text, source, target), or nil on miss.
// Entries past maxAge are silently dropped. A hit refreshes recency and
// bumps the access count.
func (c *Cache) Get(text, source, target string) *domain.TranslationResult {
	key := cacheKey(text, source, target)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().Sub(e.timestamp) > c.maxAge {
		delete(c.entries, key)
		return nil
	}
	e.timestamp = c.now()
	e.accessCount++
	res := e.result
	return &res
}

// Set stores a result, evicting one entry first when the cache is full.
func (c *Cache) Set(text, source, target string, res domain.TranslationResult) {
	key := cacheKey(text, source, target)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[key] = &cacheEntry{result: res, timestamp: c.now(), accessCount: 1}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictLocked() {
	var victim string
	var victimEntry *cacheEntry
	for key, e := range c.entries {
		if victimEntry == nil ||
			e.timestamp.Before(victimEntry.timestamp) ||
			(e.timestamp.Equal(victimEntry.timestamp) && e.accessCount < victimEntry.accessCount) {
			victim = key
			victimEntry = e
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
	}
}

// cacheKey fingerprints the text. Long texts are keyed by head, tail, and
// length instead of full content to bound memory; two long texts sharing
// both ends and length collide, an accepted approximation.
func cacheKey(text, source, target string) string {
	fingerprint := text
	if runes := []rune(text); len(runes) > longTextThreshold {
		fingerprint = fmt.Sprintf("%s...%s:%d",
			string(runes[:keyHeadTailLen]),
			string(runes[len(runes)-keyHeadTailLen:]),
			len(runes))
	}
	return source + ":" + target + ":" + fingerprint
}
