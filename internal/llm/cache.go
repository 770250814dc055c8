package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Veraticus/binwise/internal/model"
)

// cacheEntry represents a cached classification result.
type cacheEntry struct {
	expiry time.Time
	result model.ScanResult
}

// resultCache provides thread-safe caching of classification results keyed
// by image content. Expired entries are pruned on write.
type resultCache struct {
	entries   map[string]cacheEntry
	now       func() time.Time
	ttl       time.Duration
	lastPrune time.Time
	mu        sync.RWMutex
}

// newResultCache creates a new cache with the specified TTL.
func newResultCache(ttl time.Duration) *resultCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// imageKey hashes the MIME type and bytes of an image.
func imageKey(image model.ScanImage) string {
	h := sha256.New()
	h.Write([]byte(image.MIMEType))
	h.Write([]byte{0})
	h.Write(image.Data)
	return hex.EncodeToString(h.Sum(nil))
}

// get retrieves a result if it exists and hasn't expired.
func (c *resultCache) get(key string) (model.ScanResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiry) {
		return model.ScanResult{}, false
	}
	return entry.result, true
}

// set stores a result in the cache.
func (c *resultCache) set(key string, result model.ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastPrune) >= c.ttl {
		for k, entry := range c.entries {
			if now.After(entry.expiry) {
				delete(c.entries, k)
			}
		}
		c.lastPrune = now
	}

	c.entries[key] = cacheEntry{
		result: result,
		expiry: now.Add(c.ttl),
	}
}

// size returns the number of entries in the cache, expired or not.
func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
