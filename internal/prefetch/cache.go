// Package prefetch warms media and detail data for cards the user is
// about to see, so the next card renders without a placeholder flash.
// All of it is best-effort: a failed or slow prefetch never blocks a
// swipe.
package prefetch

import (
	"sync"
)

// Cache records which image URLs have already been fetched and decoded.
// It is add-only: entries are never removed, and marking the same URL
// twice is indistinguishable from marking it once. Under a race the
// worst case is a redundant re-fetch, which is harmless.
type Cache struct {
	mu     sync.RWMutex
	loaded map[string]struct{}
}

// NewCache creates an empty prefetch cache.
func NewCache() *Cache {
	return &Cache{loaded: make(map[string]struct{})}
}

// shared is the process-wide cache: decks come and go, decoded images
// stay warm.
var shared = NewCache()

// SharedCache returns the process-wide prefetch cache.
func SharedCache() *Cache { return shared }

// MarkLoaded records that a URL has been fetched. Idempotent.
func (c *Cache) MarkLoaded(url string) {
	if url == "" {
		return
	}
	c.mu.Lock()
	c.loaded[url] = struct{}{}
	c.mu.Unlock()
}

// Loaded reports whether a URL has already been fetched.
func (c *Cache) Loaded(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.loaded[url]
	return ok
}

// Len returns the number of recorded URLs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.loaded)
}
