package ledger

import (
	"path/filepath"
	"sync"
	"time"
)

// HeaderCache remembers header maps per workbook and sheet. An entry is only
// reused for ledgers opened from a file with the same modification time and
// size; writers call Invalidate after saving.
type HeaderCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	path  string
	sheet string
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	headers HeaderMap
}

// NewHeaderCache returns an empty cache.
func NewHeaderCache() *HeaderCache {
	return &HeaderCache{entries: make(map[cacheKey]cacheEntry)}
}

// Headers returns the header map for l, reading it from l's snapshot when
// the cached entry is missing or was taken from a different version of the
// file than the one l was opened from.
func (c *HeaderCache) Headers(l *Ledger) HeaderMap {
	key := cacheKey{path: filepath.Clean(l.Path()), sheet: l.Sheet()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.modTime.Equal(l.modTime) && e.size == l.size {
		return e.headers
	}
	h := l.Headers()
	c.entries[key] = cacheEntry{modTime: l.modTime, size: l.size, headers: h}
	return h
}

// Invalidate drops every entry for the workbook at path.
func (c *HeaderCache) Invalidate(path string) {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.path == path {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached entries.
func (c *HeaderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
