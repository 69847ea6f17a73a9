package driver

import (
	"sync"
)

// minimal per-process cache by input path + content hash
type cached struct {
	key    Digest
	result *Result
}

// MemCache keeps compiled results for the lifetime of the process, so an
// input named twice in one batch is compiled once.
type MemCache struct {
	mu     sync.RWMutex
	byPath map[string]cached
}

// NewMemCache creates a MemCache with the given capacity hint.
func NewMemCache(capHint int) *MemCache {
	return &MemCache{byPath: make(map[string]cached, capHint)}
}

// Get retrieves a result by input path and cache key.
func (c *MemCache) Get(path string, key Digest) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	rec, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok || rec.key != key {
		return nil, false
	}
	return rec.result, true
}

// Put records the result for path.
func (c *MemCache) Put(path string, key Digest, r *Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byPath[path] = cached{key: key, result: r}
	c.mu.Unlock()
}
