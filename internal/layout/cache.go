package layout

import "ilwasm/internal/types"

type cacheEntry struct {
	size uint32
	err  *LayoutError
}

type cache struct {
	byType map[types.TypeID]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]cacheEntry, 64)}
}

func (c *cache) get(id types.TypeID) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	e, ok := c.byType[id]
	return e, ok
}

func (c *cache) put(id types.TypeID, e cacheEntry) {
	if c == nil {
		return
	}
	c.byType[id] = e
}
