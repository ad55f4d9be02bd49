package chat

import (
	"container/list"
	"sync"
)

// lruCache is a bounded LRU map from label to resolution result. Negative
// results (found=false) are cached too, so repeated lookups of an unknown
// name do not hit the directory again.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type lruEntry struct {
	key   string
	id    string
	found bool
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached resolution for key. The second return reports
// whether the key was present at all.
func (c *lruCache) Get(key string) (id string, found, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false, false
	}
	c.order.MoveToFront(elem)
	entry := elem.Value.(*lruEntry)
	return entry.id, entry.found, true
}

// Set stores a resolution result, evicting the least recently used entry
// when the cache is full.
func (c *lruCache) Set(key, id string, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*lruEntry)
		entry.id = id
		entry.found = found
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*lruEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&lruEntry{key: key, id: id, found: found})
}

// Len returns the number of cached entries.
func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
