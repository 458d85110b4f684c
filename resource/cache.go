package resource

import (
	"container/list"
	"sync"
)

// Cache is a bounded-by-bytes LRU of unwrapped, decompressed resource
// payloads, keyed by resource ID, used to make offset/length slicing O(1)
// on a repeat hit during download. It is read-only to callers; Builder
// never populates it, since the builder never needs to re-read what it
// just sealed.
type Cache struct {
	mu       sync.Mutex
	capacity int64
	size     int64
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	resourceID string
	payload    []byte
}

// NewCache returns an empty cache bounded to capacity bytes of payload.
func NewCache(capacity int64) *Cache {
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached payload for resourceID, promoting it to
// most-recently-used, or (nil, false) on a miss.
func (c *Cache) Get(resourceID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[resourceID]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).payload, true
}

// Put inserts or replaces the cached payload for resourceID, evicting
// least-recently-used entries until the cache fits within capacity.
func (c *Cache) Put(resourceID string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[resourceID]; ok {
		c.size -= int64(len(el.Value.(*cacheEntry).payload))
		c.ll.Remove(el)
		delete(c.items, resourceID)
	}

	if c.capacity <= 0 {
		return
	}

	el := c.ll.PushFront(&cacheEntry{resourceID: resourceID, payload: payload})
	c.items[resourceID] = el
	c.size += int64(len(payload))

	for c.size > c.capacity && c.ll.Len() > 0 {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	entry := el.Value.(*cacheEntry)
	c.ll.Remove(el)
	delete(c.items, entry.resourceID)
	c.size -= int64(len(entry.payload))
}

// Len returns the number of resources currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
