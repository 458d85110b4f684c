package fragment

import (
	"sync"

	"github.com/tormund/fragvault/catalog"
)

// PendingFragment is a fragment body held in the cache, not yet committed
// to any resource.
type PendingFragment struct {
	Hash     catalog.Hash
	Body     []byte
	Refcount int64
}

type pendingEntry struct {
	body     []byte
	refcount int64
}

// Cache is the pending-fragment buffer between the fragment pipeline and
// the resource builder. It holds post-first-layer fragment bodies keyed by
// hash, preserving arrival order, and dedups within the buffer itself.
//
// Flush is monotonic: once a fragment is handed to a sealed resource, it is
// removed here and never reinserted.
type Cache struct {
	mu      sync.Mutex
	order   []catalog.Hash
	entries map[catalog.Hash]*pendingEntry
	size    int64
}

// NewCache returns an empty pending-fragment buffer.
func NewCache() *Cache {
	return &Cache{entries: make(map[catalog.Hash]*pendingEntry)}
}

// Add buffers a fragment body. If the hash is already pending, its
// refcount is bumped instead of storing the body a second time.
func (c *Cache) Add(hash catalog.Hash, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[hash]; ok {
		e.refcount++
		return
	}
	c.entries[hash] = &pendingEntry{body: body, refcount: 1}
	c.order = append(c.order, hash)
	c.size += int64(len(body))
}

// Len returns the number of distinct fragments currently pending.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Size returns the sum of pending fragment body lengths.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Flush removes up to n fragments, oldest first, and returns them for
// sealing into a resource. n <= 0 or n > Len() flushes everything pending.
func (c *Cache) Flush(n int) []PendingFragment {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || n > len(c.order) {
		n = len(c.order)
	}
	out := make([]PendingFragment, 0, n)
	for _, h := range c.order[:n] {
		e := c.entries[h]
		out = append(out, PendingFragment{Hash: h, Body: e.body, Refcount: e.refcount})
		delete(c.entries, h)
		c.size -= int64(len(e.body))
	}
	c.order = c.order[n:]
	return out
}

// FlushAll drains every pending fragment regardless of thresholds.
// compound.Upload uses it to discard what a failed upload left pending.
func (c *Cache) FlushAll() []PendingFragment {
	return c.Flush(0)
}

// FlushUpTo removes fragments in arrival order until either maxCount items
// or maxBytes of body bytes have been collected, whichever comes first
// (zero/negative means "no limit" on that dimension), always flushing at
// least one fragment if any are pending. This is the threshold check the
// resource builder flushes on: fragment_count >= max_fragments_per_resource
// or accumulated_size >= target_resource_size.
func (c *Cache) FlushUpTo(maxCount int, maxBytes int64) []PendingFragment {
	n := c.countUpTo(maxCount, maxBytes)
	if n == 0 {
		return nil
	}
	return c.Flush(n)
}

func (c *Cache) countUpTo(maxCount int, maxBytes int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	var bytes int64
	for n < len(c.order) {
		body := c.entries[c.order[n]].body
		if n > 0 {
			if maxCount > 0 && n >= maxCount {
				break
			}
			if maxBytes > 0 && bytes+int64(len(body)) > maxBytes {
				break
			}
		}
		bytes += int64(len(body))
		n++
	}
	return n
}
