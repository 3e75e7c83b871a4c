package cache

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached artifact: a stable fingerprint of the input
// image bytes plus the style that was applied to it.
type Key struct {
	Fingerprint string
	StyleID     string
}

// Entry is one live cache record
type Entry struct {
	ArtifactRef string
	Size        int64
	CreatedAt   time.Time
}

// LRU is a bounded artifact cache with least-recently-used eviction, an
// entry-count capacity, an optional byte budget and a TTL. All operations
// are safe for concurrent use. The cache is an optimization, not a
// correctness dependency: callers treat any miss the same way.
type LRU struct {
	mu       sync.Mutex
	capacity int
	maxBytes int64 // 0 disables the byte bound
	ttl      time.Duration

	entries map[Key]*list.Element
	order   *list.List // front = most recently used
	bytes   int64

	group singleflight.Group

	now func() time.Time // injectable clock for TTL tests
}

type lruItem struct {
	key   Key
	entry Entry
}

// New creates a bounded LRU cache. Capacity must be positive; maxBytes of 0
// disables the byte budget.
func New(capacity int, maxBytes int64, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		maxBytes: maxBytes,
		ttl:      ttl,
		entries:  make(map[Key]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the artifact ref for key if a live entry exists, refreshing
// its recency. Expired entries are removed and reported as misses.
func (c *LRU) Get(key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}
	item := elem.Value.(*lruItem)
	if c.expired(item.entry) {
		c.removeElement(elem)
		return "", false
	}
	c.order.MoveToFront(elem)
	return item.entry.ArtifactRef, true
}

// Put stores an artifact ref under key. Putting an existing key overwrites
// the entry and refreshes its recency and age. Capacity, byte and age
// bounds are enforced on every insert.
func (c *LRU) Put(key Key, artifactRef string, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{ArtifactRef: artifactRef, Size: size, CreatedAt: c.now()}

	if elem, ok := c.entries[key]; ok {
		item := elem.Value.(*lruItem)
		c.bytes += size - item.entry.Size
		item.entry = entry
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&lruItem{key: key, entry: entry})
		c.entries[key] = elem
		c.bytes += size
	}

	c.evictLocked()
}

// GetOrCompute returns the cached ref for key, or runs compute to produce
// it and stores the result. Concurrent callers for the same key share a
// single computation; this is the read-check-then-write discipline that
// prevents duplicate expensive work across in-flight requests.
func (c *LRU) GetOrCompute(key Key, compute func() (string, int64, error)) (string, error) {
	if ref, ok := c.Get(key); ok {
		return ref, nil
	}

	type computed struct {
		ref  string
		size int64
	}
	v, err, _ := c.group.Do(key.Fingerprint+"/"+key.StyleID, func() (interface{}, error) {
		// Re-check under the flight: another caller may have just filled it.
		if ref, ok := c.Get(key); ok {
			return computed{ref: ref}, nil
		}
		ref, size, err := compute()
		if err != nil {
			return nil, err
		}
		c.Put(key, ref, size)
		return computed{ref: ref, size: size}, nil
	})
	if err != nil {
		return "", err
	}
	return v.(computed).ref, nil
}

// Len returns the number of live entries
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Bytes returns the tracked byte total of live entries
func (c *LRU) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// EvictExpired proactively removes entries older than the TTL, independent
// of LRU order. Returns the number of entries removed.
func (c *LRU) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*lruItem).entry) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// evictLocked enforces the capacity and byte bounds, dropping the least
// recently used entries first. Caller must hold c.mu.
func (c *LRU) evictLocked() {
	for c.order.Len() > c.capacity {
		if elem := c.order.Back(); elem != nil {
			c.removeElement(elem)
		}
	}
	if c.maxBytes <= 0 {
		return
	}
	for c.bytes > c.maxBytes && c.order.Len() > 0 {
		c.removeElement(c.order.Back())
	}
}

func (c *LRU) removeElement(elem *list.Element) {
	item := elem.Value.(*lruItem)
	c.order.Remove(elem)
	delete(c.entries, item.key)
	c.bytes -= item.entry.Size
}

func (c *LRU) expired(e Entry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.CreatedAt) > c.ttl
}
