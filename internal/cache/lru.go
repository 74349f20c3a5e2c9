// Package cache holds short-lived results of read-only brew queries.
package cache

import (
	"sync"
	"time"
)

// LRU is a fixed-capacity, least-recently-used cache whose entries also
// expire after a TTL. Safe for concurrent use.
type LRU[V any] struct {
	mu  sync.Mutex
	cap int
	ttl time.Duration
	now func() time.Time

	// Most recent at head.
	head, tail *entry[V]
	items      map[string]*entry[V]
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
	prev    *entry[V]
	next    *entry[V]
}

// New creates a cache holding at most cap entries, each valid for ttl.
// cap < 1 is raised to 1; ttl <= 0 means entries never expire.
func New[V any](cap int, ttl time.Duration) *LRU[V] {
	if cap < 1 {
		cap = 1
	}
	return &LRU[V]{
		cap:   cap,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*entry[V], cap),
	}
}

// Get returns the cached value for key. Expired entries are removed and
// reported as a miss.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.unlink(e)
		delete(c.items, key)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

// Put inserts or replaces the value for key, evicting the least recently
// used entry when full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}
	e := &entry[V]{key: key, value: value, expires: expires}
	c.items[key] = e
	c.pushFront(e)
	if len(c.items) > c.cap {
		c.evict()
	}
}

// GetOrLoad returns the cached value for key, or calls load and caches
// its result when it succeeds. Concurrent misses may both call load.
func (c *LRU[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

// Purge drops every entry.
func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head, c.tail = nil, nil
	clear(c.items)
}

// Len returns the number of entries, including any not yet noticed as expired.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) expired(e *entry[V]) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}

func (c *LRU[V]) pushFront(e *entry[V]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[V]) moveToFront(e *entry[V]) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *LRU[V]) unlink(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *LRU[V]) evict() {
	if c.tail == nil {
		return
	}
	e := c.tail
	c.unlink(e)
	delete(c.items, e.key)
}
