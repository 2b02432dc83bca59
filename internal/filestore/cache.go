package filestore

import (
	"context"
	"sync"

	"github.com/couchcryptid/critical-events-service/internal/observability"
)

// CachedStore wraps an ObjectStore with an in-memory LRU cache of object
// bodies. Writes and deletes through the wrapper invalidate the affected
// keys, so the cache is only coherent while this process is the sole writer.
type CachedStore struct {
	ObjectStore
	cache   *lruCache[[]byte]
	metrics *observability.Metrics
}

// NewCachedStore returns inner unchanged when maxEntries is zero.
func NewCachedStore(inner ObjectStore, maxEntries int, metrics *observability.Metrics) ObjectStore {
	if maxEntries <= 0 {
		return inner
	}
	return &CachedStore{
		ObjectStore: inner,
		cache:       newLRUCache[[]byte](maxEntries),
		metrics:     metrics,
	}
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if body, ok := c.cache.get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return body, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	gen := c.cache.generation()
	body, err := c.ObjectStore.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	// Empty bodies are not cached so a re-upload is seen immediately.
	if len(body) > 0 {
		c.cache.putIfUnchanged(key, body, gen)
	}
	return body, nil
}

// Writes invalidate after the inner call so a read that raced the write
// cannot fill the cache with the previous body.
func (c *CachedStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	defer c.cache.remove(key)
	return c.ObjectStore.Put(ctx, key, body, contentType)
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	defer c.cache.remove(key)
	return c.ObjectStore.Delete(ctx, key)
}

func (c *CachedStore) DeleteMany(ctx context.Context, keys []string) error {
	defer func() {
		for _, k := range keys {
			c.cache.remove(k)
		}
	}()
	return c.ObjectStore.DeleteMany(ctx, keys)
}

// CheckReadiness forwards to the wrapped store when it supports readiness.
func (c *CachedStore) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.ObjectStore.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// lruCache is a thread-safe LRU cache with a fixed entry limit. gen counts
// removals; putIfUnchanged drops a fill that started before one.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	gen        uint64
	entries    map[string]*lruEntry[V]
	head       *lruEntry[V] // most recently used
	tail       *lruEntry[V] // least recently used
}

type lruEntry[V any] struct {
	key   string
	value V
	prev  *lruEntry[V]
	next  *lruEntry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*lruEntry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.unlink(e)
	c.pushFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value)
}

func (c *lruCache[V]) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// putIfUnchanged stores value only if no remove has happened since gen was
// read. Reports whether the value was stored.
func (c *lruCache[V]) putIfUnchanged(key string, value V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.store(key, value)
	return true
}

// store requires c.mu.
func (c *lruCache[V]) store(key string, value V) {
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.unlink(e)
		c.pushFront(e)
		return
	}

	e := &lruEntry[V]{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		delete(c.entries, evicted.key)
	}
}

func (c *lruCache[V]) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if e, ok := c.entries[key]; ok {
		c.unlink(e)
		delete(c.entries, key)
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) pushFront(e *lruEntry[V]) {
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

func (c *lruCache[V]) unlink(e *lruEntry[V]) {
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
	e.prev, e.next = nil, nil
}
