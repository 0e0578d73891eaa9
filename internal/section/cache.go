package section

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/observability"
)

// CachedEngine memoizes cross-sections by the content of the normalized
// section. Identical requests return the stored result with Stats.Cached set.
type CachedEngine struct {
	inner   Computer
	cache   *lruCache[string, domain.CrossSection]
	metrics *observability.Metrics
}

// NewCachedEngine wraps inner with an LRU of at most maxEntries results.
func NewCachedEngine(inner Computer, maxEntries int, metrics *observability.Metrics) *CachedEngine {
	return &CachedEngine{
		inner:   inner,
		cache:   newLRUCache[string, domain.CrossSection](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedEngine) Compute(ctx context.Context, sec domain.Section) domain.CrossSection {
	key, ok := sectionKey(sec)
	if !ok {
		return c.inner.Compute(ctx, sec)
	}
	if cs, hit := c.cache.get(key); hit {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		cs.Stats.Cached = true
		cs.ProcessedAt = domain.Now()
		return cs
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	cs := c.inner.Compute(ctx, sec)
	// Degraded results may succeed on retry.
	if cs.Stats.DegradedStages == 0 {
		c.cache.put(key, cs)
	}
	return cs
}

// Len returns the number of cached results.
func (c *CachedEngine) Len() int {
	return c.cache.len()
}

func sectionKey(sec domain.Section) (string, bool) {
	data, err := json.Marshal(sec)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[K]*entry[K, V]
	head       *entry[K, V] // most recently used
	tail       *entry[K, V] // least recently used
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[K, V]) addToFront(e *entry[K, V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[K, V]) remove(e *entry[K, V]) {
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
}

func (c *lruCache[K, V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
