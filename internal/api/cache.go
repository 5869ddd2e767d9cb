package api

import (
	"sync"
	"time"
)

// Resource names a cached backend collection.
type Resource string

const (
	ResourceRecipes       Resource = "recipes"
	ResourcePlans         Resource = "plans"
	ResourceShoppingLists Resource = "shopping-lists"
	ResourceIngredients   Resource = "ingredients"
)

// DefaultCacheTTL is how long a listed collection is served from memory.
const DefaultCacheTTL = 15 * time.Second

// invalidationGraph maps a mutated resource to every cached collection derived from it.
// Plans embed recipe validity and shopping lists derive from plans.
var invalidationGraph = map[Resource][]Resource{
	ResourceRecipes:       {ResourceRecipes, ResourcePlans, ResourceShoppingLists},
	ResourcePlans:         {ResourcePlans, ResourceShoppingLists},
	ResourceShoppingLists: {ResourceShoppingLists},
	ResourceIngredients:   nil,
}

// Invalidates returns the collections dropped when r is mutated.
func Invalidates(r Resource) []Resource {
	return append([]Resource(nil), invalidationGraph[r]...)
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// ReadCache holds listed collections for a fixed TTL. Each resource carries a
// generation counter so a fetch that started before an invalidation cannot
// store its stale result afterwards.
type ReadCache struct {
	mu          sync.Mutex
	ttl         time.Duration
	now         func() time.Time
	entries     map[Resource]cacheEntry
	generations map[Resource]uint64
}

// NewReadCache creates an empty cache. A non-positive ttl selects DefaultCacheTTL.
func NewReadCache(ttl time.Duration) *ReadCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ReadCache{
		ttl:         ttl,
		now:         time.Now,
		entries:     make(map[Resource]cacheEntry),
		generations: make(map[Resource]uint64),
	}
}

// SetClock replaces the time source, for tests.
func (c *ReadCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the live entry for r, if any. The returned generation must be
// passed to Put after a miss.
func (c *ReadCache) Get(r Resource) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.generations[r]
	entry, ok := c.entries[r]
	if !ok {
		return nil, gen, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, r)
		return nil, gen, false
	}
	return entry.value, gen, true
}

// Put stores value for r unless r was invalidated since generation gen was read.
func (c *ReadCache) Put(r Resource, gen uint64, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[r] != gen {
		return false
	}
	c.entries[r] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	return true
}

// Invalidate drops r and everything derived from it, returning what was dropped.
func (c *ReadCache) Invalidate(r Resource) []Resource {
	targets := Invalidates(r)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, target := range targets {
		delete(c.entries, target)
		c.generations[target]++
	}
	return targets
}

// Clear drops every entry. Used on session teardown.
func (c *ReadCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for r := range invalidationGraph {
		c.generations[r]++
	}
	c.entries = make(map[Resource]cacheEntry)
}
