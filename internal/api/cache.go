package api

import (
	"sync"

	"github.com/cropscope/cropscope/pkg/farm"
)

// CatalogCache is a thread-safe LRU cache for decoded catalogs. Cached
// catalogs are shared between requests and must not be modified.
type CatalogCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*farm.Catalog
	order   []string // oldest first
}

// NewCatalogCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 8.
func NewCatalogCache(maxSize int) *CatalogCache {
	if maxSize <= 0 {
		maxSize = 8
	}
	return &CatalogCache{
		maxSize: maxSize,
		entries: make(map[string]*farm.Catalog),
	}
}

// Get retrieves a catalog from the cache, or nil if not found.
func (c *CatalogCache) Get(version string) *farm.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, ok := c.entries[version]
	if !ok {
		return nil
	}
	c.moveToEnd(version)
	return cat
}

// Put adds a catalog to the cache, evicting the least recently used entry
// if full.
func (c *CatalogCache) Put(version string, cat *farm.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[version]; ok {
		c.entries[version] = cat
		c.moveToEnd(version)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[version] = cat
	c.order = append(c.order, version)
}

// Len returns the number of cached catalogs.
func (c *CatalogCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CatalogCache) moveToEnd(version string) {
	for i, k := range c.order {
		if k == version {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, version)
			return
		}
	}
}
