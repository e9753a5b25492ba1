package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ecofinder/backend/internal/domain"
)

// cacheItem represents a single search result set with expiration
type cacheItem struct {
	Products   []domain.Product
	Expiration time.Time
}

var _ domain.SearchCache = (*MemoryCache)(nil)

// MemoryCache is a thread-safe in-memory search cache with TTL support
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryCache creates a new in-memory cache. Expired entries are never
// returned; call Run to also evict them periodically.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheItem),
		now:  time.Now,
	}
}

// Get retrieves a copy of the products stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]domain.Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || c.now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return copyProducts(item.Products), nil
}

// Set stores a copy of products under key with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Products:   copyProducts(products),
		Expiration: c.now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}

	return !c.now().After(item.Expiration), nil
}

// Run evicts expired entries every interval until ctx is done
func (c *MemoryCache) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	evicted := 0
	for key, item := range c.data {
		if now.After(item.Expiration) {
			delete(c.data, key)
			evicted++
		}
	}
	return evicted
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// copyProducts keeps callers from mutating cached slices
func copyProducts(products []domain.Product) []domain.Product {
	if products == nil {
		return nil
	}
	out := make([]domain.Product, len(products))
	for i, p := range products {
		p.Materials = append([]string(nil), p.Materials...)
		p.SustainabilityFeatures = append([]string(nil), p.SustainabilityFeatures...)
		out[i] = p
	}
	return out
}
