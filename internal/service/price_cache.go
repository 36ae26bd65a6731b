package service

import (
	"sync"
	"time"

	"storefront/internal/pricing"
)

type cachedPrice struct {
	price    pricing.Price
	storedAt time.Time
}

// PriceCache is a bounded cache of resolved prices keyed by product and
// quantity. Entries expire after ttl; replacing a product's tiers must call
// Invalidate. When full, the products cached earliest are evicted first.
//
// Invalidate also bumps the product's generation. A caller that resolves a
// price outside the cache reads Generation first and stores through
// PutIfCurrent, so a price read before an invalidation is never cached after it.
type PriceCache struct {
	mu          sync.Mutex
	capacity    int
	ttl         time.Duration
	now         func() time.Time
	entries     map[string]map[int]cachedPrice
	order       []string
	size        int
	generations map[string]uint64
}

// NewPriceCache creates a cache holding at most capacity prices. A capacity
// of zero disables caching.
func NewPriceCache(capacity int, ttl time.Duration) *PriceCache {
	return &PriceCache{
		capacity:    capacity,
		ttl:         ttl,
		now:         time.Now,
		entries:     make(map[string]map[int]cachedPrice),
		generations: make(map[string]uint64),
	}
}

// Get returns the cached price of productID at quantity.
func (c *PriceCache) Get(productID string, quantity int) (pricing.Price, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[productID][quantity]
	if !ok {
		return pricing.Price{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries[productID], quantity)
		c.size--
		return pricing.Price{}, false
	}
	return entry.price, true
}

// Generation returns the invalidation count of productID.
func (c *PriceCache) Generation(productID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[productID]
}

// Put stores the price of productID at quantity.
func (c *PriceCache) Put(productID string, quantity int, price pricing.Price) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(productID, quantity, price)
}

// PutIfCurrent stores the price only when productID has not been invalidated
// since generation was read. It reports whether the price was stored.
func (c *PriceCache) PutIfCurrent(productID string, quantity int, generation uint64, price pricing.Price) bool {
	if c.capacity <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[productID] != generation {
		return false
	}
	c.putLocked(productID, quantity, price)
	return true
}

func (c *PriceCache) putLocked(productID string, quantity int, price pricing.Price) {
	byQuantity, ok := c.entries[productID]
	if !ok {
		byQuantity = make(map[int]cachedPrice)
		c.entries[productID] = byQuantity
		c.order = append(c.order, productID)
	}
	if _, exists := byQuantity[quantity]; !exists {
		c.size++
	}
	byQuantity[quantity] = cachedPrice{price: price, storedAt: c.now()}

	for c.size > c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.size -= len(c.entries[oldest])
		delete(c.entries, oldest)
	}
}

// Invalidate drops every cached price of productID.
func (c *PriceCache) Invalidate(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[productID]++

	byQuantity, ok := c.entries[productID]
	if !ok {
		return
	}
	c.size -= len(byQuantity)
	delete(c.entries, productID)

	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cached prices.
func (c *PriceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
