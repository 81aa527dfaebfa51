package showgate

import (
	"sync"
	"time"
)

// cacheKey uniquely identifies one evaluation. Role is part of the key so a
// cached decision never survives a role change within the same process.
type cacheKey struct {
	PrincipalID string
	Role        Role
	Operation   Operation
	EntityType  EntityType
	EntityID    string
}

// cacheEntry stores the result of one evaluation.
type cacheEntry struct {
	decision  Decision
	expiresAt time.Time // zero means no expiry
}

// Cache stores authorization decisions. It is safe for concurrent use.
//
// Only fault-free decisions are cached; evaluation faults must re-hit the
// data source so a recovered store stops denying.
type Cache interface {
	// Get retrieves a cached decision.
	// If ok is false, the entry doesn't exist or is expired.
	Get(p Principal, op Operation, ref Ref) (d Decision, ok bool)

	// Set stores a decision.
	Set(p Principal, op Operation, ref Ref, d Decision)
}

// DecisionCache is the default in-memory cache with optional TTL. It uses a
// sync.RWMutex for goroutine safety. The cache grows unbounded within its TTL
// window; long-running processes with volatile permissions should set a TTL.
type DecisionCache struct {
	mu    sync.RWMutex
	items map[cacheKey]cacheEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a DecisionCache.
type CacheOption func(*DecisionCache)

// WithTTL sets the time-to-live for cache entries. Entries older than TTL
// are re-evaluated. A TTL of 0 (default) means entries never expire within
// the cache's lifetime.
//
// Choose TTL by permission volatility: seconds for frequently changing
// ownership, minutes for typical traffic. Callers needing strict
// same-transaction decisions should use a per-request cache or none.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *DecisionCache) {
		c.ttl = ttl
	}
}

// NewCache creates a new decision cache. The cache is scoped to a single
// process; for distributed setups implement Cache over a shared store.
func NewCache(opts ...CacheOption) *DecisionCache {
	c := &DecisionCache{
		items: make(map[cacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached decision.
func (c *DecisionCache) Get(p Principal, op Operation, ref Ref) (Decision, bool) {
	key := cacheKey{
		PrincipalID: p.ID,
		Role:        p.Role,
		Operation:   op,
		EntityType:  ref.Type,
		EntityID:    ref.ID,
	}

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return Decision{}, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return Decision{}, false
	}

	return entry.decision, true
}

// Set stores a decision.
func (c *DecisionCache) Set(p Principal, op Operation, ref Ref, d Decision) {
	key := cacheKey{
		PrincipalID: p.ID,
		Role:        p.Role,
		Operation:   op,
		EntityType:  ref.Type,
		EntityID:    ref.ID,
	}

	entry := cacheEntry{decision: d}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
func (c *DecisionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries. Useful for tests or after bulk permission
// changes.
func (c *DecisionCache) Clear() {
	c.mu.Lock()
	c.items = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
}

// Ensure DecisionCache implements Cache.
var _ Cache = (*DecisionCache)(nil)
