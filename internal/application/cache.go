package application

import "sync"

// ResultCache memoizes expensive aggregates process-wide. Historical
// financial data is immutable once imported, so entries live until an
// import mutates the ledger and calls Invalidate; there is no TTL and
// no background refresh. Inject an instance instead of sharing ambient
// global state, so tests get a fresh cache per case.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]interface{})}
}

// Get returns the memoized value for key, if any.
func (c *ResultCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a computed value under key.
func (c *ResultCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// GetOrCompute returns the cached value for key, computing and storing
// it on first access. Errors are not cached: a failed computation is
// retried on the next read.
func (c *ResultCache) GetOrCompute(key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v)
	return v, nil
}

// Invalidate drops every entry. Called after any import mutates
// snapshot or cost data; readers afterwards recompute synchronously.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{})
}

// Len reports the number of live entries, for tests and diagnostics.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
