package artifact

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader fetches and validates an artifact pair.
type Loader interface {
	Load(ctx context.Context) (*Pair, error)
}

// Cache holds at most one loaded pair for the lifetime of the process.
// The first caller performs the storage fetch; concurrent first callers
// share that one fetch (single-flight) and its outcome. A successful load
// is never invalidated mid-process: picking up a new build requires a new
// process. A failed load is not cached, so a later request may retry.
type Cache struct {
	loader Loader
	group  singleflight.Group

	mu   sync.RWMutex
	pair *Pair
}

// NewCache creates an empty cache over the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// GetOrLoad returns the cached pair, loading it on first use. The fetch runs
// under the first caller's context; waiters share its result.
func (c *Cache) GetOrLoad(ctx context.Context) (*Pair, error) {
	c.mu.RLock()
	p := c.pair
	c.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	v, err, _ := c.group.Do("pair", func() (any, error) {
		c.mu.RLock()
		cached := c.pair
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		loaded, err := c.loader.Load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pair = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pair), nil
}

// Loaded reports whether a pair is already cached, without triggering a load.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pair != nil
}
