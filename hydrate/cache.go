package hydrate

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Fetch loads the value of one key. ok is false when nothing is stored.
type Fetch func(ctx context.Context) (value any, ok bool, err error)

type cacheKey struct {
	dataType string
	key      string
}

// Cache shares hydrated values between lists. Entries live as long as the
// cache. It is safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	values map[cacheKey]Data
	group  singleflight.Group
}

func NewCache() *Cache {
	return &Cache{
		values: map[cacheKey]Data{},
	}
}

// Peek returns the cached value of key without fetching.
func (c *Cache) Peek(dataType, key string) (Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.values[cacheKey{dataType, key}]
	return d, ok
}

// Set stores d for key. Loading data is not stored.
func (c *Cache) Set(dataType, key string, d Data) {
	if d.State == Loading {
		return
	}
	d.Err = nil
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[cacheKey{dataType, key}] = d
}

// Get returns the cached value of key, calling fetch when nothing is cached
// or, with fetchIfNull, when the cached value is missing. Concurrent calls for
// the same key share one fetch, which outlives the caller that started it;
// each caller stops waiting when its own ctx is done. Failed fetches are not
// cached.
func (c *Cache) Get(ctx context.Context, dataType, key string, fetchIfNull bool, fetch Fetch) (Data, error) {
	if d, ok := c.Peek(dataType, key); ok && (d.State == Ready || !fetchIfNull) {
		return d, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(dataType+"/"+key, func() (any, error) {
		value, ok, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		d := Data{State: Missing}
		if ok {
			d = Data{State: Ready, Value: value}
		}
		c.Set(dataType, key, d)
		return d, nil
	})
	select {
	case <-ctx.Done():
		return Data{State: Missing, Err: ctx.Err()}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Data{State: Missing, Err: res.Err}, res.Err
		}
		return res.Val.(Data), nil
	}
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
