package cache

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds each cache. Large enough for a typical catalog run
// to avoid refetching, small enough to cap memory.
const DefaultCapacity = 10_000

// Fetcher looks up backend ids for keys. Keys that do not exist are omitted
// from the result.
type Fetcher interface {
	FetchIDsByKeys(ctx context.Context, keys []string) (map[string]string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, keys []string) (map[string]string, error)

// FetchIDsByKeys calls f.
func (f FetcherFunc) FetchIDsByKeys(ctx context.Context, keys []string) (map[string]string, error) {
	return f(ctx, keys)
}

// KeyIDCache is a bounded key to id cache for one entity kind.
type KeyIDCache struct {
	kind    string
	entries *lru.Cache[string, string]
	fetcher Fetcher
	group   singleflight.Group
}

// New creates a cache for kind. capacity <= 0 selects DefaultCapacity.
func New(kind string, capacity int, fetcher Fetcher) (*KeyIDCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", kind, err)
	}
	return &KeyIDCache{kind: kind, entries: entries, fetcher: fetcher}, nil
}

// Kind returns the entity kind whose keys are cached.
func (c *KeyIDCache) Kind() string { return c.kind }

// Get returns the cached id for key.
func (c *KeyIDCache) Get(key string) (string, bool) {
	return c.entries.Get(key)
}

// Put records key -> id, evicting the least recently used entry when full.
func (c *KeyIDCache) Put(key, id string) {
	c.entries.Add(key, id)
}

// Len returns the number of cached entries.
func (c *KeyIDCache) Len() int {
	return c.entries.Len()
}

// FetchAndCache returns ids for every key that exists, querying the backend
// only for keys not already cached. Blank keys are ignored.
func (c *KeyIDCache) FetchAndCache(ctx context.Context, keys []string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		if k == "" {
			continue
		}
		if id, ok := c.entries.Get(k); ok {
			found[k] = id
			continue
		}
		if !slices.Contains(missing, k) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 || c.fetcher == nil {
		return found, nil
	}

	fetched, err := c.fetcher.FetchIDsByKeys(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("fetch %s ids for %d keys: %w", c.kind, len(missing), err)
	}
	for k, id := range fetched {
		c.entries.Add(k, id)
		found[k] = id
	}
	return found, nil
}

// Resolve returns the id for key from the cache, falling back to the backend.
// ok is false when the key does not exist remotely.
func (c *KeyIDCache) Resolve(ctx context.Context, key string) (id string, ok bool, err error) {
	if id, ok := c.entries.Get(key); ok {
		return id, true, nil
	}
	if c.fetcher == nil {
		return "", false, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		fetched, err := c.FetchAndCache(ctx, []string{key})
		if err != nil {
			return "", err
		}
		return fetched[key], nil
	})
	if err != nil {
		return "", false, err
	}
	id = v.(string)
	return id, id != "", nil
}
