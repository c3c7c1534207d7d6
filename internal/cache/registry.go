package cache

import (
	"fmt"
	"sort"
)

// Registry holds one KeyIDCache per referenced kind. A Registry lives for a
// single run so concurrent runs never share entries.
type Registry struct {
	caches map[string]*KeyIDCache
}

// NewRegistry creates a cache per fetcher kind.
func NewRegistry(capacity int, fetchers map[string]Fetcher) (*Registry, error) {
	r := &Registry{caches: make(map[string]*KeyIDCache, len(fetchers))}
	for kind, f := range fetchers {
		c, err := New(kind, capacity, f)
		if err != nil {
			return nil, err
		}
		r.caches[kind] = c
	}
	return r, nil
}

// For returns the cache for kind.
func (r *Registry) For(kind string) (*KeyIDCache, error) {
	c, ok := r.caches[kind]
	if !ok {
		return nil, fmt.Errorf("no key lookup registered for %q", kind)
	}
	return c, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.caches))
	for k := range r.caches {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
