package resolve

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes successful lookups keyed by the exact URL string.
// The underlying LRU has a fixed capacity and is safe for concurrent
// use; failed lookups are not cached since they may be transient.
type Cached struct {
	inner Resolver
	cache *lru.Cache[string, Source]
}

func NewCached(inner Resolver, capacity int) (*Cached, error) {
	cache, err := lru.New[string, Source](capacity)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Resolve(ctx context.Context, url string) (Source, error) {
	if src, ok := c.cache.Get(url); ok {
		return src, nil
	}
	src, err := c.inner.Resolve(ctx, url)
	if err != nil {
		return Source{}, err
	}
	c.cache.Add(url, src)
	return src, nil
}
