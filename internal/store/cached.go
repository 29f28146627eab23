package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/blockreg-labs/blockreg/internal/content"
)

// Cached is a read-through cache in front of another store. Errors are not
// cached.
type Cached struct {
	next  Store
	cache *gocache.Cache
}

// NewCached wraps next with entries that expire after ttl.
func NewCached(next Store, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// ListRecords serves contentType from the cache or the wrapped store.
func (c *Cached) ListRecords(ctx context.Context, contentType string) ([]content.Record, error) {
	if v, ok := c.cache.Get(contentType); ok {
		if recs, ok := v.([]content.Record); ok {
			return cloneRecords(recs), nil
		}
	}
	recs, err := c.next.ListRecords(ctx, contentType)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(contentType, cloneRecords(recs))
	return recs, nil
}

// Seed writes through and drops the cached entry.
func (c *Cached) Seed(ctx context.Context, contentType string, records []content.Record) error {
	c.cache.Delete(contentType)
	return c.next.Seed(ctx, contentType, records)
}

// Close closes the wrapped store.
func (c *Cached) Close() error {
	c.cache.Flush()
	return c.next.Close()
}
