package cache

import (
	"context"
	"time"

	"github.com/amishk599/oneofjob/internal/model"
)

// GetData serves key from the cache while it is younger than ttl, otherwise
// calls fetcher and stores the result. A non-positive ttl means DefaultTTL.
// TTL entries live in memory only.
func GetData[T any](ctx context.Context, c *Cache, key string, fetcher func(context.Context) (T, error), ttl time.Duration) (T, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return get(ctx, c, key, fetcher, ttlPolicy(ttl))
}

// JobKeyPrefix namespaces single-job entries cached by Details.
const JobKeyPrefix = "job:"

// Details caches single-job lookups in TTL mode. Failed lookups are not
// cached, and Invalidate drops them along with the listings.
type Details struct {
	cache *Cache
	inner model.JobDetailFetcher
	ttl   time.Duration
}

var _ model.JobDetailFetcher = (*Details)(nil)

// NewDetails wraps inner so each job is fetched at most once per ttl.
func NewDetails(c *Cache, inner model.JobDetailFetcher, ttl time.Duration) *Details {
	return &Details{cache: c, inner: inner, ttl: ttl}
}

func (d *Details) FetchJob(ctx context.Context, id string) (model.Job, error) {
	return GetData(ctx, d.cache, JobKeyPrefix+id, func(ctx context.Context) (model.Job, error) {
		return d.inner.FetchJob(ctx, id)
	}, d.ttl)
}
