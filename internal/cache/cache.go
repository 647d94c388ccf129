// Package cache is the process-wide response cache. Job and company listings
// follow the crawler's daily schedule; arbitrary keys can use a TTL instead.
package cache

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/amishk599/oneofjob/internal/model"
)

const (
	JobsKey      = "jobs-list"
	CompaniesKey = "companies-list"

	// DefaultTTL applies to GetData calls that pass a non-positive ttl.
	DefaultTTL = 60 * time.Minute
)

type entry struct {
	data          any
	timestamp     time.Time // when the entry was written
	lastCrawlTime time.Time // crawl the data reflects
}

// Cache holds fetched collections for the life of the process. It is safe
// for concurrent use. Returned slices are shared between callers and must
// not be modified.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	// generation counts invalidations. A fetch stores its result only if no
	// invalidation happened while it ran. Guarded by mu.
	generation uint64
	group      singleflight.Group
	// storeMu orders snapshot writes against Invalidate's store.Clear.
	storeMu sync.Mutex

	jobs      model.JobFetcher
	companies model.CompanyFetcher
	schedule  CrawlSchedule
	fallback  []string
	store     model.SnapshotStore
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithFallbackCompanies sets the list served when the company fetch fails.
func WithFallbackCompanies(names []string) Option {
	return func(c *Cache) { c.fallback = slices.Clone(names) }
}

// WithSnapshotStore persists crawl-aligned entries to s.
func WithSnapshotStore(s model.SnapshotStore) Option {
	return func(c *Cache) { c.store = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache backed by the given fetchers.
func New(jobs model.JobFetcher, companies model.CompanyFetcher, schedule CrawlSchedule, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[string]entry),
		jobs:      jobs,
		companies: companies,
		schedule:  schedule,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule returns the crawl schedule the cache follows.
func (c *Cache) Schedule() CrawlSchedule {
	return c.schedule
}

// Jobs returns the job listing, refetching once the next crawl has passed.
func (c *Cache) Jobs(ctx context.Context) ([]model.Job, error) {
	return crawlAligned(ctx, c, JobsKey, c.jobs.FetchJobs)
}

// Companies returns the company names, refetching on the crawl schedule.
// A failed fetch is logged and answered with the fallback list, which is not
// cached so the next request tries again.
func (c *Cache) Companies(ctx context.Context) []string {
	companies, err := crawlAligned(ctx, c, CompaniesKey, c.companies.FetchCompanies)
	if err != nil {
		c.logger.Warn("company fetch failed, serving fallback list", "error", err, "fallback", c.fallback)
		return slices.Clone(c.fallback)
	}
	return companies
}

// IsValid reports whether the crawl-aligned entry for key is still fresh.
// Missing keys are not valid.
func (c *Cache) IsValid(key string) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && c.schedule.IsFresh(e.lastCrawlTime, c.now())
}

// NextUpdate returns when crawl-aligned entries next go stale.
func (c *Cache) NextUpdate() time.Time {
	return c.schedule.NextUpdate(c.now())
}

// Invalidate drops every entry, including persisted snapshots. Fetches
// already running when it is called neither store nor persist their result.
func (c *Cache) Invalidate() {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	n := len(c.entries)
	clear(c.entries)
	c.generation++
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Error("clearing cache snapshots", "error", err)
		}
	}
	c.logger.Info("cache invalidated", "keys", n)
}

// InvalidateKey drops a single entry. Like Invalidate it also discards the
// results of fetches already running.
func (c *Cache) InvalidateKey(key string) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	delete(c.entries, key)
	c.generation++
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(key); err != nil {
			c.logger.Error("deleting cache snapshot", "key", key, "error", err)
		}
	}
	c.logger.Info("cache key invalidated", "key", key)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// policy decides when an entry is fresh and how a new entry is stamped.
type policy struct {
	name    string
	fresh   func(e entry, now time.Time) bool
	stamp   func(now time.Time) time.Time // lastCrawlTime of a new entry
	persist bool
}

func (c *Cache) crawlPolicy() policy {
	return policy{
		name: "crawl",
		fresh: func(e entry, now time.Time) bool {
			return c.schedule.IsFresh(e.lastCrawlTime, now)
		},
		stamp:   c.schedule.LastCrawl,
		persist: true,
	}
}

func ttlPolicy(ttl time.Duration) policy {
	return policy{
		name: "ttl",
		fresh: func(e entry, now time.Time) bool {
			return now.Sub(e.timestamp) < ttl
		},
		stamp: func(now time.Time) time.Time { return now },
	}
}

// crawlAligned serves key while the crawl schedule says it is fresh.
func crawlAligned[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	return get(ctx, c, key, fetch, c.crawlPolicy())
}

func get[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error), p policy) (T, error) {
	if v, e, ok := lookup[T](c, key); ok {
		now := c.now()
		if p.fresh(e, now) {
			c.logger.Debug("cache hit", "key", key, "policy", p.name, "age", now.Sub(e.timestamp).Round(time.Second))
			return v, nil
		}
	}

	c.logger.Info("cache miss, fetching", "key", key, "policy", p.name)
	return load(ctx, c, key, fetch, p)
}

// lookup returns the entry for key if present and holding a T.
func lookup[T any](c *Cache, key string) (T, entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, entry{}, false
	}
	v, ok := e.data.(T)
	if !ok {
		return zero, entry{}, false
	}
	return v, e, true
}

// load runs fetch once per key and generation across concurrent callers and
// stores the result. Callers arriving after an invalidation start a new
// flight instead of joining one that began before it. Fetch errors are
// returned unchanged and leave any existing entry in place.
func load[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error), p policy) (T, error) {
	// The shared fetch outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// A flight that finished between our lookup and Do already stored it.
		if v, e, ok := lookup[T](c, key); ok && p.fresh(e, c.now()) {
			return v, nil
		}

		data, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		now := c.now()
		e := entry{data: data, timestamp: now, lastCrawlTime: p.stamp(now)}

		if !c.commit(key, e, gen, p.persist) {
			c.logger.Info("discarding fetch that overlapped an invalidation", "key", key)
		}
		return data, nil
	})

	var zero T
	if err != nil {
		return zero, err
	}
	data, ok := v.(T)
	if !ok {
		// Another caller loaded the same key with a different type.
		return zero, &TypeMismatchError{Key: key}
	}
	return data, nil
}

// itemCount mirrors a JavaScript `data.length`: slices, arrays, maps and
// strings report their length, everything else 0.
func itemCount(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len()
	default:
		return 0
	}
}

// commit writes e unless the cache was invalidated since generation gen. It
// reports whether e was kept.
func (c *Cache) commit(key string, e entry, gen uint64, persist bool) bool {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return false
	}
	c.entries[key] = e
	c.mu.Unlock()

	if persist {
		c.persist(key, e)
	}
	return true
}
