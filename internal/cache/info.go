package cache

import (
	"encoding/json"
	"runtime"
	"sort"
	"time"
)

// KeyInfo describes one well-known entry.
type KeyInfo struct {
	Cached      bool       `json:"cached"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	Size        int        `json:"size"`
}

// Info is the cache status reported to administrators.
type Info struct {
	Jobs           KeyInfo   `json:"jobs"`
	Companies      KeyInfo   `json:"companies"`
	NextUpdate     time.Time `json:"nextUpdate"`
	TotalCacheSize int       `json:"totalCacheSize"`
	CacheKeys      []string  `json:"cacheKeys"`
}

// Info snapshots the cache status.
func (c *Cache) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Info{
		Jobs:           c.keyInfoLocked(JobsKey),
		Companies:      c.keyInfoLocked(CompaniesKey),
		NextUpdate:     c.schedule.NextUpdate(c.now()),
		TotalCacheSize: len(c.entries),
		CacheKeys:      keys,
	}
}

func (c *Cache) keyInfoLocked(key string) KeyInfo {
	e, ok := c.entries[key]
	if !ok {
		return KeyInfo{}
	}
	ts := e.timestamp
	return KeyInfo{Cached: true, LastUpdated: &ts, Size: itemCount(e.data)}
}

// EntryStats is the monitoring view of one entry.
type EntryStats struct {
	Bytes int    `json:"size"` // length of the JSON encoding
	AgeMs int64  `json:"ageMs"`
	Age   string `json:"ageHuman"`
}

// Stats is the monitoring view of the whole cache.
type Stats struct {
	TotalEntries int                   `json:"totalEntries"`
	HeapAlloc    uint64                `json:"heapAlloc"`
	Entries      map[string]EntryStats `json:"cacheEntries"`
}

// Stats reports per-entry encoded size and age, plus current heap use.
func (c *Cache) Stats() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	stats := Stats{
		TotalEntries: len(c.entries),
		HeapAlloc:    mem.HeapAlloc,
		Entries:      make(map[string]EntryStats, len(c.entries)),
	}
	for k, e := range c.entries {
		size := 0
		if b, err := json.Marshal(e.data); err == nil {
			size = len(b)
		}
		age := now.Sub(e.timestamp)
		stats.Entries[k] = EntryStats{
			Bytes: size,
			AgeMs: age.Milliseconds(),
			Age:   age.Round(time.Second).String(),
		}
	}
	return stats
}
