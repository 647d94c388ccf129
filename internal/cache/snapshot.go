package cache

import (
	"encoding/json"
	"fmt"

	"github.com/amishk599/oneofjob/internal/model"
)

func (c *Cache) persist(key string, e entry) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(e.data)
	if err != nil {
		c.logger.Error("encoding cache snapshot", "key", key, "error", err)
		return
	}
	snap := model.Snapshot{
		Key:           key,
		Data:          data,
		Timestamp:     e.timestamp,
		LastCrawlTime: e.lastCrawlTime,
	}
	if err := c.store.Save(snap); err != nil {
		c.logger.Error("saving cache snapshot", "key", key, "error", err)
	}
}

// Restore loads persisted snapshots that are still fresh for the current
// crawl. It returns how many entries were restored.
func (c *Cache) Restore() (int, error) {
	if c.store == nil {
		return 0, nil
	}
	snaps, err := c.store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("loading cache snapshots: %w", err)
	}

	now := c.now()
	restored := 0
	for _, s := range snaps {
		if !c.schedule.IsFresh(s.LastCrawlTime, now) {
			c.logger.Debug("skipping stale snapshot", "key", s.Key, "last_crawl", s.LastCrawlTime)
			continue
		}
		data, err := decodeSnapshot(s)
		if err != nil {
			c.logger.Warn("skipping unreadable snapshot", "key", s.Key, "error", err)
			continue
		}
		c.mu.Lock()
		c.entries[s.Key] = entry{data: data, timestamp: s.Timestamp, lastCrawlTime: s.LastCrawlTime}
		c.mu.Unlock()
		restored++
	}

	c.logger.Info("restored cache snapshots", "restored", restored, "stored", len(snaps))
	return restored, nil
}

func decodeSnapshot(s model.Snapshot) (any, error) {
	switch s.Key {
	case JobsKey:
		var jobs []model.Job
		if err := json.Unmarshal(s.Data, &jobs); err != nil {
			return nil, err
		}
		return jobs, nil
	case CompaniesKey:
		var names []string
		if err := json.Unmarshal(s.Data, &names); err != nil {
			return nil, err
		}
		return names, nil
	default:
		return nil, fmt.Errorf("unknown snapshot key %q", s.Key)
	}
}
