package cache

import (
	"fmt"
	"time"
)

// CrawlSchedule is the time of day at which the external crawler refreshes
// upstream data. Crawl-aligned entries are fresh until the next crawl passes.
type CrawlSchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// DailyAt returns a schedule for hour:minute in loc. A nil loc means time.Local.
func DailyAt(hour, minute int, loc *time.Location) CrawlSchedule {
	if loc == nil {
		loc = time.Local
	}
	return CrawlSchedule{Hour: hour, Minute: minute, Location: loc}
}

// DefaultSchedule is 10:00 local time, when the crawler runs.
func DefaultSchedule() CrawlSchedule {
	return DailyAt(10, 0, time.Local)
}

func (s CrawlSchedule) String() string {
	return fmt.Sprintf("%02d:%02d %s", s.Hour, s.Minute, s.loc())
}

func (s CrawlSchedule) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// crawlOn returns the crawl instant on the calendar day of t, offset by days.
func (s CrawlSchedule) crawlOn(t time.Time, days int) time.Time {
	t = t.In(s.loc())
	y, m, d := t.Date()
	return time.Date(y, m, d+days, s.Hour, s.Minute, 0, 0, s.loc())
}

// Today returns today's crawl instant relative to now.
func (s CrawlSchedule) Today(now time.Time) time.Time {
	return s.crawlOn(now, 0)
}

// LastCrawl returns the most recent crawl instant at or before now.
func (s CrawlSchedule) LastCrawl(now time.Time) time.Time {
	today := s.Today(now)
	if now.Before(today) {
		return s.crawlOn(now, -1)
	}
	return today
}

// IsFresh reports whether an entry stamped with lastCrawl still reflects the
// latest crawl. Before today's crawl, yesterday's crawl still counts.
func (s CrawlSchedule) IsFresh(lastCrawl, now time.Time) bool {
	today := s.Today(now)
	if now.Before(today) {
		return !lastCrawl.Before(s.crawlOn(now, -1))
	}
	return !lastCrawl.Before(today)
}

// NextUpdate returns today's crawl if it has not happened yet, else tomorrow's.
func (s CrawlSchedule) NextUpdate(now time.Time) time.Time {
	today := s.Today(now)
	if now.Before(today) {
		return today
	}
	return s.crawlOn(now, 1)
}
