package model

import (
	"context"
	"time"
)

// CareerLevel is the seniority bucket a posting is open to.
type CareerLevel string

const (
	CareerNewGrad     CareerLevel = "신입"
	CareerExperienced CareerLevel = "경력"
	CareerIntern      CareerLevel = "인턴"
)

// CareerLevels lists the known levels in display order.
var CareerLevels = []CareerLevel{CareerNewGrad, CareerExperienced, CareerIntern}

// EmploymentKind is the contract type of a posting.
type EmploymentKind string

const (
	EmploymentPermanent EmploymentKind = "정규직"
	EmploymentTemporary EmploymentKind = "비정규직"
)

// Job is the canonical, normalized job posting served to every caller.
// StartDate and EndDate are ISO-8601 strings or empty when unknown.
type Job struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Careers        []CareerLevel  `json:"careers"`
	EmploymentType EmploymentKind `json:"employmentType"`
	StartDate      string         `json:"startDate,omitempty"`
	EndDate        string         `json:"endDate,omitempty"`
	Period         string         `json:"period,omitempty"` // free-text deadline, wins over EndDate in display
	URL            string         `json:"url"`
}

// HasCareer reports whether the job is open to the given level.
func (j Job) HasCareer(level CareerLevel) bool {
	for _, c := range j.Careers {
		if c == level {
			return true
		}
	}
	return false
}

// StartTime parses StartDate. ok is false when the date is absent or unparseable.
func (j Job) StartTime() (t time.Time, ok bool) {
	return parseISO(j.StartDate)
}

// EndTime parses EndDate. ok is false when the date is absent or unparseable.
func (j Job) EndTime() (t time.Time, ok bool) {
	return parseISO(j.EndDate)
}

func parseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// JobFetcher fetches the full job listing from the upstream API.
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Job, error)
}

// JobDetailFetcher fetches a single job by ID from the upstream API.
type JobDetailFetcher interface {
	FetchJob(ctx context.Context, id string) (Job, error)
}

// CompanyFetcher fetches the list of supported company names.
type CompanyFetcher interface {
	FetchCompanies(ctx context.Context) ([]string, error)
}

// JobFilter decides whether a job matches the user's criteria.
type JobFilter interface {
	Match(job Job) bool
}

// Snapshot is a persisted copy of one crawl-aligned cache entry.
type Snapshot struct {
	Key           string
	Data          []byte // JSON-encoded entry payload
	Timestamp     time.Time
	LastCrawlTime time.Time
}

// SnapshotStore persists crawl-aligned cache entries so a restarted process
// can serve the last crawl without refetching.
type SnapshotStore interface {
	Save(snap Snapshot) error
	LoadAll() ([]Snapshot, error)
	Delete(key string) error
	Clear() error
}
