package filter

import (
	"slices"
	"strings"

	"github.com/amishk599/oneofjob/internal/model"
)

// Criteria is the user's job filter. Values within a dimension are OR-ed and
// the dimensions are AND-ed together. An empty dimension matches every job.
type Criteria struct {
	Companies []string
	Careers   []model.CareerLevel
	Keyword   string
}

// IsZero reports whether no filter is active.
func (c Criteria) IsZero() bool {
	return len(c.Companies) == 0 && len(c.Careers) == 0 && strings.TrimSpace(c.Keyword) == ""
}

// Match returns true if the job is at one of the selected companies, open to
// one of the selected career levels, and mentions the keyword in its title or
// company name. Company and keyword matching are case-insensitive.
func (c Criteria) Match(job model.Job) bool {
	if len(c.Companies) > 0 {
		matched := false
		for _, company := range c.Companies {
			if strings.EqualFold(job.Company, company) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(c.Careers) > 0 {
		matched := false
		for _, level := range c.Careers {
			if job.HasCareer(level) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if kw := strings.ToLower(strings.TrimSpace(c.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(job.Title), kw) &&
			!strings.Contains(strings.ToLower(job.Company), kw) {
			return false
		}
	}

	return true
}

// Apply returns the jobs accepted by f, in their original order.
func Apply(jobs []model.Job, f model.JobFilter) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

// Companies returns the distinct company names in jobs, sorted.
func Companies(jobs []model.Job) []string {
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Company)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
