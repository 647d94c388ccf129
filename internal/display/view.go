package display

import (
	"time"

	"github.com/amishk599/oneofjob/internal/model"
)

// JobView is a job plus the labels a listing card or detail page shows.
type JobView struct {
	model.Job
	Deadline  string `json:"deadlineLabel"`
	Expired   bool   `json:"expired"`
	DateRange string `json:"dateRange"`
	Posted    string `json:"postedLabel"`
	LogoPath  string `json:"logoPath"`
}

// NewJobView builds the view of job as of now, rendering dates in now's
// location.
func NewJobView(job model.Job, now time.Time) JobView {
	loc := now.Location()
	return JobView{
		Job:       job,
		Deadline:  DeadlineLabel(job, now),
		Expired:   IsExpired(job, now),
		DateRange: DateRange(job, loc),
		Posted:    FormatDate(job.StartDate, loc),
		LogoPath:  LogoPath(job.Company),
	}
}

// Views builds a JobView for every job.
func Views(jobs []model.Job, now time.Time) []JobView {
	out := make([]JobView, len(jobs))
	for i, j := range jobs {
		out[i] = NewJobView(j, now)
	}
	return out
}
