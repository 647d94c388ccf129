package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/amishk599/oneofjob/internal/model"
)

// SortOption names a listing order.
type SortOption string

const (
	SortRecent   SortOption = "recent"   // newest start date first
	SortDeadline SortOption = "deadline" // soonest end date first
	SortCompany  SortOption = "company"  // company name A-Z
)

// NoDeadlinePeriod marks a posting that stays open until filled.
const NoDeadlinePeriod = "채용 마감 기한 없음"

// ParseSort maps a query value to a SortOption. Unknown values mean SortRecent.
func ParseSort(s string) SortOption {
	switch SortOption(strings.ToLower(strings.TrimSpace(s))) {
	case SortDeadline:
		return SortDeadline
	case SortCompany:
		return SortCompany
	default:
		return SortRecent
	}
}

// Sort returns a sorted copy of jobs. The input is not modified and ties keep
// their input order.
func Sort(jobs []model.Job, by SortOption) []model.Job {
	out := slices.Clone(jobs)
	switch by {
	case SortDeadline:
		slices.SortStableFunc(out, compareDeadline)
	case SortCompany:
		slices.SortStableFunc(out, func(a, b model.Job) int {
			return strings.Compare(a.Company, b.Company)
		})
	default:
		slices.SortStableFunc(out, compareRecent)
	}
	return out
}

// startOrEpoch treats a missing start date as the oldest possible posting.
func startOrEpoch(j model.Job) time.Time {
	if t, ok := j.StartTime(); ok {
		return t
	}
	return time.Unix(0, 0)
}

func compareRecent(a, b model.Job) int {
	return startOrEpoch(b).Compare(startOrEpoch(a))
}

// HasDeadline reports whether the job closes on a known date.
func HasDeadline(j model.Job) bool {
	if strings.Contains(j.Period, NoDeadlinePeriod) {
		return false
	}
	_, ok := j.EndTime()
	return ok
}

func compareDeadline(a, b model.Job) int {
	da, db := HasDeadline(a), HasDeadline(b)
	switch {
	case !da && !db:
		return compareRecent(a, b)
	case !da:
		return 1
	case !db:
		return -1
	}
	ea, _ := a.EndTime()
	eb, _ := b.EndTime()
	return cmp.Compare(ea.UnixNano(), eb.UnixNano())
}
