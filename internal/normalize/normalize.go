// Package normalize converts upstream job records into the canonical model.Job.
package normalize

import (
	"time"

	"github.com/amishk599/oneofjob/internal/model"
)

// isoLayout matches what browsers produce for Date.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Epoch bounds keep the rendered year within four digits.
const (
	minEpochSeconds = -62135596800 // 0001-01-01T00:00:00Z
	maxEpochSeconds = 253402300799 // 9999-12-31T23:59:59Z
)

// DefaultCareers is assigned to records that carry neither "career" nor
// "careers". Upstream has never explained this fallback; it may hide missing
// data rather than describe the posting.
var DefaultCareers = []model.CareerLevel{model.CareerExperienced}

// textLayouts are tried in order when an upstream date arrives as a string.
// Layouts without a zone are read in the process' local zone.
var textLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02", false},
}

// Job converts one raw record. It never fails: absent or malformed fields
// degrade to empty values or defaults.
func Job(raw model.RawJobRecord) model.Job {
	return model.Job{
		ID:             raw.ID,
		Title:          raw.Title,
		Company:        raw.Company,
		Careers:        Careers(raw.Career),
		EmploymentType: raw.EmploymentType,
		StartDate:      Timestamp(raw.StartDate),
		EndDate:        Timestamp(raw.EndDate),
		Period:         raw.Period,
		URL:            raw.URL,
	}
}

// Jobs converts a collection, preserving order.
func Jobs(raws []model.RawJobRecord) []model.Job {
	jobs := make([]model.Job, 0, len(raws))
	for _, r := range raws {
		jobs = append(jobs, Job(r))
	}
	return jobs
}

// Careers resolves the career list. The result is never empty and never
// aliases the input slice.
func Careers(spec model.CareerSpec) []model.CareerLevel {
	if spec.Kind != model.CareerUnset && len(spec.Levels) > 0 {
		return append([]model.CareerLevel(nil), spec.Levels...)
	}
	return append([]model.CareerLevel(nil), DefaultCareers...)
}

// Timestamp renders an upstream date as an ISO-8601 UTC string, or "" when the
// date is absent or cannot be parsed.
func Timestamp(t model.RawTime) string {
	switch t.Kind {
	case model.TimeText:
		parsed, ok := parseText(t.Text)
		if !ok {
			return ""
		}
		return Format(parsed)
	case model.TimeEpoch:
		if t.Seconds > maxEpochSeconds || t.Seconds < minEpochSeconds {
			return ""
		}
		ms := t.Seconds*1000 + t.Nanoseconds/1_000_000
		tm := time.UnixMilli(ms).UTC()
		if y := tm.Year(); y < 1 || y > 9999 {
			return ""
		}
		return Format(tm)
	default:
		return ""
	}
}

// Format renders t the way Timestamp does.
func Format(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func parseText(s string) (time.Time, bool) {
	for _, l := range textLayouts {
		var (
			t   time.Time
			err error
		)
		if l.local {
			t, err = time.ParseInLocation(l.layout, s, time.Local)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
