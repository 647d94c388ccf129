// Package display turns jobs into the labels shown in listings and detail
// views. Dates are rendered in the location of the supplied reference time.
package display

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amishk599/oneofjob/internal/model"
)

const (
	LabelAlwaysOpen = "상시채용"
	LabelClosed     = "마감됨"
	LabelLastDay    = "오늘 마감"
	LabelUndecided  = "미정"
)

// DeadlineLabel describes how long the job stays open as of now. A free-text
// period wins over the end date.
func DeadlineLabel(job model.Job, now time.Time) string {
	if p := strings.TrimSpace(job.Period); p != "" {
		return p
	}
	return RemainingDays(job.EndDate, now)
}

// RemainingDays counts calendar days from now until the ISO date end.
func RemainingDays(end string, now time.Time) string {
	t, ok := (model.Job{EndDate: end}).EndTime()
	if !ok {
		return LabelAlwaysOpen
	}
	switch days := daysBetween(now, t); {
	case days < 0:
		return LabelClosed
	case days == 0:
		return LabelLastDay
	default:
		return fmt.Sprintf("%d일 남음", days)
	}
}

// daysBetween counts midnights from a to b in a's location.
func daysBetween(a, b time.Time) int {
	loc := a.Location()
	ay, am, ad := a.Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// IsExpired reports whether the job's end date has passed.
func IsExpired(job model.Job, now time.Time) bool {
	t, ok := job.EndTime()
	return ok && t.Before(now)
}

// FormatDate renders an ISO date as "2025년 4월 30일" in loc, or "미정" when
// the date is absent or unreadable.
func FormatDate(iso string, loc *time.Location) string {
	t, ok := (model.Job{StartDate: iso}).StartTime()
	if !ok {
		return LabelUndecided
	}
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

// DateRange renders "start ~ end" with FormatDate.
func DateRange(job model.Job, loc *time.Location) string {
	return FormatDate(job.StartDate, loc) + " ~ " + FormatDate(job.EndDate, loc)
}

// Truncate shortens text to at most max runes, appending "..." when cut.
func Truncate(text string, max int) string {
	if max < 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "..."
}

// LogoPath is the static asset path of a company's logo.
func LogoPath(company string) string {
	return "/images/companies/" + strings.ToLower(strings.TrimSpace(company)) + ".svg"
}

// CareerList joins career levels for display.
func CareerList(levels []model.CareerLevel) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
