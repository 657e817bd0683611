package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"onboarding_backend/platform/apperr"
)

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the calendar day of t lies in the range.
func (r DateRange) Contains(t time.Time) bool {
	d := civil(t)
	return !d.Before(r.From) && !d.After(r.To)
}

// Period is a union of date ranges.
type Period struct {
	Ranges []DateRange
}

// Envelope returns the smallest range covering the period.
func (p Period) Envelope() DateRange {
	if len(p.Ranges) == 0 {
		return DateRange{}
	}
	out := p.Ranges[0]
	for _, r := range p.Ranges[1:] {
		if r.From.Before(out.From) {
			out.From = r.From
		}
		if r.To.After(out.To) {
			out.To = r.To
		}
	}
	return out
}

// Contains reports whether t falls in any range of the period.
func (p Period) Contains(t time.Time) bool {
	for _, r := range p.Ranges {
		if r.Contains(t) {
			return true
		}
	}
	return false
}

// RangePeriod builds a single-range period.
func RangePeriod(from, to time.Time) (Period, error) {
	from, to = civil(from), civil(to)
	if to.Before(from) {
		return Period{}, apperr.Validation("to must not be before from")
	}
	return Period{Ranges: []DateRange{{From: from, To: to}}}, nil
}

// WeeksPeriod builds a period from ISO-8601 week labels (YYYY-Www). Duplicate
// weeks are collapsed and ranges are ordered chronologically.
func WeeksPeriod(labels []string) (Period, error) {
	if len(labels) == 0 {
		return Period{}, apperr.Validation("at least one week is required")
	}

	seen := make(map[string]bool, len(labels))
	ranges := make([]DateRange, 0, len(labels))
	for _, label := range labels {
		if seen[label] {
			continue
		}
		seen[label] = true

		year, week, err := ParseISOWeek(label)
		if err != nil {
			return Period{}, err
		}
		start := ISOWeekStart(year, week)
		ranges = append(ranges, DateRange{From: start, To: start.AddDate(0, 0, 6)})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].From.Before(ranges[j].From) })
	return Period{Ranges: ranges}, nil
}

// ParseISOWeek parses YYYY-Www and rejects weeks the year does not have.
func ParseISOWeek(label string) (int, int, error) {
	m := isoWeekPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, apperr.Validation(fmt.Sprintf("invalid ISO week %q, expected YYYY-Www", label))
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > ISOWeeksInYear(year) {
		return 0, 0, apperr.Validation(fmt.Sprintf("ISO year %d has no week %d", year, week))
	}
	return year, week, nil
}

// ISOWeekStart returns the Monday of an ISO week. Week 1 is the week that
// contains January 4th.
func ISOWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7)
}

// ISOWeeksInYear returns 52 or 53. December 28th always falls in the last
// ISO week of its year.
func ISOWeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
