package domain

import (
	"testing"
	"time"

	"onboarding_backend/platform/apperr"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestISOWeekYearBoundaries(t *testing.T) {
	cases := []struct {
		label string
		start time.Time
	}{
		{"2025-W01", date(2024, time.December, 30)},
		{"2020-W53", date(2020, time.December, 28)},
		{"2021-W01", date(2021, time.January, 4)},
		{"2026-W01", date(2025, time.December, 29)},
		{"2015-W53", date(2015, time.December, 28)},
	}
	for _, tc := range cases {
		year, week, err := ParseISOWeek(tc.label)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.label, err)
		}
		if got := ISOWeekStart(year, week); !got.Equal(tc.start) {
			t.Fatalf("%s: expected start %s, got %s", tc.label, tc.start.Format(time.DateOnly), got.Format(time.DateOnly))
		}
	}
}

func TestISOWeekRejectsMissingWeek53(t *testing.T) {
	if _, _, err := ParseISOWeek("2021-W53"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected 2021-W53 to be rejected, got %v", err)
	}
	if _, _, err := ParseISOWeek("2026-W00"); err == nil {
		t.Fatalf("expected week 0 to be rejected")
	}
	if _, _, err := ParseISOWeek("2026-5"); err == nil {
		t.Fatalf("expected malformed label to be rejected")
	}
}

func TestWeeksPeriodSpanningNewYear(t *testing.T) {
	p, err := WeeksPeriod([]string{"2025-W01", "2024-W52", "2025-W01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Ranges) != 2 {
		t.Fatalf("expected duplicates collapsed, got %d ranges", len(p.Ranges))
	}
	env := p.Envelope()
	if !env.From.Equal(date(2024, time.December, 23)) || !env.To.Equal(date(2025, time.January, 5)) {
		t.Fatalf("unexpected envelope %s..%s", env.From.Format(time.DateOnly), env.To.Format(time.DateOnly))
	}
	if !p.Contains(date(2025, time.January, 1)) || p.Contains(date(2025, time.January, 6)) {
		t.Fatalf("unexpected membership")
	}
}

func TestRangePeriodRejectsInvertedRange(t *testing.T) {
	if _, err := RangePeriod(date(2026, 2, 2), date(2026, 2, 1)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
