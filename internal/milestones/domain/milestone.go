// Package domain holds the milestone model and the pure window computation.
package domain

import (
	"fmt"
	"sort"
	"time"

	"onboarding_backend/platform/apperr"

	"github.com/google/uuid"
)

// Thresholds and windows supported by the program.
var (
	AllTypes   = []int{1, 5, 25}
	AllWindows = []int{7, 14}
)

// ValidType reports whether t is a supported milestone threshold.
func ValidType(t int) bool {
	return t == 1 || t == 5 || t == 25
}

// ValidWindow reports whether w is a supported window length in days.
func ValidWindow(w int) bool {
	return w == 7 || w == 14
}

// DriverRef is the driver data the engine needs.
type DriverRef struct {
	ID       string
	ParkID   string
	HireDate time.Time
}

// DailyTrips is one day of completed orders.
type DailyTrips struct {
	Date            time.Time
	CompletedOrders int
}

// DayCount is one entry of the persisted trip breakdown.
type DayCount struct {
	Date  string `json:"date"`
	Trips int    `json:"trips"`
}

// Instance is the persisted state of one (driver, type, window) milestone.
type Instance struct {
	ID            uuid.UUID
	DriverID      string
	ParkID        string
	MilestoneType int
	WindowDays    int
	TripCount     int
	FulfilledAt   *time.Time
	CalculatedAt  time.Time
	Breakdown     []DayCount
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Fulfilled reports whether the threshold has ever been reached.
func (i Instance) Fulfilled() bool {
	return i.FulfilledAt != nil
}

// Scope selects the population a batch run covers.
type Scope struct {
	ParkID        string
	WindowDays    int
	MilestoneType *int
	HireDateFrom  *time.Time
	HireDateTo    *time.Time
}

// Validate rejects unsupported windows, types and inverted hire ranges.
func (s Scope) Validate() error {
	if !ValidWindow(s.WindowDays) {
		return apperr.Validation(fmt.Sprintf("windowDays must be one of %v", AllWindows))
	}
	if s.MilestoneType != nil && !ValidType(*s.MilestoneType) {
		return apperr.Validation(fmt.Sprintf("milestoneType must be one of %v", AllTypes))
	}
	if s.HireDateFrom != nil && s.HireDateTo != nil && s.HireDateTo.Before(*s.HireDateFrom) {
		return apperr.Validation("hireDateTo must not be before hireDateFrom")
	}
	return nil
}

// Types returns the thresholds the scope asks for.
func (s Scope) Types() []int {
	if s.MilestoneType != nil {
		return []int{*s.MilestoneType}
	}
	return AllTypes
}

// WindowBounds returns the inclusive calendar range counted for a hire date.
func WindowBounds(hireDate time.Time, windowDays int) (time.Time, time.Time) {
	y, m, d := hireDate.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, windowDays)
}

// WindowResult is the aggregation of one driver over one window.
type WindowResult struct {
	DriverID    string
	WindowDays  int
	WindowStart time.Time
	WindowEnd   time.Time
	TripCount   int
	Breakdown   []DayCount
	Reached     []int
}

// ComputeWindow sums completed orders over hireDate <= d <= hireDate+windowDays
// and lists which of types were reached.
func ComputeWindow(driverID string, hireDate time.Time, windowDays int, summaries []DailyTrips, types []int) WindowResult {
	start, end := WindowBounds(hireDate, windowDays)

	days := make([]DailyTrips, 0, len(summaries))
	for _, s := range summaries {
		y, m, d := s.Date.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if date.Before(start) || date.After(end) {
			continue
		}
		days = append(days, DailyTrips{Date: date, CompletedOrders: s.CompletedOrders})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	res := WindowResult{
		DriverID:    driverID,
		WindowDays:  windowDays,
		WindowStart: start,
		WindowEnd:   end,
		Breakdown:   make([]DayCount, 0, len(days)),
		Reached:     make([]int, 0, len(types)),
	}
	for _, d := range days {
		res.TripCount += d.CompletedOrders
		res.Breakdown = append(res.Breakdown, DayCount{Date: d.Date.Format(time.DateOnly), Trips: d.CompletedOrders})
	}
	for _, t := range types {
		if res.TripCount >= t {
			res.Reached = append(res.Reached, t)
		}
	}
	return res
}

// Change is one instance the engine must write.
type Change struct {
	Instance       Instance
	Created        bool
	NewlyFulfilled bool
}

// Plan merges a window result into the existing instances of a driver.
// Existing instances are always refreshed with the latest count, breakdown and
// calculation time, and keep their first fulfillment. A new instance is only
// created once its threshold is reached, so drivers without qualifying trips
// produce no changes.
func Plan(driver DriverRef, res WindowResult, types []int, existing map[int]Instance, now time.Time) []Change {
	reached := make(map[int]bool, len(res.Reached))
	for _, t := range res.Reached {
		reached[t] = true
	}

	changes := make([]Change, 0, len(types))
	for _, t := range types {
		inst, ok := existing[t]
		switch {
		case ok:
			inst.ParkID = driver.ParkID
			inst.TripCount = res.TripCount
			inst.CalculatedAt = now
			inst.Breakdown = res.Breakdown
			newly := false
			if inst.FulfilledAt == nil && reached[t] {
				at := now
				inst.FulfilledAt = &at
				newly = true
			}
			changes = append(changes, Change{Instance: inst, NewlyFulfilled: newly})
		case reached[t]:
			at := now
			changes = append(changes, Change{
				Instance: Instance{
					ID:            uuid.New(),
					DriverID:      driver.ID,
					ParkID:        driver.ParkID,
					MilestoneType: t,
					WindowDays:    res.WindowDays,
					TripCount:     res.TripCount,
					FulfilledAt:   &at,
					CalculatedAt:  now,
					Breakdown:     res.Breakdown,
				},
				Created:        true,
				NewlyFulfilled: true,
			})
		}
	}
	return changes
}
