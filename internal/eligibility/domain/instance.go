// Package domain holds the scout payment model, the eligibility rule and the
// payment instance state machine.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"onboarding_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a payment instance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether an instance may move from one status to
// another. Only pending instances move, and only to paid or cancelled.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusPaid || to == StatusCancelled)
}

// PaymentInstance is one (scout, driver, milestone type) payout line.
type PaymentInstance struct {
	ID                  uuid.UUID
	ScoutID             string
	DriverID            string
	MilestoneType       int
	WindowDays          int
	MilestoneInstanceID *uuid.UUID
	AmountCents         int64
	IsEligible          bool
	EligibilityReason   string
	Status              Status
	PaymentID           *uuid.UUID
	CancelReason        string
	PeriodStart         time.Time
	PeriodEnd           time.Time
	PaidAt              *time.Time
	CancelledAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Payment groups paid instances of one scout.
type Payment struct {
	ID         uuid.UUID
	ScoutID    string
	TotalCents int64
	Instances  []PaymentInstance
	CreatedAt  time.Time
}

// Rules parameterize the eligibility rule.
type Rules struct {
	WindowDays               int
	MinRegistrationsRequired int
	MinConnectionSeconds     int64
	MilestoneTypes           []int
	AmountsCents             map[int]int64
}

// MilestoneFact is what the rule needs to know about one milestone instance.
type MilestoneFact struct {
	DriverID      string
	MilestoneType int
	InstanceID    uuid.UUID
	Fulfilled     bool
}

// DriverFacts gathers the per-driver inputs of the rule.
type DriverFacts struct {
	DriverID          string
	ConnectionSeconds int64
	Milestones        map[int]MilestoneFact
}

// ReasonEligible is stored on instances that pass every gate.
const ReasonEligible = "eligible"

// Evaluate applies the rule to every (driver, milestone type) pair of a
// scout. A pair is eligible when the milestone is fulfilled, the scout has
// reached the registration quorum and the driver connected long enough.
// Ineligible pairs are returned too, with every failed gate in the reason.
func Evaluate(scoutID string, registrations int, drivers []DriverFacts, rules Rules, periodStart, periodEnd time.Time) []PaymentInstance {
	sorted := append([]DriverFacts(nil), drivers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DriverID < sorted[j].DriverID })

	out := make([]PaymentInstance, 0, len(sorted)*len(rules.MilestoneTypes))
	for _, d := range sorted {
		for _, t := range rules.MilestoneTypes {
			inst := PaymentInstance{
				ID:            uuid.New(),
				ScoutID:       scoutID,
				DriverID:      d.DriverID,
				MilestoneType: t,
				WindowDays:    rules.WindowDays,
				AmountCents:   rules.AmountsCents[t],
				Status:        StatusPending,
				PeriodStart:   periodStart,
				PeriodEnd:     periodEnd,
			}

			var reasons []string
			m, ok := d.Milestones[t]
			if ok {
				id := m.InstanceID
				inst.MilestoneInstanceID = &id
			}
			if !ok || !m.Fulfilled {
				reasons = append(reasons, fmt.Sprintf("milestone %d not fulfilled within %d days", t, rules.WindowDays))
			}
			if registrations < rules.MinRegistrationsRequired {
				reasons = append(reasons, fmt.Sprintf("scout has %d registrations, %d required", registrations, rules.MinRegistrationsRequired))
			}
			if d.ConnectionSeconds < rules.MinConnectionSeconds {
				reasons = append(reasons, fmt.Sprintf("driver connected %ds, %ds required", d.ConnectionSeconds, rules.MinConnectionSeconds))
			}

			if len(reasons) == 0 {
				inst.IsEligible = true
				inst.EligibilityReason = ReasonEligible
			} else {
				inst.EligibilityReason = strings.Join(reasons, "; ")
			}
			out = append(out, inst)
		}
	}
	return out
}

// CheckPayable verifies that every requested id was found and can be paid.
// found must hold the scout's instances for the requested ids.
func CheckPayable(requested []uuid.UUID, found []PaymentInstance) error {
	byID, err := matchRequested(requested, found)
	if err != nil {
		return err
	}
	for _, id := range requested {
		inst := byID[id]
		if !CanTransition(inst.Status, StatusPaid) {
			return apperr.StateConflict(fmt.Sprintf("payment instance %s is %s", id, inst.Status))
		}
		if !inst.IsEligible {
			return apperr.StateConflict(fmt.Sprintf("payment instance %s is not eligible: %s", id, inst.EligibilityReason))
		}
	}
	return nil
}

// CheckCancellable verifies that every requested id was found and is pending.
func CheckCancellable(requested []uuid.UUID, found []PaymentInstance) error {
	byID, err := matchRequested(requested, found)
	if err != nil {
		return err
	}
	for _, id := range requested {
		if inst := byID[id]; !CanTransition(inst.Status, StatusCancelled) {
			return apperr.StateConflict(fmt.Sprintf("payment instance %s is %s", id, inst.Status))
		}
	}
	return nil
}

func matchRequested(requested []uuid.UUID, found []PaymentInstance) (map[uuid.UUID]PaymentInstance, error) {
	byID := make(map[uuid.UUID]PaymentInstance, len(found))
	for _, inst := range found {
		byID[inst.ID] = inst
	}
	for _, id := range requested {
		if _, ok := byID[id]; !ok {
			return nil, apperr.NotFound(fmt.Sprintf("payment instance %s not found", id))
		}
	}
	return byID, nil
}

// SumAmounts totals the amount of instances.
func SumAmounts(items []PaymentInstance) int64 {
	var total int64
	for _, it := range items {
		total += it.AmountCents
	}
	return total
}

// UniqueIDs drops duplicate ids, keeping the first occurrence.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ConnectionWindow returns the inclusive range over which work time counts.
func ConnectionWindow(hireDate time.Time, windowDays int) (time.Time, time.Time) {
	y, m, d := hireDate.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, windowDays)
}
