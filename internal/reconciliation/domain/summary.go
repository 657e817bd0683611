// Package domain holds the pure reconciliation rollups and ISO week periods.
package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Registration is one scout registration record.
type Registration struct {
	RecordID      uuid.UUID
	ScoutID       string
	DriverID      string
	ReferenceDate time.Time
}

// Fulfillment is one fulfilled (driver, milestone type) pair.
type Fulfillment struct {
	DriverID      string
	MilestoneType int
}

// PartnerPayment is one payment transaction reported by the partner.
type PartnerPayment struct {
	DriverID      string
	MilestoneType int
	AmountCents   int64
	PaidAt        time.Time
}

// Input is everything a summary is computed from.
type Input struct {
	Period         Period
	MilestoneTypes []int
	Registrations  []Registration
	LeadDrivers    []string
	Fulfillments   []Fulfillment
	Payments       []PartnerPayment
}

// Totals are the headline counts of a summary.
type Totals struct {
	Registrados    int         `json:"registrados"`
	PorCabinet     int         `json:"porCabinet"`
	PorOtrosMedios int         `json:"porOtrosMedios"`
	ConMatch       int         `json:"conMatch"`
	SinMatch       int         `json:"sinMatch"`
	Milestones     map[int]int `json:"milestones"`
	Pagados        int         `json:"pagados"`
	PagadoCents    int64       `json:"pagadoCents"`
}

// ScoutRollup is the per-scout slice of the totals.
type ScoutRollup struct {
	ScoutID string `json:"scoutId"`
	Totals
}

// DriverMilestone identifies one (driver, type) pair in an inconsistency list.
type DriverMilestone struct {
	DriverID      string `json:"driverId"`
	MilestoneType int    `json:"milestoneType"`
}

// Inconsistencies are the four named mismatch classes.
type Inconsistencies struct {
	SinMatch         []uuid.UUID       `json:"sinMatch"`
	SinPago          []string          `json:"sinPago"`
	PagoSinMilestone []DriverMilestone `json:"pagoSinMilestone"`
	MilestoneSinPago []DriverMilestone `json:"milestoneSinPago"`
}

// Summary is the reconciliation result for a period.
type Summary struct {
	Totals          Totals          `json:"totals"`
	Scouts          []ScoutRollup   `json:"scouts"`
	Inconsistencies Inconsistencies `json:"inconsistencies"`
}

type pairKey struct {
	driverID string
	typ      int
}

// Aggregate joins registrations, lead matches, milestones and partner payments
// by driver id. Registrations and payments outside the period are ignored.
// A registration counts as porCabinet when its driver also has a matched lead;
// every other registration counts as porOtrosMedios. Payments to drivers
// without a matched registration still surface in pagoSinMilestone.
func Aggregate(in Input) Summary {
	leads := toSet(in.LeadDrivers)

	fulfilled := make(map[pairKey]bool, len(in.Fulfillments))
	for _, f := range in.Fulfillments {
		fulfilled[pairKey{f.DriverID, f.MilestoneType}] = true
	}

	paidPairs := make(map[pairKey]bool, len(in.Payments))
	paidDrivers := make(map[string]bool, len(in.Payments))
	paidCents := make(map[string]int64, len(in.Payments))
	for _, p := range in.Payments {
		if !in.Period.Contains(p.PaidAt) {
			continue
		}
		paidPairs[pairKey{p.DriverID, p.MilestoneType}] = true
		paidDrivers[p.DriverID] = true
		paidCents[p.DriverID] += p.AmountCents
	}

	regs := make([]Registration, 0, len(in.Registrations))
	for _, r := range in.Registrations {
		if in.Period.Contains(r.ReferenceDate) {
			regs = append(regs, r)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].ScoutID != regs[j].ScoutID {
			return regs[i].ScoutID < regs[j].ScoutID
		}
		return regs[i].RecordID.String() < regs[j].RecordID.String()
	})

	overall := newAccumulator()
	byScout := make(map[string]*accumulator)
	scoutOrder := make([]string, 0)
	var sinMatch []uuid.UUID

	for _, r := range regs {
		acc, ok := byScout[r.ScoutID]
		if !ok {
			acc = newAccumulator()
			byScout[r.ScoutID] = acc
			scoutOrder = append(scoutOrder, r.ScoutID)
		}
		overall.add(r, leads)
		acc.add(r, leads)
		if r.DriverID == "" {
			sinMatch = append(sinMatch, r.RecordID)
		}
	}

	scouts := make([]ScoutRollup, 0, len(scoutOrder))
	for _, id := range scoutOrder {
		scouts = append(scouts, ScoutRollup{ScoutID: id, Totals: byScout[id].totals(in.MilestoneTypes, fulfilled, paidDrivers, paidCents)})
	}

	matched := overall.sortedDrivers()
	inc := Inconsistencies{
		SinMatch:         nonNil(sinMatch),
		SinPago:          make([]string, 0),
		PagoSinMilestone: make([]DriverMilestone, 0),
		MilestoneSinPago: make([]DriverMilestone, 0),
	}
	for _, d := range matched {
		if !paidDrivers[d] {
			inc.SinPago = append(inc.SinPago, d)
		}
		for _, t := range in.MilestoneTypes {
			k := pairKey{d, t}
			switch {
			case paidPairs[k] && !fulfilled[k]:
				inc.PagoSinMilestone = append(inc.PagoSinMilestone, DriverMilestone{DriverID: d, MilestoneType: t})
			case fulfilled[k] && !paidPairs[k]:
				inc.MilestoneSinPago = append(inc.MilestoneSinPago, DriverMilestone{DriverID: d, MilestoneType: t})
			}
		}
	}

	unregistered := make([]string, 0)
	for d := range paidDrivers {
		if !overall.drivers[d] {
			unregistered = append(unregistered, d)
		}
	}
	sort.Strings(unregistered)
	for _, d := range unregistered {
		for _, t := range in.MilestoneTypes {
			k := pairKey{d, t}
			if paidPairs[k] && !fulfilled[k] {
				inc.PagoSinMilestone = append(inc.PagoSinMilestone, DriverMilestone{DriverID: d, MilestoneType: t})
			}
		}
	}

	return Summary{
		Totals:          overall.totals(in.MilestoneTypes, fulfilled, paidDrivers, paidCents),
		Scouts:          scouts,
		Inconsistencies: inc,
	}
}

type accumulator struct {
	registrados int
	porCabinet  int
	conMatch    int
	sinMatch    int
	drivers     map[string]bool
}

func newAccumulator() *accumulator {
	return &accumulator{drivers: make(map[string]bool)}
}

func (a *accumulator) add(r Registration, leads map[string]bool) {
	a.registrados++
	if r.DriverID == "" {
		a.sinMatch++
		return
	}
	a.conMatch++
	a.drivers[r.DriverID] = true
	if leads[r.DriverID] {
		a.porCabinet++
	}
}

func (a *accumulator) sortedDrivers() []string {
	out := make([]string, 0, len(a.drivers))
	for d := range a.drivers {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (a *accumulator) totals(types []int, fulfilled map[pairKey]bool, paidDrivers map[string]bool, paidCents map[string]int64) Totals {
	t := Totals{
		Registrados:    a.registrados,
		PorCabinet:     a.porCabinet,
		PorOtrosMedios: a.registrados - a.porCabinet,
		ConMatch:       a.conMatch,
		SinMatch:       a.sinMatch,
		Milestones:     make(map[int]int, len(types)),
	}
	for _, typ := range types {
		t.Milestones[typ] = 0
	}
	for d := range a.drivers {
		for _, typ := range types {
			if fulfilled[pairKey{d, typ}] {
				t.Milestones[typ]++
			}
		}
		if paidDrivers[d] {
			t.Pagados++
			t.PagadoCents += paidCents[d]
		}
	}
	return t
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
