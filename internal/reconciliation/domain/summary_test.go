package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleInput() Input {
	period, _ := RangePeriod(date(2026, time.March, 1), date(2026, time.March, 31))
	return Input{
		Period:         period,
		MilestoneTypes: []int{1, 5, 25},
		Registrations: []Registration{
			{RecordID: uuid.New(), ScoutID: "s1", DriverID: "d1", ReferenceDate: date(2026, time.March, 2)},
			{RecordID: uuid.New(), ScoutID: "s1", DriverID: "d2", ReferenceDate: date(2026, time.March, 3)},
			{RecordID: uuid.New(), ScoutID: "s1", ReferenceDate: date(2026, time.March, 4)},
			{RecordID: uuid.New(), ScoutID: "s2", DriverID: "d3", ReferenceDate: date(2026, time.March, 5)},
			{RecordID: uuid.New(), ScoutID: "s2", DriverID: "d4", ReferenceDate: date(2026, time.April, 2)},
		},
		LeadDrivers: []string{"d1", "d3"},
		Fulfillments: []Fulfillment{
			{DriverID: "d1", MilestoneType: 1},
			{DriverID: "d1", MilestoneType: 5},
			{DriverID: "d2", MilestoneType: 1},
		},
		Payments: []PartnerPayment{
			{DriverID: "d1", MilestoneType: 1, AmountCents: 1000, PaidAt: date(2026, time.March, 20)},
			{DriverID: "d3", MilestoneType: 5, AmountCents: 2500, PaidAt: date(2026, time.March, 21)},
			{DriverID: "d2", MilestoneType: 1, AmountCents: 1000, PaidAt: date(2026, time.April, 5)},
		},
	}
}

func TestAggregateTotals(t *testing.T) {
	s := Aggregate(sampleInput())

	if s.Totals.Registrados != 4 {
		t.Fatalf("expected 4 registrations in period, got %d", s.Totals.Registrados)
	}
	if s.Totals.PorCabinet != 2 || s.Totals.PorOtrosMedios != 2 {
		t.Fatalf("unexpected channel split %+v", s.Totals)
	}
	if s.Totals.Registrados != s.Totals.PorCabinet+s.Totals.PorOtrosMedios {
		t.Fatalf("registrados must equal porCabinet + porOtrosMedios")
	}
	if s.Totals.ConMatch != 3 || s.Totals.SinMatch != 1 {
		t.Fatalf("unexpected match split %+v", s.Totals)
	}
	if s.Totals.Milestones[1] != 2 || s.Totals.Milestones[5] != 1 || s.Totals.Milestones[25] != 0 {
		t.Fatalf("unexpected milestone counts %v", s.Totals.Milestones)
	}
	if s.Totals.Pagados != 2 || s.Totals.PagadoCents != 3500 {
		t.Fatalf("unexpected paid totals %+v", s.Totals)
	}
}

func TestAggregateScoutRollups(t *testing.T) {
	s := Aggregate(sampleInput())

	if len(s.Scouts) != 2 || s.Scouts[0].ScoutID != "s1" || s.Scouts[1].ScoutID != "s2" {
		t.Fatalf("unexpected scouts %+v", s.Scouts)
	}
	for _, sc := range s.Scouts {
		if sc.Registrados != sc.PorCabinet+sc.PorOtrosMedios {
			t.Fatalf("scout %s: registrados must equal porCabinet + porOtrosMedios", sc.ScoutID)
		}
	}
	if s.Scouts[0].Registrados != 3 || s.Scouts[1].Registrados != 1 {
		t.Fatalf("unexpected per-scout registrations %+v", s.Scouts)
	}
}

func TestAggregateInconsistencies(t *testing.T) {
	s := Aggregate(sampleInput())
	inc := s.Inconsistencies

	if len(inc.SinMatch) != 1 {
		t.Fatalf("expected one unmatched registration, got %v", inc.SinMatch)
	}
	if len(inc.SinPago) != 1 || inc.SinPago[0] != "d2" {
		t.Fatalf("expected d2 unpaid in period, got %v", inc.SinPago)
	}
	if len(inc.PagoSinMilestone) != 1 || inc.PagoSinMilestone[0] != (DriverMilestone{DriverID: "d3", MilestoneType: 5}) {
		t.Fatalf("unexpected pagoSinMilestone %v", inc.PagoSinMilestone)
	}
	want := []DriverMilestone{{DriverID: "d1", MilestoneType: 5}, {DriverID: "d2", MilestoneType: 1}}
	if len(inc.MilestoneSinPago) != len(want) {
		t.Fatalf("unexpected milestoneSinPago %v", inc.MilestoneSinPago)
	}
	for i := range want {
		if inc.MilestoneSinPago[i] != want[i] {
			t.Fatalf("unexpected milestoneSinPago %v", inc.MilestoneSinPago)
		}
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	period, _ := RangePeriod(date(2026, 1, 1), date(2026, 1, 7))
	s := Aggregate(Input{Period: period, MilestoneTypes: []int{1, 5, 25}})

	if s.Totals.Registrados != 0 || len(s.Scouts) != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
	if s.Inconsistencies.SinMatch == nil || s.Inconsistencies.SinPago == nil {
		t.Fatalf("expected empty lists, not nil")
	}
}

func TestAggregatePaymentWithoutRegistration(t *testing.T) {
	in := sampleInput()
	in.Payments = append(in.Payments,
		PartnerPayment{DriverID: "d9", MilestoneType: 25, AmountCents: 5000, PaidAt: date(2026, time.March, 22)},
		PartnerPayment{DriverID: "d8", MilestoneType: 1, AmountCents: 1000, PaidAt: date(2026, time.March, 22)},
	)
	in.Fulfillments = append(in.Fulfillments, Fulfillment{DriverID: "d8", MilestoneType: 1})

	s := Aggregate(in)

	want := []DriverMilestone{{DriverID: "d3", MilestoneType: 5}, {DriverID: "d9", MilestoneType: 25}}
	got := s.Inconsistencies.PagoSinMilestone
	if len(got) != len(want) {
		t.Fatalf("unexpected pagoSinMilestone %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected pagoSinMilestone %v", got)
		}
	}
	if s.Totals.Registrados != 4 || s.Totals.Pagados != 2 {
		t.Fatalf("unregistered payments must not change registration totals, got %+v", s.Totals)
	}
}
