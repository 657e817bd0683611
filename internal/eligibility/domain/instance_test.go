package domain

import (
	"strings"
	"testing"
	"time"

	"onboarding_backend/platform/apperr"

	"github.com/google/uuid"
)

func testRules() Rules {
	return Rules{
		WindowDays:               14,
		MinRegistrationsRequired: 3,
		MinConnectionSeconds:     3600,
		MilestoneTypes:           []int{1, 5, 25},
		AmountsCents:             map[int]int64{1: 1000, 5: 2500, 25: 10000},
	}
}

func fulfilledFacts(driverID string, seconds int64, types ...int) DriverFacts {
	f := DriverFacts{DriverID: driverID, ConnectionSeconds: seconds, Milestones: map[int]MilestoneFact{}}
	for _, t := range types {
		f.Milestones[t] = MilestoneFact{DriverID: driverID, MilestoneType: t, InstanceID: uuid.New(), Fulfilled: true}
	}
	return f
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
		{StatusPaid, StatusPaid, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEvaluateMarksFulfilledMilestonesEligible(t *testing.T) {
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := Evaluate("s1", 3, []DriverFacts{fulfilledFacts("d1", 7200, 1, 5)}, testRules(), period, period.AddDate(0, 0, 30))

	if len(items) != 3 {
		t.Fatalf("expected one line per milestone type, got %d", len(items))
	}
	for _, it := range items {
		wantEligible := it.MilestoneType != 25
		if it.IsEligible != wantEligible {
			t.Fatalf("type %d: expected eligible=%v, got %+v", it.MilestoneType, wantEligible, it)
		}
		if it.Status != StatusPending {
			t.Fatalf("expected pending status, got %s", it.Status)
		}
	}
	if items[1].AmountCents != 2500 || items[1].EligibilityReason != ReasonEligible {
		t.Fatalf("unexpected type 5 line %+v", items[1])
	}
	if !strings.Contains(items[2].EligibilityReason, "milestone 25 not fulfilled") {
		t.Fatalf("expected fulfillment reason, got %q", items[2].EligibilityReason)
	}
}

func TestEvaluateQuorumGateBlocksEveryLine(t *testing.T) {
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := Evaluate("s1", 2, []DriverFacts{fulfilledFacts("d1", 7200, 1, 5, 25)}, testRules(), period, period)

	for _, it := range items {
		if it.IsEligible {
			t.Fatalf("expected no eligible line below quorum, got %+v", it)
		}
		if !strings.Contains(it.EligibilityReason, "2 registrations, 3 required") {
			t.Fatalf("expected quorum reason, got %q", it.EligibilityReason)
		}
	}
}

func TestEvaluateRequiresConnectionTime(t *testing.T) {
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := Evaluate("s1", 5, []DriverFacts{fulfilledFacts("d1", 3599, 1)}, testRules(), period, period)

	if items[0].IsEligible {
		t.Fatalf("expected connection gate to block type 1")
	}
	if !strings.Contains(items[0].EligibilityReason, "3599s, 3600s required") {
		t.Fatalf("unexpected reason %q", items[0].EligibilityReason)
	}
}

func TestCheckPayableIsAllOrNothing(t *testing.T) {
	ok := PaymentInstance{ID: uuid.New(), Status: StatusPending, IsEligible: true}
	paid := PaymentInstance{ID: uuid.New(), Status: StatusPaid, IsEligible: true}
	ineligible := PaymentInstance{ID: uuid.New(), Status: StatusPending, EligibilityReason: "quorum"}

	if err := CheckPayable([]uuid.UUID{ok.ID}, []PaymentInstance{ok}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPayable([]uuid.UUID{ok.ID, paid.ID}, []PaymentInstance{ok, paid}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for paid instance, got %v", err)
	}
	if err := CheckPayable([]uuid.UUID{ineligible.ID}, []PaymentInstance{ineligible}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for ineligible instance, got %v", err)
	}
	if err := CheckPayable([]uuid.UUID{ok.ID, uuid.New()}, []PaymentInstance{ok}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestCheckCancellableAllowsIneligiblePending(t *testing.T) {
	ineligible := PaymentInstance{ID: uuid.New(), Status: StatusPending}
	cancelled := PaymentInstance{ID: uuid.New(), Status: StatusCancelled}

	if err := CheckCancellable([]uuid.UUID{ineligible.ID}, []PaymentInstance{ineligible}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckCancellable([]uuid.UUID{cancelled.ID}, []PaymentInstance{cancelled}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for cancelled instance, got %v", err)
	}
}
