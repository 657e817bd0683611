package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestReconcilePicksHighestScoringCandidate(t *testing.T) {
	cfg := DefaultConfig()
	rec := Record{ID: uuid.New(), Source: SourceLead, ReferenceDate: day(10), Phone: "987654321", FullName: "Rosa Huaman"}
	drivers := []Driver{
		{ID: "a", HireDate: day(10), Phone: "911111111", FullName: "Rosa Huaman"},
		{ID: "b", HireDate: day(11), Phone: "987654321", FullName: "Rosa Huaman"},
	}

	res := Reconcile([]Record{rec}, drivers, cfg)

	if res.Matched != 1 {
		t.Fatalf("expected 1 match, got %+v", res)
	}
	if got := res.Decisions[0].DriverID; got != "b" {
		t.Fatalf("expected driver b, got %s", got)
	}
	if !res.Decisions[0].Changed {
		t.Fatalf("expected new match to be a change")
	}
}

func TestReconcileBreaksTiesByDateDeltaThenID(t *testing.T) {
	cfg := DefaultConfig()
	rec := Record{ID: uuid.New(), Source: SourceLead, ReferenceDate: day(10), Phone: "987654321"}

	byDelta := []Driver{
		{ID: "a", HireDate: day(12), Phone: "987654321"},
		{ID: "z", HireDate: day(10), Phone: "987654321"},
	}
	if got := Reconcile([]Record{rec}, byDelta, cfg).Decisions[0].DriverID; got != "z" {
		t.Fatalf("expected smaller date delta to win, got %s", got)
	}

	byID := []Driver{
		{ID: "m", HireDate: day(11), Phone: "987654321"},
		{ID: "k", HireDate: day(9), Phone: "987654321"},
	}
	if got := Reconcile([]Record{rec}, byID, cfg).Decisions[0].DriverID; got != "k" {
		t.Fatalf("expected lexical id to break the tie, got %s", got)
	}
}

func TestReconcileLeavesManualAndDiscardedRecords(t *testing.T) {
	cfg := DefaultConfig()
	manual := Record{ID: uuid.New(), ReferenceDate: day(10), Phone: "987654321", DriverID: "pinned", IsManual: true}
	discarded := Record{ID: uuid.New(), ReferenceDate: day(10), Phone: "987654321", IsDiscarded: true}
	drivers := []Driver{{ID: "better", HireDate: day(10), Phone: "987654321"}}

	res := Reconcile([]Record{manual, discarded}, drivers, cfg)

	if res.Skipped != 2 || len(res.Changes()) != 0 {
		t.Fatalf("expected both records skipped without changes, got %+v", res)
	}
	if res.Decisions[0].DriverID != "pinned" || res.Decisions[0].Outcome != OutcomeSkippedManual {
		t.Fatalf("expected manual assignment to survive, got %+v", res.Decisions[0])
	}
	if res.Decisions[1].Outcome != OutcomeSkippedDiscarded {
		t.Fatalf("expected discarded outcome, got %s", res.Decisions[1].Outcome)
	}
}

func TestReconcileClearsStaleAutoMatch(t *testing.T) {
	rec := Record{ID: uuid.New(), ReferenceDate: day(10), Phone: "987654321", DriverID: "gone", Score: 0.8}

	res := Reconcile([]Record{rec}, nil, DefaultConfig())

	d := res.Decisions[0]
	if d.Outcome != OutcomeUnmatched || d.DriverID != "" || !d.Changed {
		t.Fatalf("expected stale match to be cleared, got %+v", d)
	}
	if res.Cleared != 1 {
		t.Fatalf("expected cleared count 1, got %d", res.Cleared)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	records := []Record{
		{ID: uuid.New(), ReferenceDate: day(10), Phone: "987654321", FullName: "Rosa Huaman"},
		{ID: uuid.New(), ReferenceDate: day(3), Phone: "955555555"},
	}
	drivers := []Driver{{ID: "b", HireDate: day(11), Phone: "987654321", FullName: "Rosa Huaman"}}

	first := Reconcile(records, drivers, cfg)
	for i, d := range first.Decisions {
		records[i].DriverID = d.DriverID
		records[i].Score = d.Score
		records[i].Reasons = d.Reasons
	}
	second := Reconcile(records, drivers, cfg)

	if n := len(second.Changes()); n != 0 {
		t.Fatalf("expected no changes on rerun, got %d", n)
	}
	for i := range first.Decisions {
		if first.Decisions[i].DriverID != second.Decisions[i].DriverID {
			t.Fatalf("expected identical assignments on rerun")
		}
	}
}

func TestRankCandidatesExcludesDriversOutsideMargin(t *testing.T) {
	rec := Record{ReferenceDate: day(10)}
	drivers := []Driver{{ID: "near", HireDate: day(17)}, {ID: "far", HireDate: day(18)}}

	got := RankCandidates(rec, drivers, DefaultConfig())

	if len(got) != 1 || got[0].DriverID != "near" {
		t.Fatalf("expected only the driver within 7 days, got %+v", got)
	}
}

func TestFindDoubleMatchesGroupsBySourceAndDriver(t *testing.T) {
	r1 := Record{ID: uuid.New(), Source: SourceScoutRegistration, DriverID: "d1"}
	r2 := Record{ID: uuid.New(), Source: SourceScoutRegistration, DriverID: "d1"}
	r3 := Record{ID: uuid.New(), Source: SourceLead, DriverID: "d1"}
	r4 := Record{ID: uuid.New(), Source: SourceScoutRegistration, DriverID: "d1", IsDiscarded: true}

	got := FindDoubleMatches([]Record{r1, r2, r3, r4})

	if len(got) != 1 {
		t.Fatalf("expected one double match, got %+v", got)
	}
	if got[0].DriverID != "d1" || len(got[0].RecordIDs) != 2 {
		t.Fatalf("expected two registrations for d1, got %+v", got[0])
	}
}
