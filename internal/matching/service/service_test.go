package service

import (
	"context"
	"testing"
	"time"

	"onboarding_backend/internal/events"
	"onboarding_backend/internal/matching/domain"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	records     map[uuid.UUID]domain.Record
	manualCalls int
}

func newFakeStore(records ...domain.Record) *fakeStore {
	s := &fakeStore{records: make(map[uuid.UUID]domain.Record)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeStore) GetRecord(_ context.Context, id uuid.UUID) (domain.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, apperr.NotFound("match record not found")
	}
	return rec, nil
}

func (s *fakeStore) ListRecords(_ context.Context, source domain.Source, from, to time.Time) ([]domain.Record, error) {
	out := make([]domain.Record, 0)
	for _, r := range s.records {
		if r.Source == source && !r.ReferenceDate.Before(from) && !r.ReferenceDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveAutoDecisions(_ context.Context, decisions []domain.Decision, now time.Time) (int64, error) {
	var n int64
	for _, d := range decisions {
		rec := s.records[d.RecordID]
		if rec.IsManual || rec.IsDiscarded {
			continue
		}
		rec.DriverID = d.DriverID
		rec.Score = d.Score
		rec.Reasons = d.Reasons
		rec.UpdatedAt = now
		s.records[d.RecordID] = rec
		n++
	}
	return n, nil
}

func (s *fakeStore) AssignManual(_ context.Context, id uuid.UUID, driverID string, score float64, reasons []string, now time.Time) (domain.Record, error) {
	s.manualCalls++
	rec := s.records[id]
	rec.DriverID = driverID
	rec.Score = score
	rec.Reasons = reasons
	rec.IsManual = true
	rec.MatchedAt = &now
	s.records[id] = rec
	return rec, nil
}

func (s *fakeStore) Discard(_ context.Context, id uuid.UUID, now time.Time) (domain.Record, error) {
	rec := s.records[id]
	rec.IsDiscarded = true
	rec.IsManual = false
	rec.DriverID = ""
	rec.UpdatedAt = now
	s.records[id] = rec
	return rec, nil
}

type fakeDrivers []domain.Driver

func (f fakeDrivers) GetDriver(_ context.Context, id string) (domain.Driver, error) {
	for _, d := range f {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Driver{}, apperr.NotFound("driver not found")
}

func (f fakeDrivers) ListDriversByHireDate(_ context.Context, from, to time.Time) ([]domain.Driver, error) {
	out := make([]domain.Driver, 0)
	for _, d := range f {
		if !d.HireDate.Before(from) && !d.HireDate.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func march(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(store Store, drivers DriverReader) *Service {
	log := logger.New("development")
	return New(store, drivers, events.NewInMemoryBus(log), domain.DefaultConfig(), log)
}

func TestReconcilePersistsOnlyChanges(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceLead, ReferenceDate: march(10), Phone: "987654321"}
	store := newFakeStore(rec)
	svc := newTestService(store, fakeDrivers{{ID: "d1", HireDate: march(11), Phone: "987654321"}})

	first, err := svc.Reconcile(context.Background(), domain.SourceLead, march(1), march(31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Matched != 1 || first.Updated != 1 {
		t.Fatalf("expected one persisted match, got %+v", first)
	}

	second, err := svc.Reconcile(context.Background(), domain.SourceLead, march(1), march(31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Updated != 0 {
		t.Fatalf("expected rerun to persist nothing, got %d", second.Updated)
	}
}

func TestManualAssignmentSurvivesReconciliation(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceScoutRegistration, ReferenceDate: march(10), Phone: "987654321"}
	store := newFakeStore(rec)
	drivers := fakeDrivers{
		{ID: "auto-best", HireDate: march(10), Phone: "987654321"},
		{ID: "operator-pick", HireDate: march(20)},
	}
	svc := newTestService(store, drivers)
	ctx := context.Background()

	if _, err := svc.AssignManual(ctx, rec.ID, "operator-pick"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Reconcile(ctx, domain.SourceScoutRegistration, march(1), march(31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.records[rec.ID].DriverID; got != "operator-pick" {
		t.Fatalf("expected manual assignment to survive, got %s", got)
	}
}

func TestAssignManualIsIdempotent(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceLead, ReferenceDate: march(10)}
	store := newFakeStore(rec)
	svc := newTestService(store, fakeDrivers{{ID: "d1", HireDate: march(10)}})

	for i := 0; i < 2; i++ {
		resp, err := svc.AssignManual(context.Background(), rec.ID, "d1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.DriverID == nil || *resp.DriverID != "d1" || !resp.IsManual {
			t.Fatalf("expected manual d1, got %+v", resp)
		}
	}
	if store.manualCalls != 1 {
		t.Fatalf("expected a single write, got %d", store.manualCalls)
	}
}

func TestAssignManualRejectsDiscardedRecord(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceLead, ReferenceDate: march(10), IsDiscarded: true}
	svc := newTestService(newFakeStore(rec), fakeDrivers{{ID: "d1", HireDate: march(10)}})

	_, err := svc.AssignManual(context.Background(), rec.ID, "d1")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAssignManualUnknownDriver(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceLead, ReferenceDate: march(10)}
	svc := newTestService(newFakeStore(rec), fakeDrivers{})

	_, err := svc.AssignManual(context.Background(), rec.ID, "ghost")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDiscardIsIdempotent(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceLead, ReferenceDate: march(10), DriverID: "d1"}
	store := newFakeStore(rec)
	svc := newTestService(store, fakeDrivers{})

	for i := 0; i < 2; i++ {
		resp, err := svc.Discard(context.Background(), rec.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.IsDiscarded || resp.DriverID != nil {
			t.Fatalf("expected discarded record without driver, got %+v", resp)
		}
	}
}

func TestFindDoubleMatchesReturnsEmptyList(t *testing.T) {
	svc := newTestService(newFakeStore(), fakeDrivers{})

	resp, err := svc.FindDoubleMatches(context.Background(), domain.SourceLead, march(1), march(31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Items == nil || resp.Total != 0 {
		t.Fatalf("expected empty non-nil list, got %+v", resp)
	}

	if _, err := svc.FindDoubleMatches(context.Background(), "crm", march(1), march(31)); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown source, got %v", err)
	}
}

func TestFindCandidatesRanksDrivers(t *testing.T) {
	rec := domain.Record{ID: uuid.New(), Source: domain.SourceLead, ReferenceDate: march(10), Phone: "987654321"}
	svc := newTestService(newFakeStore(rec), fakeDrivers{
		{ID: "weak", HireDate: march(10)},
		{ID: "strong", HireDate: march(12), Phone: "987654321"},
		{ID: "outside", HireDate: march(25), Phone: "987654321"},
	})

	resp, err := svc.FindCandidates(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Candidates) != 2 || resp.Candidates[0].DriverID != "strong" {
		t.Fatalf("expected strong first and outside excluded, got %+v", resp.Candidates)
	}
}
