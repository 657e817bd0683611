// Package service orchestrates matching: candidate generation, scoring,
// persistence of auto decisions and operator overrides.
package service

import (
	"context"
	"time"

	"onboarding_backend/internal/events"
	"onboarding_backend/internal/matching/domain"
	"onboarding_backend/internal/matching/transport"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Store is the persistence port for match records.
type Store interface {
	GetRecord(ctx context.Context, id uuid.UUID) (domain.Record, error)
	ListRecords(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Record, error)
	SaveAutoDecisions(ctx context.Context, decisions []domain.Decision, now time.Time) (int64, error)
	AssignManual(ctx context.Context, id uuid.UUID, driverID string, score float64, reasons []string, now time.Time) (domain.Record, error)
	Discard(ctx context.Context, id uuid.UUID, now time.Time) (domain.Record, error)
}

// DriverReader supplies candidate drivers.
type DriverReader interface {
	GetDriver(ctx context.Context, id string) (domain.Driver, error)
	ListDriversByHireDate(ctx context.Context, from, to time.Time) ([]domain.Driver, error)
}

// OutcomeRecorder receives reconciliation counters.
type OutcomeRecorder interface {
	MatchOutcome(source, outcome string, n int)
}

// Service provides business logic for matching.
type Service struct {
	store    Store
	drivers  DriverReader
	eventBus events.Bus
	cfg      domain.Config
	log      *logger.Logger
	outcomes OutcomeRecorder
	now      func() time.Time
}

// New creates a new matching service.
func New(store Store, drivers DriverReader, eventBus events.Bus, cfg domain.Config, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		drivers:  drivers,
		eventBus: eventBus,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetOutcomeRecorder wires reconciliation metrics.
func (s *Service) SetOutcomeRecorder(r OutcomeRecorder) {
	s.outcomes = r
}

// Reconcile re-evaluates every record of a source in [from, to] and persists
// changed auto decisions. Manual and discarded records are never touched.
func (s *Service) Reconcile(ctx context.Context, source domain.Source, from, to time.Time) (transport.ReconcileResponse, error) {
	if !source.Valid() {
		return transport.ReconcileResponse{}, apperr.Validation("unknown record source")
	}
	if to.Before(from) {
		return transport.ReconcileResponse{}, apperr.Validation("to must not be before from")
	}

	records, err := s.store.ListRecords(ctx, source, from, to)
	if err != nil {
		return transport.ReconcileResponse{}, err
	}

	margin := s.cfg.DateMarginDays
	drivers, err := s.drivers.ListDriversByHireDate(ctx, from.AddDate(0, 0, -margin), to.AddDate(0, 0, margin))
	if err != nil {
		return transport.ReconcileResponse{}, err
	}

	result := domain.Reconcile(records, drivers, s.cfg)
	updated, err := s.store.SaveAutoDecisions(ctx, result.Changes(), s.now())
	if err != nil {
		return transport.ReconcileResponse{}, err
	}

	if s.outcomes != nil {
		s.outcomes.MatchOutcome(string(source), string(domain.OutcomeMatched), result.Matched)
		s.outcomes.MatchOutcome(string(source), string(domain.OutcomeUnmatched), result.Unmatched)
		s.outcomes.MatchOutcome(string(source), "cleared", result.Cleared)
	}
	s.log.Info("reconciliation finished",
		"source", source, "from", from.Format(dateLayout), "to", to.Format(dateLayout),
		"evaluated", len(records), "matched", result.Matched, "unmatched", result.Unmatched,
		"cleared", result.Cleared, "skipped", result.Skipped, "updated", updated)

	return transport.ReconcileResponse{
		Source:    string(source),
		From:      from.Format(dateLayout),
		To:        to.Format(dateLayout),
		Evaluated: len(records),
		Matched:   result.Matched,
		Unmatched: result.Unmatched,
		Cleared:   result.Cleared,
		Skipped:   result.Skipped,
		Updated:   updated,
	}, nil
}

// FindCandidates previews the ranked candidates for a record without writing.
func (s *Service) FindCandidates(ctx context.Context, recordID uuid.UUID) (transport.CandidatesResponse, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return transport.CandidatesResponse{}, err
	}

	margin := s.cfg.DateMarginDays
	drivers, err := s.drivers.ListDriversByHireDate(ctx, rec.ReferenceDate.AddDate(0, 0, -margin), rec.ReferenceDate.AddDate(0, 0, margin))
	if err != nil {
		return transport.CandidatesResponse{}, err
	}

	ranked := domain.RankCandidates(rec, drivers, s.cfg)
	items := make([]transport.CandidateResponse, 0, len(ranked))
	for _, c := range ranked {
		items = append(items, transport.CandidateResponse{
			DriverID:      c.DriverID,
			HireDate:      c.HireDate.Format(dateLayout),
			Score:         c.Score.Value,
			AutoMatch:     c.Score.AutoMatch,
			DateDeltaDays: c.Score.DateDeltaDays,
			Signals: transport.SignalsResponse{
				Date:  c.Score.DateSignal,
				Phone: c.Score.PhoneSignal,
				Name:  c.Score.NameSignal,
			},
			Reasons: c.Score.Reasons,
		})
	}

	return transport.CandidatesResponse{RecordID: rec.ID, Source: string(rec.Source), Candidates: items}, nil
}

// AssignManual pins a record to a driver. Repeating the same assignment is a
// no-op; assigning a discarded record is a state conflict.
func (s *Service) AssignManual(ctx context.Context, recordID uuid.UUID, driverID string) (transport.RecordResponse, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return transport.RecordResponse{}, err
	}
	if rec.IsDiscarded {
		return transport.RecordResponse{}, apperr.StateConflict("cannot assign a discarded record")
	}
	if rec.IsManual && rec.DriverID == driverID {
		return mapRecord(rec), nil
	}

	driver, err := s.drivers.GetDriver(ctx, driverID)
	if err != nil {
		return transport.RecordResponse{}, err
	}

	score := domain.ScoreRecord(rec, driver, s.cfg)
	updated, err := s.store.AssignManual(ctx, rec.ID, driver.ID, score.Value, score.Reasons, s.now())
	if err != nil {
		return transport.RecordResponse{}, err
	}

	s.eventBus.Publish(ctx, events.MatchRecordAssigned{
		BaseEvent:        events.NewBaseEvent(),
		RecordID:         rec.ID,
		Source:           string(rec.Source),
		DriverID:         driver.ID,
		PreviousDriverID: rec.DriverID,
	})
	return mapRecord(updated), nil
}

// Discard excludes a record from matching and aggregates. Idempotent.
func (s *Service) Discard(ctx context.Context, recordID uuid.UUID) (transport.RecordResponse, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return transport.RecordResponse{}, err
	}
	if rec.IsDiscarded {
		return mapRecord(rec), nil
	}

	updated, err := s.store.Discard(ctx, rec.ID, s.now())
	if err != nil {
		return transport.RecordResponse{}, err
	}

	s.eventBus.Publish(ctx, events.MatchRecordDiscarded{
		BaseEvent: events.NewBaseEvent(),
		RecordID:  rec.ID,
		Source:    string(rec.Source),
	})
	return mapRecord(updated), nil
}

// FindDoubleMatches reports drivers claimed by more than one live record of
// the source in the period. Absence is an empty list.
func (s *Service) FindDoubleMatches(ctx context.Context, source domain.Source, from, to time.Time) (transport.DoubleMatchesResponse, error) {
	if !source.Valid() {
		return transport.DoubleMatchesResponse{}, apperr.Validation("unknown record source")
	}
	if to.Before(from) {
		return transport.DoubleMatchesResponse{}, apperr.Validation("to must not be before from")
	}

	records, err := s.store.ListRecords(ctx, source, from, to)
	if err != nil {
		return transport.DoubleMatchesResponse{}, err
	}

	found := domain.FindDoubleMatches(records)
	items := make([]transport.DoubleMatchResponse, 0, len(found))
	for _, dm := range found {
		items = append(items, transport.DoubleMatchResponse{
			Source:    string(dm.Source),
			DriverID:  dm.DriverID,
			RecordIDs: dm.RecordIDs,
		})
	}
	if len(items) > 0 {
		s.log.Warn("double matches detected", "source", source, "count", len(items))
	}
	return transport.DoubleMatchesResponse{Items: items, Total: len(items)}, nil
}

func mapRecord(rec domain.Record) transport.RecordResponse {
	var driverID *string
	if rec.DriverID != "" {
		id := rec.DriverID
		driverID = &id
	}
	reasons := rec.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return transport.RecordResponse{
		ID:             rec.ID,
		Source:         string(rec.Source),
		SourceRecordID: rec.SourceRecordID,
		ScoutID:        rec.ScoutID,
		ReferenceDate:  rec.ReferenceDate.Format(dateLayout),
		DriverID:       driverID,
		Score:          rec.Score,
		Reasons:        reasons,
		IsManual:       rec.IsManual,
		IsDiscarded:    rec.IsDiscarded,
		MatchedAt:      rec.MatchedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}
