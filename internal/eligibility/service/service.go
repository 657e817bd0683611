// Package service evaluates scout eligibility and settles payment instances.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onboarding_backend/internal/eligibility/domain"
	"onboarding_backend/internal/eligibility/transport"
	"onboarding_backend/internal/events"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Store persists payment instances and payments.
type Store interface {
	CountScoutRegistrations(ctx context.Context, scoutID string, from, to time.Time) (int, error)
	ListScoutDrivers(ctx context.Context, scoutID string, from, to time.Time) ([]string, error)
	UpsertPending(ctx context.Context, items []domain.PaymentInstance, now time.Time) error
	ListInstances(ctx context.Context, scoutID string, driverIDs []string) ([]domain.PaymentInstance, error)
	PayPending(ctx context.Context, scoutID string, ids []uuid.UUID, paymentID uuid.UUID, now time.Time) (domain.Payment, error)
	CancelPending(ctx context.Context, scoutID string, ids []uuid.UUID, reason string, now time.Time) ([]domain.PaymentInstance, error)
}

// MilestoneReader reads milestone facts for drivers.
type MilestoneReader interface {
	ListMilestoneFacts(ctx context.Context, driverIDs []string, windowDays int) ([]domain.MilestoneFact, error)
}

// DriverActivity reads hire dates and connection time.
type DriverActivity interface {
	ListHireDates(ctx context.Context, driverIDs []string) (map[string]time.Time, error)
	SumConnectionSeconds(ctx context.Context, driverID string, from, to time.Time) (int64, error)
}

// PaymentRecorder receives payment instrumentation.
type PaymentRecorder interface {
	PaymentCreated(totalCents int64)
}

// Service evaluates eligibility and drives the payment lifecycle.
type Service struct {
	store      Store
	milestones MilestoneReader
	activity   DriverActivity
	eventBus   events.Bus
	rules      domain.Rules
	recorder   PaymentRecorder
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new eligibility service.
func New(store Store, milestones MilestoneReader, activity DriverActivity, eventBus events.Bus, rules domain.Rules, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		milestones: milestones,
		activity:   activity,
		eventBus:   eventBus,
		rules:      rules,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetPaymentRecorder attaches payment instrumentation.
func (s *Service) SetPaymentRecorder(r PaymentRecorder) {
	s.recorder = r
}

// Evaluate recomputes the scout's payment instances for drivers registered in
// the period. Pending lines are refreshed; paid and cancelled ones are
// returned unchanged.
func (s *Service) Evaluate(ctx context.Context, scoutID string, periodStart, periodEnd time.Time) (transport.EvaluateResponse, error) {
	scoutID = strings.TrimSpace(scoutID)
	if scoutID == "" {
		return transport.EvaluateResponse{}, apperr.Validation("scoutId is required")
	}
	if periodEnd.Before(periodStart) {
		return transport.EvaluateResponse{}, apperr.Validation("periodEnd must not be before periodStart")
	}

	registrations, err := s.store.CountScoutRegistrations(ctx, scoutID, periodStart, periodEnd)
	if err != nil {
		return transport.EvaluateResponse{}, err
	}
	driverIDs, err := s.store.ListScoutDrivers(ctx, scoutID, periodStart, periodEnd)
	if err != nil {
		return transport.EvaluateResponse{}, err
	}

	resp := transport.EvaluateResponse{
		ScoutID:               scoutID,
		PeriodStart:           periodStart.Format(time.DateOnly),
		PeriodEnd:             periodEnd.Format(time.DateOnly),
		Registrations:         registrations,
		RequiredRegistrations: s.rules.MinRegistrationsRequired,
		Items:                 []transport.InstanceResponse{},
	}
	if len(driverIDs) == 0 {
		return resp, nil
	}

	facts, err := s.collectFacts(ctx, driverIDs)
	if err != nil {
		return transport.EvaluateResponse{}, err
	}

	drafts := domain.Evaluate(scoutID, registrations, facts, s.rules, periodStart, periodEnd)
	if err := s.store.UpsertPending(ctx, drafts, s.now()); err != nil {
		return transport.EvaluateResponse{}, err
	}

	items, err := s.store.ListInstances(ctx, scoutID, driverIDs)
	if err != nil {
		return transport.EvaluateResponse{}, err
	}
	for _, it := range items {
		resp.Items = append(resp.Items, mapInstance(it))
		if it.IsEligible && it.Status == domain.StatusPending {
			resp.EligibleCount++
			resp.EligibleCents += it.AmountCents
		}
	}

	s.log.Info("scout eligibility evaluated",
		"scoutId", scoutID,
		"registrations", registrations,
		"drivers", len(driverIDs),
		"eligible", resp.EligibleCount,
	)
	return resp, nil
}

func (s *Service) collectFacts(ctx context.Context, driverIDs []string) ([]domain.DriverFacts, error) {
	hireDates, err := s.activity.ListHireDates(ctx, driverIDs)
	if err != nil {
		return nil, err
	}
	milestones, err := s.milestones.ListMilestoneFacts(ctx, driverIDs, s.rules.WindowDays)
	if err != nil {
		return nil, err
	}

	byDriver := make(map[string]map[int]domain.MilestoneFact, len(driverIDs))
	for _, m := range milestones {
		if byDriver[m.DriverID] == nil {
			byDriver[m.DriverID] = make(map[int]domain.MilestoneFact)
		}
		byDriver[m.DriverID][m.MilestoneType] = m
	}

	facts := make([]domain.DriverFacts, 0, len(driverIDs))
	for _, id := range driverIDs {
		f := domain.DriverFacts{DriverID: id, Milestones: byDriver[id]}
		if hire, ok := hireDates[id]; ok {
			from, to := domain.ConnectionWindow(hire, s.rules.WindowDays)
			seconds, err := s.activity.SumConnectionSeconds(ctx, id, from, to)
			if err != nil {
				return nil, fmt.Errorf("connection time for %s: %w", id, err)
			}
			f.ConnectionSeconds = seconds
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// PayInstances settles pending eligible instances of a scout as one payment.
func (s *Service) PayInstances(ctx context.Context, scoutID string, ids []uuid.UUID) (transport.PaymentResponse, error) {
	ids = domain.UniqueIDs(ids)
	if strings.TrimSpace(scoutID) == "" || len(ids) == 0 {
		return transport.PaymentResponse{}, apperr.Validation("scoutId and at least one instance id are required")
	}

	payment, err := s.store.PayPending(ctx, scoutID, ids, uuid.New(), s.now())
	if err != nil {
		return transport.PaymentResponse{}, err
	}

	if s.recorder != nil {
		s.recorder.PaymentCreated(payment.TotalCents)
	}
	s.eventBus.Publish(ctx, events.ScoutPaymentCreated{
		BaseEvent:   events.NewBaseEvent(),
		PaymentID:   payment.ID,
		ScoutID:     scoutID,
		TotalCents:  payment.TotalCents,
		InstanceIDs: ids,
	})
	s.log.Info("scout payment created", "scoutId", scoutID, "paymentId", payment.ID, "totalCents", payment.TotalCents, "instances", len(ids))

	out := transport.PaymentResponse{
		ID:         payment.ID,
		ScoutID:    payment.ScoutID,
		TotalCents: payment.TotalCents,
		Instances:  make([]transport.InstanceResponse, 0, len(payment.Instances)),
		CreatedAt:  payment.CreatedAt,
	}
	for _, it := range payment.Instances {
		out.Instances = append(out.Instances, mapInstance(it))
	}
	return out, nil
}

// CancelInstances cancels pending instances of a scout.
func (s *Service) CancelInstances(ctx context.Context, scoutID string, ids []uuid.UUID, reason string) (transport.CancelResponse, error) {
	ids = domain.UniqueIDs(ids)
	reason = sanitize.Text(reason)
	if strings.TrimSpace(scoutID) == "" || len(ids) == 0 || reason == "" {
		return transport.CancelResponse{}, apperr.Validation("scoutId, instance ids and reason are required")
	}

	items, err := s.store.CancelPending(ctx, scoutID, ids, reason, s.now())
	if err != nil {
		return transport.CancelResponse{}, err
	}
	s.log.Info("scout payment instances cancelled", "scoutId", scoutID, "instances", len(items))

	out := transport.CancelResponse{Items: make([]transport.InstanceResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, mapInstance(it))
	}
	return out, nil
}

func mapInstance(it domain.PaymentInstance) transport.InstanceResponse {
	return transport.InstanceResponse{
		ID:                  it.ID,
		ScoutID:             it.ScoutID,
		DriverID:            it.DriverID,
		MilestoneType:       it.MilestoneType,
		WindowDays:          it.WindowDays,
		MilestoneInstanceID: it.MilestoneInstanceID,
		AmountCents:         it.AmountCents,
		IsEligible:          it.IsEligible,
		EligibilityReason:   it.EligibilityReason,
		Status:              string(it.Status),
		PaymentID:           it.PaymentID,
		CancelReason:        it.CancelReason,
		PeriodStart:         it.PeriodStart.Format(time.DateOnly),
		PeriodEnd:           it.PeriodEnd.Format(time.DateOnly),
		PaidAt:              it.PaidAt,
		CancelledAt:         it.CancelledAt,
	}
}
