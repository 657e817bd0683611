// Package service implements the milestone engine: per-driver window
// computation, idempotent upserts and population streaming.
package service

import (
	"context"
	"fmt"
	"time"

	"onboarding_backend/internal/events"
	"onboarding_backend/internal/milestones/domain"
	"onboarding_backend/internal/milestones/repository"
	"onboarding_backend/internal/milestones/transport"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"
)

const defaultPageSize = 500

// TripReader is the read-only view over drivers and their daily trips.
type TripReader interface {
	ListDailyTrips(ctx context.Context, driverID string, from, to time.Time) ([]domain.DailyTrips, error)
	CountPopulation(ctx context.Context, scope domain.Scope) (int64, error)
	ListPopulationPage(ctx context.Context, scope domain.Scope, afterID string, limit int) ([]domain.DriverRef, error)
}

// Store persists milestone instances.
type Store interface {
	ListForDriver(ctx context.Context, driverID string) ([]domain.Instance, error)
	ListForDriverWindow(ctx context.Context, driverID string, windowDays int) (map[int]domain.Instance, error)
	ListForDrivers(ctx context.Context, driverIDs []string, windowDays int) ([]domain.Instance, error)
	ListFulfilledInPeriod(ctx context.Context, filter repository.PeriodFilter, from, to time.Time) ([]domain.Instance, error)
	Upsert(ctx context.Context, instances []domain.Instance) error
}

// ComputeResult reports what one driver computation did.
type ComputeResult struct {
	DriverID       string
	TripCount      int
	Written        int
	NewlyFulfilled []int
	Skipped        bool
}

// PopulationResult summarizes a sequential population run.
type PopulationResult struct {
	Total     int64
	Succeeded int64
	Failed    int64
}

// Engine computes and persists milestone instances.
type Engine struct {
	trips    TripReader
	store    Store
	eventBus events.Bus
	log      *logger.Logger
	pageSize int
	now      func() time.Time
}

// NewEngine creates a milestone engine. pageSize bounds population pages.
func NewEngine(trips TripReader, store Store, eventBus events.Bus, pageSize int, log *logger.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Engine{
		trips:    trips,
		store:    store,
		eventBus: eventBus,
		log:      log,
		pageSize: pageSize,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ComputeWindow aggregates one driver's window and upserts the result. The
// aggregation completes before anything is written.
func (e *Engine) ComputeWindow(ctx context.Context, driver domain.DriverRef, windowDays int, types []int) (ComputeResult, error) {
	if !domain.ValidWindow(windowDays) {
		return ComputeResult{}, apperr.Validation("windowDays must be 7 or 14")
	}
	if len(types) == 0 {
		types = domain.AllTypes
	}

	start, end := domain.WindowBounds(driver.HireDate, windowDays)
	summaries, err := e.trips.ListDailyTrips(ctx, driver.ID, start, end)
	if err != nil {
		return ComputeResult{}, fmt.Errorf("read trips for %s: %w", driver.ID, err)
	}
	res := domain.ComputeWindow(driver.ID, driver.HireDate, windowDays, summaries, types)

	existing, err := e.store.ListForDriverWindow(ctx, driver.ID, windowDays)
	if err != nil {
		return ComputeResult{}, fmt.Errorf("read milestones for %s: %w", driver.ID, err)
	}

	changes := domain.Plan(driver, res, types, existing, e.now())
	out := ComputeResult{DriverID: driver.ID, TripCount: res.TripCount}
	if len(changes) == 0 {
		out.Skipped = true
		return out, nil
	}

	instances := make([]domain.Instance, 0, len(changes))
	for _, c := range changes {
		instances = append(instances, c.Instance)
	}
	if err := e.store.Upsert(ctx, instances); err != nil {
		return ComputeResult{}, fmt.Errorf("write milestones for %s: %w", driver.ID, err)
	}
	out.Written = len(instances)

	for _, c := range changes {
		if !c.NewlyFulfilled {
			continue
		}
		out.NewlyFulfilled = append(out.NewlyFulfilled, c.Instance.MilestoneType)
		e.eventBus.Publish(ctx, events.MilestoneFulfilled{
			BaseEvent:     events.NewBaseEvent(),
			DriverID:      c.Instance.DriverID,
			ParkID:        c.Instance.ParkID,
			MilestoneType: c.Instance.MilestoneType,
			WindowDays:    c.Instance.WindowDays,
			TripCount:     c.Instance.TripCount,
			FulfilledAt:   *c.Instance.FulfilledAt,
		})
	}
	return out, nil
}

// CountPopulation counts the drivers a scope covers.
func (e *Engine) CountPopulation(ctx context.Context, scope domain.Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	return e.trips.CountPopulation(ctx, scope)
}

// StreamPopulation hands the scope's drivers to fn one page at a time, in
// driver id order. It stops at the first error from the reader or from fn.
func (e *Engine) StreamPopulation(ctx context.Context, scope domain.Scope, fn func(page []domain.DriverRef) error) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := e.trips.ListPopulationPage(ctx, scope, after, e.pageSize)
		if err != nil {
			return fmt.Errorf("read population page after %q: %w", after, err)
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < e.pageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

// ComputeForPopulation computes every driver of the scope sequentially.
// Per-driver failures are counted and reported to onResult, never returned.
func (e *Engine) ComputeForPopulation(ctx context.Context, scope domain.Scope, onResult func(ComputeResult, error)) (PopulationResult, error) {
	var out PopulationResult
	err := e.StreamPopulation(ctx, scope, func(page []domain.DriverRef) error {
		for _, d := range page {
			out.Total++
			res, err := e.ComputeWindow(ctx, d, scope.WindowDays, scope.Types())
			if err != nil {
				res.DriverID = d.ID
				out.Failed++
				e.log.Warn("milestone computation failed", "driverId", d.ID, "windowDays", scope.WindowDays, "error", err)
			} else {
				out.Succeeded++
			}
			if onResult != nil {
				onResult(res, err)
			}
		}
		return nil
	})
	return out, err
}

// GetForDriver returns every instance of a driver.
func (e *Engine) GetForDriver(ctx context.Context, driverID string) (transport.DriverMilestonesResponse, error) {
	items, err := e.store.ListForDriver(ctx, driverID)
	if err != nil {
		return transport.DriverMilestonesResponse{}, err
	}
	return transport.DriverMilestonesResponse{DriverID: driverID, Instances: mapInstances(items)}, nil
}

// GetForDrivers returns instances of many drivers for one window. Every
// requested driver appears in the result, with an empty list when it has none.
func (e *Engine) GetForDrivers(ctx context.Context, driverIDs []string, windowDays int) (transport.DriversQueryResponse, error) {
	if !domain.ValidWindow(windowDays) {
		return transport.DriversQueryResponse{}, apperr.Validation("windowDays must be 7 or 14")
	}

	items, err := e.store.ListForDrivers(ctx, driverIDs, windowDays)
	if err != nil {
		return transport.DriversQueryResponse{}, err
	}

	out := make(map[string][]transport.InstanceResponse, len(driverIDs))
	for _, id := range driverIDs {
		out[id] = []transport.InstanceResponse{}
	}
	for _, it := range items {
		out[it.DriverID] = append(out[it.DriverID], mapInstance(it))
	}
	return transport.DriversQueryResponse{WindowDays: windowDays, Drivers: out}, nil
}

// ListFulfilledInPeriod returns instances whose fulfillment falls in [from, to].
func (e *Engine) ListFulfilledInPeriod(ctx context.Context, filter repository.PeriodFilter, from, to time.Time) (transport.FulfilledResponse, error) {
	if to.Before(from) {
		return transport.FulfilledResponse{}, apperr.Validation("to must not be before from")
	}
	items, err := e.store.ListFulfilledInPeriod(ctx, filter, from, to)
	if err != nil {
		return transport.FulfilledResponse{}, err
	}
	mapped := mapInstances(items)
	return transport.FulfilledResponse{
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Items: mapped,
		Total: len(mapped),
	}, nil
}

func mapInstances(items []domain.Instance) []transport.InstanceResponse {
	out := make([]transport.InstanceResponse, 0, len(items))
	for _, it := range items {
		out = append(out, mapInstance(it))
	}
	return out
}

func mapInstance(it domain.Instance) transport.InstanceResponse {
	breakdown := make([]transport.DayCountResponse, 0, len(it.Breakdown))
	for _, d := range it.Breakdown {
		breakdown = append(breakdown, transport.DayCountResponse{Date: d.Date, Trips: d.Trips})
	}
	return transport.InstanceResponse{
		ID:            it.ID,
		DriverID:      it.DriverID,
		ParkID:        it.ParkID,
		MilestoneType: it.MilestoneType,
		WindowDays:    it.WindowDays,
		TripCount:     it.TripCount,
		Fulfilled:     it.Fulfilled(),
		FulfilledAt:   it.FulfilledAt,
		CalculatedAt:  it.CalculatedAt,
		Breakdown:     breakdown,
	}
}
