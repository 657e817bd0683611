package adapters

import (
	"context"
	"fmt"
	"time"

	msdomain "onboarding_backend/internal/milestones/domain"
	tripsrepo "onboarding_backend/internal/trips/repository"
)

// MilestoneTripReader adapts the trips repository for the milestone engine.
type MilestoneTripReader struct {
	repo *tripsrepo.Repository
}

// NewMilestoneTripReader creates a new trip reader adapter.
func NewMilestoneTripReader(repo *tripsrepo.Repository) *MilestoneTripReader {
	return &MilestoneTripReader{repo: repo}
}

// ListDailyTrips returns completed orders per day within [from, to].
func (a *MilestoneTripReader) ListDailyTrips(ctx context.Context, driverID string, from, to time.Time) ([]msdomain.DailyTrips, error) {
	rows, err := a.repo.ListDailySummaries(ctx, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("trip reader: %w", err)
	}
	out := make([]msdomain.DailyTrips, 0, len(rows))
	for _, r := range rows {
		out = append(out, msdomain.DailyTrips{Date: r.Date, CompletedOrders: r.CompletedOrders})
	}
	return out, nil
}

// CountPopulation counts drivers in the scope.
func (a *MilestoneTripReader) CountPopulation(ctx context.Context, scope msdomain.Scope) (int64, error) {
	return a.repo.CountDrivers(ctx, toDriverFilter(scope))
}

// ListPopulationPage returns the next page of drivers after afterID.
func (a *MilestoneTripReader) ListPopulationPage(ctx context.Context, scope msdomain.Scope, afterID string, limit int) ([]msdomain.DriverRef, error) {
	drivers, err := a.repo.ListDriversPage(ctx, toDriverFilter(scope), afterID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]msdomain.DriverRef, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, msdomain.DriverRef{ID: d.ID, ParkID: d.ParkID, HireDate: d.HireDate})
	}
	return out, nil
}

func toDriverFilter(scope msdomain.Scope) tripsrepo.DriverFilter {
	return tripsrepo.DriverFilter{
		ParkID:       scope.ParkID,
		HireDateFrom: scope.HireDateFrom,
		HireDateTo:   scope.HireDateTo,
	}
}
