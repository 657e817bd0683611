package adapters

import (
	"context"
	"fmt"
	"time"

	matchdomain "onboarding_backend/internal/matching/domain"
	tripsrepo "onboarding_backend/internal/trips/repository"
)

// TripsDriverReader adapts the trips repository for the matching domain.
type TripsDriverReader struct {
	repo *tripsrepo.Repository
}

// NewTripsDriverReader creates a new driver reader adapter.
func NewTripsDriverReader(repo *tripsrepo.Repository) *TripsDriverReader {
	return &TripsDriverReader{repo: repo}
}

// GetDriver returns one candidate driver.
func (a *TripsDriverReader) GetDriver(ctx context.Context, id string) (matchdomain.Driver, error) {
	d, err := a.repo.GetDriver(ctx, id)
	if err != nil {
		return matchdomain.Driver{}, err
	}
	return toMatchDriver(d), nil
}

// ListDriversByHireDate returns candidate drivers hired within [from, to].
func (a *TripsDriverReader) ListDriversByHireDate(ctx context.Context, from, to time.Time) ([]matchdomain.Driver, error) {
	drivers, err := a.repo.ListDriversByHireDate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("driver reader: %w", err)
	}
	out := make([]matchdomain.Driver, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, toMatchDriver(d))
	}
	return out, nil
}

func toMatchDriver(d tripsrepo.Driver) matchdomain.Driver {
	return matchdomain.Driver{
		ID:       d.ID,
		ParkID:   d.ParkID,
		FullName: d.FullName,
		Phone:    d.Phone,
		HireDate: d.HireDate,
	}
}
