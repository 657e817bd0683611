package adapters

import (
	"context"
	"fmt"
	"time"

	eligdomain "onboarding_backend/internal/eligibility/domain"
	msrepo "onboarding_backend/internal/milestones/repository"
	tripsrepo "onboarding_backend/internal/trips/repository"
)

// EligibilityMilestoneReader adapts the milestone repository for eligibility.
type EligibilityMilestoneReader struct {
	repo *msrepo.Repository
}

// NewEligibilityMilestoneReader creates a new milestone facts adapter.
func NewEligibilityMilestoneReader(repo *msrepo.Repository) *EligibilityMilestoneReader {
	return &EligibilityMilestoneReader{repo: repo}
}

// ListMilestoneFacts returns the drivers' instances for one window.
func (a *EligibilityMilestoneReader) ListMilestoneFacts(ctx context.Context, driverIDs []string, windowDays int) ([]eligdomain.MilestoneFact, error) {
	items, err := a.repo.ListForDrivers(ctx, driverIDs, windowDays)
	if err != nil {
		return nil, fmt.Errorf("milestone reader: %w", err)
	}
	out := make([]eligdomain.MilestoneFact, 0, len(items))
	for _, it := range items {
		out = append(out, eligdomain.MilestoneFact{
			DriverID:      it.DriverID,
			MilestoneType: it.MilestoneType,
			InstanceID:    it.ID,
			Fulfilled:     it.Fulfilled(),
		})
	}
	return out, nil
}

// EligibilityDriverActivity adapts the trips repository for eligibility.
type EligibilityDriverActivity struct {
	repo *tripsrepo.Repository
}

// NewEligibilityDriverActivity creates a new driver activity adapter.
func NewEligibilityDriverActivity(repo *tripsrepo.Repository) *EligibilityDriverActivity {
	return &EligibilityDriverActivity{repo: repo}
}

// ListHireDates returns hire dates keyed by driver id. Unknown ids are omitted.
func (a *EligibilityDriverActivity) ListHireDates(ctx context.Context, driverIDs []string) (map[string]time.Time, error) {
	drivers, err := a.repo.ListDriversByIDs(ctx, driverIDs)
	if err != nil {
		return nil, fmt.Errorf("driver activity: %w", err)
	}
	out := make(map[string]time.Time, len(drivers))
	for _, d := range drivers {
		out[d.ID] = d.HireDate
	}
	return out, nil
}

// SumConnectionSeconds totals the driver's work time within [from, to].
func (a *EligibilityDriverActivity) SumConnectionSeconds(ctx context.Context, driverID string, from, to time.Time) (int64, error) {
	return a.repo.SumConnectionSeconds(ctx, driverID, from, to)
}
