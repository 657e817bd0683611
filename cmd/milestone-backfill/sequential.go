package main

import (
	"context"
	"fmt"
	"io"

	"onboarding_backend/internal/milestones/domain"
	milestones "onboarding_backend/internal/milestones/service"
)

type populationComputer interface {
	ComputeForPopulation(ctx context.Context, scope domain.Scope, onResult func(milestones.ComputeResult, error)) (milestones.PopulationResult, error)
}

// runSequential computes each scope on the calling goroutine. Failed drivers
// are printed as they happen; only an unreadable population fails the run.
func runSequential(ctx context.Context, engine populationComputer, scopes []domain.Scope, out io.Writer) error {
	var failed bool
	for _, scope := range scopes {
		res, err := engine.ComputeForPopulation(ctx, scope, func(r milestones.ComputeResult, err error) {
			if err != nil {
				fmt.Fprintf(out, "  driver=%s error: %v\n", r.DriverID, err)
			}
		})
		fmt.Fprintf(out, "window=%dd mode=sequential total=%d succeeded=%d failed=%d\n",
			scope.WindowDays, res.Total, res.Succeeded, res.Failed)
		if err != nil {
			fmt.Fprintf(out, "  error: %v\n", err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more scopes could not be read")
	}
	return nil
}
