package main

import (
	"fmt"
	"time"

	"onboarding_backend/internal/milestones/domain"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

type scopeFlags struct {
	window        int
	parkID        string
	milestoneType int
	hireFrom      string
	hireTo        string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.window, "window", "w", 0, "Window in days, 7 or 14 (default both)")
	cmd.Flags().StringVarP(&f.parkID, "park", "p", "", "Restrict to one park")
	cmd.Flags().IntVarP(&f.milestoneType, "type", "t", 0, "Restrict to one milestone type (1, 5 or 25)")
	cmd.Flags().StringVar(&f.hireFrom, "hire-from", "", "Earliest hire date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.hireTo, "hire-to", "", "Latest hire date (YYYY-MM-DD)")
}

// scopes expands the flags into one validated scope per window.
func (f *scopeFlags) scopes() ([]domain.Scope, error) {
	windows := domain.AllWindows
	if f.window != 0 {
		windows = []int{f.window}
	}

	base := domain.Scope{ParkID: f.parkID}
	if f.milestoneType != 0 {
		t := f.milestoneType
		base.MilestoneType = &t
	}
	var err error
	if base.HireDateFrom, err = parseDate("hire-from", f.hireFrom); err != nil {
		return nil, err
	}
	if base.HireDateTo, err = parseDate("hire-to", f.hireTo); err != nil {
		return nil, err
	}

	out := make([]domain.Scope, 0, len(windows))
	for _, w := range windows {
		scope := base
		scope.WindowDays = w
		if err := scope.Validate(); err != nil {
			return nil, err
		}
		out = append(out, scope)
	}
	return out, nil
}

func parseDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("--%s: expected YYYY-MM-DD", name)
	}
	return &t, nil
}
