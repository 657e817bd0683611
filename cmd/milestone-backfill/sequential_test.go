package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"onboarding_backend/internal/milestones/domain"
	milestones "onboarding_backend/internal/milestones/service"
)

type fakePopulation struct {
	windows   []int
	streamErr map[int]error
}

func (f *fakePopulation) ComputeForPopulation(_ context.Context, scope domain.Scope, onResult func(milestones.ComputeResult, error)) (milestones.PopulationResult, error) {
	f.windows = append(f.windows, scope.WindowDays)
	onResult(milestones.ComputeResult{DriverID: "d1", TripCount: 3}, nil)
	onResult(milestones.ComputeResult{DriverID: "d2"}, errors.New("write failed"))
	return milestones.PopulationResult{Total: 2, Succeeded: 1, Failed: 1}, f.streamErr[scope.WindowDays]
}

func TestRunSequentialPrintsFailedDrivers(t *testing.T) {
	engine := &fakePopulation{}
	var out bytes.Buffer

	err := runSequential(context.Background(), engine, []domain.Scope{{WindowDays: 7}, {WindowDays: 14}}, &out)
	if err != nil {
		t.Fatalf("driver failures must not fail the run: %v", err)
	}
	if len(engine.windows) != 2 || engine.windows[0] != 7 || engine.windows[1] != 14 {
		t.Fatalf("unexpected windows %v", engine.windows)
	}
	text := out.String()
	if strings.Count(text, "driver=d2 error: write failed") != 2 || strings.Contains(text, "driver=d1") {
		t.Fatalf("expected only the failed driver per window, got:\n%s", text)
	}
	if !strings.Contains(text, "window=14d mode=sequential total=2 succeeded=1 failed=1") {
		t.Fatalf("missing window summary, got:\n%s", text)
	}
}

func TestRunSequentialFailsOnUnreadablePopulation(t *testing.T) {
	engine := &fakePopulation{streamErr: map[int]error{7: errors.New("connection reset")}}
	var out bytes.Buffer

	if err := runSequential(context.Background(), engine, []domain.Scope{{WindowDays: 7}, {WindowDays: 14}}, &out); err == nil {
		t.Fatalf("expected error when a population cannot be read")
	}
	if len(engine.windows) != 2 {
		t.Fatalf("expected remaining scopes to still run, got %v", engine.windows)
	}
}
