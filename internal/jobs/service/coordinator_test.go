package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"onboarding_backend/internal/events"
	"onboarding_backend/internal/milestones/domain"
	milestones "onboarding_backend/internal/milestones/service"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"
)

type fakeEngine struct {
	drivers   []domain.DriverRef
	failFor   map[string]bool
	panicFor  map[string]bool
	streamErr error
	computed  atomic.Int64
}

func (f *fakeEngine) CountPopulation(_ context.Context, _ domain.Scope) (int64, error) {
	return int64(len(f.drivers)), nil
}

func (f *fakeEngine) StreamPopulation(_ context.Context, _ domain.Scope, fn func(page []domain.DriverRef) error) error {
	for i := 0; i < len(f.drivers); i += 2 {
		end := min(i+2, len(f.drivers))
		if err := fn(f.drivers[i:end]); err != nil {
			return err
		}
	}
	return f.streamErr
}

func (f *fakeEngine) ComputeWindow(_ context.Context, driver domain.DriverRef, _ int, _ []int) (milestones.ComputeResult, error) {
	f.computed.Add(1)
	if f.panicFor[driver.ID] {
		panic("corrupt trip row")
	}
	if f.failFor[driver.ID] {
		return milestones.ComputeResult{}, errors.New("write failed")
	}
	return milestones.ComputeResult{DriverID: driver.ID}, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	submitted int
	finished  []string
	processed int
}

func (r *fakeRecorder) JobSubmitted(int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted++
}

func (r *fakeRecorder) JobFinished(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, status)
}

func (r *fakeRecorder) DriverProcessed(bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed++
}

func newTestCoordinator(engine Engine) *Coordinator {
	log := logger.New("development")
	return NewCoordinator(engine, events.NewInMemoryBus(log), 3, log)
}

func drivers(ids ...string) []domain.DriverRef {
	out := make([]domain.DriverRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.DriverRef{ID: id})
	}
	return out
}

func waitForTerminal(t *testing.T, c *Coordinator, jobID string) Progress {
	t.Helper()
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	p, err := c.GetProgress(jobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	engine := &fakeEngine{drivers: drivers("d1")}
	coord := newTestCoordinator(engine)
	rec := &fakeRecorder{}
	coord.SetRecorder(rec)

	submitted, err := coord.Submit(domain.Scope{WindowDays: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submitted.Status != StatusRunning {
		t.Fatalf("expected running on submit, got %s", submitted.Status)
	}

	p := waitForTerminal(t, coord, submitted.JobID)
	if p.Status != StatusCompleted || p.Total != 1 || p.Succeeded != 1 || p.Failed != 0 {
		t.Fatalf("unexpected progress %+v", p)
	}
	if p.FinishedAt == nil {
		t.Fatalf("expected finish time")
	}
	if rec.submitted != 1 || len(rec.finished) != 1 || rec.finished[0] != "completed" || rec.processed != 1 {
		t.Fatalf("unexpected instrumentation %+v", rec)
	}
}

func TestSubmitRejectsInvalidScope(t *testing.T) {
	coord := newTestCoordinator(&fakeEngine{})
	_, err := coord.Submit(domain.Scope{WindowDays: 10})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(coord.List()) != 0 {
		t.Fatalf("expected no job to be registered")
	}
}

func TestJobWithoutDriversCompletes(t *testing.T) {
	coord := newTestCoordinator(&fakeEngine{})

	p, err := coord.Run(context.Background(), domain.Scope{WindowDays: 14})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusCompleted || p.Total != 0 || p.Processed != 0 {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestDriverFailuresDoNotAbortJob(t *testing.T) {
	engine := &fakeEngine{
		drivers:  drivers("d1", "d2", "d3", "d4", "d5"),
		failFor:  map[string]bool{"d2": true},
		panicFor: map[string]bool{"d4": true},
	}
	coord := newTestCoordinator(engine)

	p, err := coord.Run(context.Background(), domain.Scope{WindowDays: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.computed.Load() != 5 {
		t.Fatalf("expected every driver to be attempted, got %d", engine.computed.Load())
	}
	if p.Status != StatusCompleted || p.Succeeded != 3 || p.Failed != 2 || p.Processed != p.Total {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestStreamErrorFailsJob(t *testing.T) {
	engine := &fakeEngine{drivers: drivers("d1"), streamErr: errors.New("connection reset")}
	coord := newTestCoordinator(engine)

	p, err := coord.Run(context.Background(), domain.Scope{WindowDays: 7})
	if err == nil {
		t.Fatalf("expected error from failed job")
	}
	if p.Status != StatusFailed || p.Error == "" {
		t.Fatalf("unexpected progress %+v", p)
	}
	if p.Succeeded != 1 {
		t.Fatalf("expected streamed driver to be processed before the failure, got %d", p.Succeeded)
	}
}

func TestClearRemovesBookkeeping(t *testing.T) {
	coord := newTestCoordinator(&fakeEngine{drivers: drivers("d1")})

	submitted, err := coord.Submit(domain.Scope{WindowDays: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := waitForTerminal(t, coord, submitted.JobID)
	if err := coord.Clear(p.JobID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := coord.GetProgress(p.JobID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
	if err := coord.Clear(p.JobID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second clear, got %v", err)
	}
}

func TestRunDoesNotRetainProgress(t *testing.T) {
	coord := newTestCoordinator(&fakeEngine{drivers: drivers("d1", "d2")})
	rec := &fakeRecorder{}
	coord.SetRecorder(rec)

	for i := 0; i < 3; i++ {
		p, err := coord.Run(context.Background(), domain.Scope{WindowDays: 7})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != StatusCompleted || p.Succeeded != 2 {
			t.Fatalf("unexpected progress %+v", p)
		}
		if _, err := coord.GetProgress(p.JobID); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected run %d to leave no progress entry, got %v", i, err)
		}
	}
	if len(coord.List()) != 0 {
		t.Fatalf("expected no tracked jobs after synchronous runs, got %d", len(coord.List()))
	}
	if len(rec.finished) != 3 {
		t.Fatalf("expected every run to be reported finished, got %v", rec.finished)
	}
}
