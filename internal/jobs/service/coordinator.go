// Package service runs milestone batch jobs over a driver population with a
// bounded worker pool and in-memory progress tracking.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"onboarding_backend/internal/events"
	"onboarding_backend/internal/milestones/domain"
	milestones "onboarding_backend/internal/milestones/service"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Engine is the milestone engine surface the coordinator drives.
type Engine interface {
	CountPopulation(ctx context.Context, scope domain.Scope) (int64, error)
	StreamPopulation(ctx context.Context, scope domain.Scope, fn func(page []domain.DriverRef) error) error
	ComputeWindow(ctx context.Context, driver domain.DriverRef, windowDays int, types []int) (milestones.ComputeResult, error)
}

// Recorder receives job instrumentation.
type Recorder interface {
	JobSubmitted(windowDays int)
	JobFinished(status string)
	DriverProcessed(ok bool, elapsed time.Duration)
}

// Coordinator accepts batch jobs and runs them in the background.
type Coordinator struct {
	engine   Engine
	progress *ProgressStore
	eventBus events.Bus
	recorder Recorder
	log      *logger.Logger
	workers  int

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator creates a coordinator that processes up to workers drivers
// of a job concurrently.
func NewCoordinator(engine Engine, eventBus events.Bus, workers int, log *logger.Logger) *Coordinator {
	if workers < 1 {
		workers = defaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		engine:   engine,
		progress: NewProgressStore(),
		eventBus: eventBus,
		log:      log,
		workers:  workers,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// SetRecorder attaches job instrumentation.
func (c *Coordinator) SetRecorder(r Recorder) {
	c.recorder = r
}

// Submit validates the scope, registers the job and starts it in the
// background. It returns as soon as the job is registered.
func (c *Coordinator) Submit(scope domain.Scope) (Progress, error) {
	if err := scope.Validate(); err != nil {
		return Progress{}, err
	}

	jobID := uuid.New().String()
	p := c.progress.Create(jobID, scope)
	if c.recorder != nil {
		c.recorder.JobSubmitted(scope.WindowDays)
	}
	c.log.Info("milestone job submitted", "jobId", jobID, "windowDays", scope.WindowDays, "parkId", scope.ParkID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.execute(c.baseCtx, jobID, scope)
	}()
	return p, nil
}

// Run executes a job synchronously and returns its final progress. A job
// whose population could not be read returns an error. The caller holds the
// only copy of the result, so the job is not kept in the progress store.
func (c *Coordinator) Run(ctx context.Context, scope domain.Scope) (Progress, error) {
	if err := scope.Validate(); err != nil {
		return Progress{}, err
	}

	jobID := uuid.New().String()
	c.progress.Create(jobID, scope)
	if c.recorder != nil {
		c.recorder.JobSubmitted(scope.WindowDays)
	}

	final := c.execute(ctx, jobID, scope)
	_ = c.progress.Clear(jobID)
	if final.Status == StatusFailed {
		return final, fmt.Errorf("milestone job %s failed: %s", jobID, final.Error)
	}
	return final, nil
}

// GetProgress returns a job snapshot.
func (c *Coordinator) GetProgress(jobID string) (Progress, error) {
	return c.progress.Get(jobID)
}

// List returns every tracked job.
func (c *Coordinator) List() []Progress {
	return c.progress.List()
}

// Clear removes a job's bookkeeping.
func (c *Coordinator) Clear(jobID string) error {
	return c.progress.Clear(jobID)
}

// Shutdown waits for running jobs. When ctx expires first the jobs are
// cancelled and ctx's error is returned.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}

func (c *Coordinator) execute(ctx context.Context, jobID string, scope domain.Scope) Progress {
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := c.log.WithJobID(jobID)

	total, err := c.engine.CountPopulation(ctx, scope)
	if err != nil {
		return c.finish(ctx, log, jobID, StatusFailed, fmt.Errorf("count population: %w", err))
	}
	c.progress.SetTotal(jobID, total)

	var g errgroup.Group
	g.SetLimit(c.workers)
	types := scope.Types()

	streamErr := c.engine.StreamPopulation(ctx, scope, func(page []domain.DriverRef) error {
		for _, d := range page {
			g.Go(func() error {
				c.processDriver(ctx, log, jobID, d, scope.WindowDays, types)
				return nil
			})
		}
		return nil
	})
	_ = g.Wait()

	if streamErr != nil {
		return c.finish(ctx, log, jobID, StatusFailed, fmt.Errorf("stream population: %w", streamErr))
	}
	return c.finish(ctx, log, jobID, StatusCompleted, nil)
}

func (c *Coordinator) processDriver(ctx context.Context, log *logger.Logger, jobID string, driver domain.DriverRef, windowDays int, types []int) {
	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		ok := err == nil
		if !ok {
			log.Warn("milestone computation failed", "driverId", driver.ID, "windowDays", windowDays, "error", err)
		}
		c.progress.RecordResult(jobID, ok)
		if c.recorder != nil {
			c.recorder.DriverProcessed(ok, time.Since(start))
		}
	}()

	_, err = c.engine.ComputeWindow(ctx, driver, windowDays, types)
}

func (c *Coordinator) finish(ctx context.Context, log *logger.Logger, jobID string, status Status, cause error) Progress {
	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
		if errors.Is(cause, context.Canceled) {
			errMsg = "job cancelled"
		}
	}

	p, ok := c.progress.Finish(jobID, status, errMsg)
	if c.recorder != nil {
		c.recorder.JobFinished(string(status))
	}
	if !ok {
		log.Info("milestone job finished after its progress was cleared", "status", status)
		return Progress{JobID: jobID, Status: status, Error: errMsg}
	}

	log.JobEvent(jobID, string(p.Status), p.Total, p.Processed, p.Succeeded, p.Failed)
	if cause != nil {
		log.Error("milestone job failed", "error", cause)
	} else if p.Failed > 0 {
		log.Warn("milestone job finished with failures", "error", apperr.PartialFailure(p.Failed, p.Total))
	}
	c.eventBus.Publish(context.WithoutCancel(ctx), events.MilestoneJobFinished{
		BaseEvent: events.NewBaseEvent(),
		JobID:     jobID,
		Status:    string(p.Status),
		Total:     p.Total,
		Succeeded: p.Succeeded,
		Failed:    p.Failed,
	})
	return p
}
