package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	jobsservice "onboarding_backend/internal/jobs/service"
	matchdomain "onboarding_backend/internal/matching/domain"
	"onboarding_backend/internal/matching/transport"
	msdomain "onboarding_backend/internal/milestones/domain"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// MilestoneRunner runs a recompute job to completion.
type MilestoneRunner interface {
	Run(ctx context.Context, scope msdomain.Scope) (jobsservice.Progress, error)
}

// MatchReconciler reconciles records of one source over a date range.
type MatchReconciler interface {
	Reconcile(ctx context.Context, source matchdomain.Source, from, to time.Time) (transport.ReconcileResponse, error)
}

// ParkLister lists the parks a recompute without a park id fans out over.
type ParkLister interface {
	ListParks(ctx context.Context) ([]string, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	milestones MilestoneRunner
	matching   MatchReconciler
	parks      ParkLister
	log        *logger.Logger
	now        func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, milestones MilestoneRunner, matching MatchReconciler, parks ParkLister, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(milestones, matching, parks, log)
	w.server = server
	return w, nil
}

func newWorker(milestones MilestoneRunner, matching MatchReconciler, parks ParkLister, log *logger.Logger) *Worker {
	w := &Worker{
		mux:        asynq.NewServeMux(),
		milestones: milestones,
		matching:   matching,
		parks:      parks,
		log:        log,
		now:        time.Now,
	}
	w.mux.HandleFunc(TaskMilestoneRecompute, w.handleMilestoneRecompute)
	w.mux.HandleFunc(TaskMatchReconcile, w.handleMatchReconcile)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleMilestoneRecompute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMilestoneRecomputePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	scope := msdomain.Scope{ParkID: payload.ParkID, WindowDays: payload.WindowDays}
	if err := scope.Validate(); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if scope.ParkID != "" {
		return w.recompute(ctx, scope)
	}

	parks, err := w.parks.ListParks(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, park := range parks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		parkScope := scope
		parkScope.ParkID = park
		if err := w.recompute(ctx, parkScope); err != nil {
			w.log.Warn("milestone recompute failed for park", "parkId", park, "windowDays", scope.WindowDays, "error", err)
			errs = append(errs, fmt.Errorf("park %s: %w", park, err))
		}
	}
	return errors.Join(errs...)
}

func (w *Worker) recompute(ctx context.Context, scope msdomain.Scope) error {
	progress, err := w.milestones.Run(ctx, scope)
	if err != nil {
		return err
	}
	w.log.Info("milestone recompute finished",
		"jobId", progress.JobID,
		"parkId", scope.ParkID,
		"windowDays", scope.WindowDays,
		"total", progress.Total,
		"failed", progress.Failed,
	)
	return nil
}

func (w *Worker) handleMatchReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMatchReconcilePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	source := matchdomain.Source(payload.Source)
	if !source.Valid() || payload.LookbackDays < 1 {
		return fmt.Errorf("%w: invalid reconcile payload", asynq.SkipRetry)
	}

	to := w.now().UTC()
	from := to.AddDate(0, 0, -payload.LookbackDays)
	result, err := w.matching.Reconcile(ctx, source, from, to)
	if err != nil {
		return err
	}
	w.log.Info("match reconcile finished",
		"source", result.Source,
		"evaluated", result.Evaluated,
		"matched", result.Matched,
		"unmatched", result.Unmatched,
	)
	return nil
}
