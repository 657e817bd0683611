package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboarding_backend/internal/adapters"
	"onboarding_backend/internal/events"
	"onboarding_backend/internal/jobs"
	"onboarding_backend/internal/matching"
	"onboarding_backend/internal/milestones"
	"onboarding_backend/internal/scheduler"
	tripsrepo "onboarding_backend/internal/trips/repository"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/db"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/metrics"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	metricsManager := metrics.NewManager()
	adapters.SubscribeEventMetrics(eventBus, metricsManager)

	val := validator.New()

	// Worker-side wiring (no HTTP handlers required).
	trips := tripsrepo.New(pool)
	matchingModule := matching.NewModule(pool, adapters.NewTripsDriverReader(trips), eventBus, cfg.Rules.Matching, cfg.GetPhoneDefaultRegion(), val, log)
	matchingModule.Service().SetOutcomeRecorder(metricsManager)
	milestonesModule := milestones.NewModule(pool, adapters.NewMilestoneTripReader(trips), eventBus, cfg.GetMilestonePageSize(), val, log)
	jobsModule := jobs.NewModule(milestonesModule.Engine(), eventBus, cfg.GetMilestoneJobWorkers(), metricsManager, val, log)

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	if err := periodic.Start(); err != nil {
		log.Error("failed to start periodic scheduler", "error", err)
		panic("failed to start periodic scheduler: " + err.Error())
	}
	defer periodic.Shutdown()

	worker, err := scheduler.NewWorker(cfg, jobsModule.Coordinator(), matchingModule.Service(), trips, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := jobsModule.Coordinator().Shutdown(shutdownCtx); err != nil {
		log.Warn("milestone jobs still running at shutdown", "error", err)
	}
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
