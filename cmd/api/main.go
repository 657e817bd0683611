package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboarding_backend/internal/adapters"
	"onboarding_backend/internal/adapters/storage"
	"onboarding_backend/internal/eligibility"
	"onboarding_backend/internal/events"
	apphttp "onboarding_backend/internal/http"
	"onboarding_backend/internal/http/router"
	"onboarding_backend/internal/jobs"
	"onboarding_backend/internal/matching"
	"onboarding_backend/internal/milestones"
	msrepo "onboarding_backend/internal/milestones/repository"
	"onboarding_backend/internal/reconciliation"
	tripsrepo "onboarding_backend/internal/trips/repository"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/db"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/metrics"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			result, err := db.RunMigrations(ctx, cfg)
			if err != nil {
				return err
			}
			log.Info("database migrations complete", "applied", len(result.Applied))
			return nil
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
	}

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	metricsManager := metrics.NewManager(metrics.WithRuntimeCollectors())
	adapters.SubscribeEventMetrics(eventBus, metricsManager)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Reconciliation archives are optional; without MinIO the export route
	// reports a bad request.
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure reports bucket", 5, 2*time.Second, func() error {
			return minioSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketReports())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketReports())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		storageSvc = minioSvc
		log.Info("storage service initialized", "reportsBucket", cfg.GetMinioBucketReports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; reconciliation export disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	trips := tripsrepo.New(pool)

	matchingModule := matching.NewModule(pool, adapters.NewTripsDriverReader(trips), eventBus, cfg.Rules.Matching, cfg.GetPhoneDefaultRegion(), val, log)
	matchingModule.Service().SetOutcomeRecorder(metricsManager)

	milestonesModule := milestones.NewModule(pool, adapters.NewMilestoneTripReader(trips), eventBus, cfg.GetMilestonePageSize(), val, log)
	jobsModule := jobs.NewModule(milestonesModule.Engine(), eventBus, cfg.GetMilestoneJobWorkers(), metricsManager, val, log)

	eligibilityModule := eligibility.NewModule(
		pool,
		adapters.NewEligibilityMilestoneReader(msrepo.New(pool)),
		adapters.NewEligibilityDriverActivity(trips),
		eventBus,
		cfg.Rules.Eligibility,
		val,
		log,
	)
	eligibilityModule.Service().SetPaymentRecorder(metricsManager)

	reconciliationModule := reconciliation.NewModule(
		pool,
		storageSvc,
		cfg.GetMinioBucketReports(),
		cfg.Rules.Eligibility.WindowDays,
		cfg.Rules.Eligibility.MilestoneTypes,
		val,
		log,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Metrics:  metricsManager,
		Modules: []apphttp.Module{
			matchingModule,
			milestonesModule,
			jobsModule,
			eligibilityModule,
			reconciliationModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	if err := jobsModule.Coordinator().Shutdown(shutdownCtx); err != nil {
		log.Warn("milestone jobs still running at shutdown", "error", err)
	}
	eventBus.Wait()
	log.Info("server stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
