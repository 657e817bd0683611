package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"onboarding_backend/internal/adapters"
	"onboarding_backend/internal/events"
	"onboarding_backend/internal/jobs"
	"onboarding_backend/internal/milestones"
	tripsrepo "onboarding_backend/internal/trips/repository"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/db"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "milestone-backfill",
		Short:   "Recompute driver milestones for a population",
		Version: Version,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(countCmd())
	rootCmd.AddCommand(enqueueCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// backfillEnv holds the wiring shared by the subcommands.
type backfillEnv struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
	bus  *events.InMemoryBus
}

func newBackfillEnv(ctx context.Context) (*backfillEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &backfillEnv{cfg: cfg, log: log, pool: pool, bus: events.NewInMemoryBus(log)}, nil
}

func (r *backfillEnv) close() {
	r.bus.Wait()
	r.pool.Close()
}

func (r *backfillEnv) modules(workers int) (*milestones.Module, *jobs.Module) {
	if workers < 1 {
		workers = r.cfg.GetMilestoneJobWorkers()
	}
	trips := tripsrepo.New(r.pool)
	val := validator.New()
	ms := milestones.NewModule(r.pool, adapters.NewMilestoneTripReader(trips), r.bus, r.cfg.GetMilestonePageSize(), val, r.log)
	js := jobs.NewModule(ms.Engine(), r.bus, workers, nil, val, r.log)
	return ms, js
}

func runCmd() *cobra.Command {
	var flags scopeFlags
	var workers int
	var sequential bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run recompute jobs synchronously and print their final progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := flags.scopes()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newBackfillEnv(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			ms, js := rt.modules(workers)
			out := cmd.OutOrStdout()
			if sequential {
				return runSequential(ctx, ms.Engine(), scopes, out)
			}
			var failed bool
			for _, scope := range scopes {
				progress, err := js.Coordinator().Run(ctx, scope)
				fmt.Fprintf(out, "window=%dd job=%s status=%s total=%d succeeded=%d failed=%d\n",
					scope.WindowDays, progress.JobID, progress.Status, progress.Total, progress.Succeeded, progress.Failed)
				if err != nil {
					fmt.Fprintf(out, "  error: %v\n", err)
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("one or more jobs failed")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent drivers per job (default MILESTONE_JOB_WORKERS)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Compute drivers one at a time and print each failed driver")
	return cmd
}

func countCmd() *cobra.Command {
	var flags scopeFlags

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of drivers a run would process",
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := flags.scopes()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := newBackfillEnv(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			ms, _ := rt.modules(0)
			total, err := ms.Engine().CountPopulation(ctx, scopes[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "drivers: %d\n", total)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
