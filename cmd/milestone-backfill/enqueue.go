package main

import (
	"context"
	"fmt"
	"io"

	"onboarding_backend/internal/milestones/domain"
	"onboarding_backend/internal/scheduler"
	"onboarding_backend/platform/config"

	"github.com/spf13/cobra"
)

type taskEnqueuer interface {
	EnqueueMilestoneRecompute(ctx context.Context, payload scheduler.MilestoneRecomputePayload) (string, error)
	EnqueueMatchReconcile(ctx context.Context, payload scheduler.MatchReconcilePayload) (string, error)
}

func enqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a task for the scheduler worker instead of running it here",
	}
	cmd.AddCommand(enqueueRecomputeCmd())
	cmd.AddCommand(enqueueReconcileCmd())
	return cmd
}

func enqueueRecomputeCmd() *cobra.Command {
	var window int
	var parkID string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Queue a milestone recompute (all parks unless --park is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchedulerClient(func(c taskEnqueuer) error {
				return enqueueRecompute(cmd.Context(), c, window, parkID, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().IntVarP(&window, "window", "w", 0, "Window in days, 7 or 14 (default both)")
	cmd.Flags().StringVarP(&parkID, "park", "p", "", "Restrict to one park")
	return cmd
}

func enqueueReconcileCmd() *cobra.Command {
	var source string
	var lookback int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Queue a match reconcile run for one source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchedulerClient(func(c taskEnqueuer) error {
				id, err := c.EnqueueMatchReconcile(cmd.Context(), scheduler.MatchReconcilePayload{Source: source, LookbackDays: lookback})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %s source=%s lookback=%dd task=%s\n", scheduler.TaskMatchReconcile, source, lookback, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "lead or scout_registration")
	cmd.Flags().IntVar(&lookback, "lookback", 30, "Days back from now to reconcile")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func withSchedulerClient(fn func(taskEnqueuer) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// enqueueRecompute queues one task per window; window 0 means every window.
func enqueueRecompute(ctx context.Context, c taskEnqueuer, window int, parkID string, out io.Writer) error {
	windows := domain.AllWindows
	if window != 0 {
		windows = []int{window}
	}
	for _, w := range windows {
		id, err := c.EnqueueMilestoneRecompute(ctx, scheduler.MilestoneRecomputePayload{WindowDays: w, ParkID: parkID})
		if err != nil {
			return err
		}
		park := parkID
		if park == "" {
			park = "all"
		}
		fmt.Fprintf(out, "queued %s window=%dd park=%s task=%s\n", scheduler.TaskMilestoneRecompute, w, park, id)
	}
	return nil
}
