package scheduler

import (
	"fmt"

	matchdomain "onboarding_backend/internal/matching/domain"
	msdomain "onboarding_backend/internal/milestones/domain"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// RecomputeWindows are the milestone windows refreshed on every tick.
var RecomputeWindows = msdomain.AllWindows

// ReconcileSources are the record sources reconciled on every tick.
var ReconcileSources = []matchdomain.Source{matchdomain.SourceLead, matchdomain.SourceScoutRegistration}

// Entry is one periodic task registration.
type Entry struct {
	Cron string
	Task *asynq.Task
}

// PeriodicEntries builds the cron registrations: one recompute per window
// and one reconcile per source.
func PeriodicEntries(cfg config.SchedulerConfig) ([]Entry, error) {
	entries := make([]Entry, 0, len(RecomputeWindows)+len(ReconcileSources))
	for _, window := range RecomputeWindows {
		task, err := NewMilestoneRecomputeTask(MilestoneRecomputePayload{WindowDays: window})
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Cron: cfg.GetMilestoneRecomputeCron(), Task: task})
	}

	lookback := cfg.GetMatchLookbackDays()
	if lookback < 1 {
		lookback = 30
	}
	for _, source := range ReconcileSources {
		task, err := NewMatchReconcileTask(MatchReconcilePayload{Source: string(source), LookbackDays: lookback})
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Cron: cfg.GetMatchReconcileCron(), Task: task})
	}
	return entries, nil
}

// Periodic enqueues the recurring tasks on their cron schedules.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	entries, err := PeriodicEntries(cfg)
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, nil)
	queue := queueName(cfg)
	for _, e := range entries {
		id, err := s.Register(e.Cron, e.Task, asynq.Queue(queue))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", e.Task.Type(), err)
		}
		log.Info("periodic task registered", "task", e.Task.Type(), "cron", e.Cron, "entryId", id)
	}

	return &Periodic{scheduler: s, log: log}, nil
}

// Start launches the cron loop in the background.
func (p *Periodic) Start() error {
	if p == nil || p.scheduler == nil {
		return nil
	}
	return p.scheduler.Start()
}

// Shutdown stops the cron loop.
func (p *Periodic) Shutdown() {
	if p == nil || p.scheduler == nil {
		return
	}
	p.scheduler.Shutdown()
}
