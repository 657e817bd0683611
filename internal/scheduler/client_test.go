package scheduler

import (
	"context"
	"errors"
	"testing"

	"onboarding_backend/platform/apperr"

	"github.com/hibiken/asynq"
)

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	queues []string
	err    error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	for _, o := range opts {
		if o.Type() == asynq.QueueOpt {
			f.queues = append(f.queues, o.Value().(string))
		}
	}
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestEnqueueMilestoneRecomputeUsesConfiguredQueue(t *testing.T) {
	fake := &fakeEnqueuer{}
	c := &Client{client: fake, queue: "onboarding"}

	id, err := c.EnqueueMilestoneRecompute(context.Background(), MilestoneRecomputePayload{WindowDays: 14, ParkID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "task-1" {
		t.Fatalf("unexpected task id %q", id)
	}
	if len(fake.tasks) != 1 || fake.tasks[0].Type() != TaskMilestoneRecompute {
		t.Fatalf("unexpected tasks %+v", fake.tasks)
	}
	if len(fake.queues) != 1 || fake.queues[0] != "onboarding" {
		t.Fatalf("expected queue onboarding, got %v", fake.queues)
	}
	payload, err := ParseMilestoneRecomputePayload(fake.tasks[0])
	if err != nil || payload.WindowDays != 14 || payload.ParkID != "p1" {
		t.Fatalf("unexpected payload %+v (%v)", payload, err)
	}
}

func TestEnqueueRejectsInvalidPayloads(t *testing.T) {
	fake := &fakeEnqueuer{}
	c := &Client{client: fake, queue: "default"}

	if _, err := c.EnqueueMilestoneRecompute(context.Background(), MilestoneRecomputePayload{WindowDays: 30}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for window, got %v", err)
	}
	if _, err := c.EnqueueMatchReconcile(context.Background(), MatchReconcilePayload{Source: "walk_in", LookbackDays: 7}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for source, got %v", err)
	}
	if _, err := c.EnqueueMatchReconcile(context.Background(), MatchReconcilePayload{Source: "lead"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for lookback, got %v", err)
	}
	if len(fake.tasks) != 0 {
		t.Fatalf("expected nothing enqueued, got %d", len(fake.tasks))
	}
}

func TestEnqueueMatchReconcileWrapsBrokerErrors(t *testing.T) {
	c := &Client{client: &fakeEnqueuer{err: errors.New("dial tcp: connection refused")}, queue: "default"}

	_, err := c.EnqueueMatchReconcile(context.Background(), MatchReconcilePayload{Source: "scout_registration", LookbackDays: 7})
	if err == nil {
		t.Fatalf("expected broker error")
	}
}
