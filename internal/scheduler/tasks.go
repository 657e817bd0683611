package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskMilestoneRecompute = "milestones.recompute"

const TaskMatchReconcile = "matching.reconcile"

// MilestoneRecomputePayload selects the population a recompute covers. An
// empty ParkID means all parks.
type MilestoneRecomputePayload struct {
	WindowDays int    `json:"windowDays"`
	ParkID     string `json:"parkId,omitempty"`
}

// MatchReconcilePayload selects the records a reconcile run covers.
type MatchReconcilePayload struct {
	Source       string `json:"source"`
	LookbackDays int    `json:"lookbackDays"`
}

func NewMilestoneRecomputeTask(payload MilestoneRecomputePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMilestoneRecompute, data), nil
}

func ParseMilestoneRecomputePayload(task *asynq.Task) (MilestoneRecomputePayload, error) {
	var payload MilestoneRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MilestoneRecomputePayload{}, err
	}
	return payload, nil
}

func NewMatchReconcileTask(payload MatchReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMatchReconcile, data), nil
}

func ParseMatchReconcilePayload(task *asynq.Task) (MatchReconcilePayload, error) {
	var payload MatchReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MatchReconcilePayload{}, err
	}
	return payload, nil
}
