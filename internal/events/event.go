// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"onboarding_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

const (
	NameMatchRecordAssigned  = "matching.record.assigned"
	NameMatchRecordDiscarded = "matching.record.discarded"
	NameMilestoneFulfilled   = "milestones.fulfilled"
	NameMilestoneJobFinished = "milestones.job.finished"
	NameScoutPaymentCreated  = "scouts.payment.created"
)

// AllNames lists every domain event published by this service.
var AllNames = []string{
	NameMatchRecordAssigned,
	NameMatchRecordDiscarded,
	NameMilestoneFulfilled,
	NameMilestoneJobFinished,
	NameScoutPaymentCreated,
}

// =============================================================================
// Matching Domain Events
// =============================================================================

// MatchRecordAssigned is published when an operator pins a record to a driver.
type MatchRecordAssigned struct {
	BaseEvent
	RecordID         uuid.UUID `json:"recordId"`
	Source           string    `json:"source"`
	DriverID         string    `json:"driverId"`
	PreviousDriverID string    `json:"previousDriverId,omitempty"`
}

func (e MatchRecordAssigned) EventName() string { return NameMatchRecordAssigned }

// MatchRecordDiscarded is published when a record is excluded from matching.
type MatchRecordDiscarded struct {
	BaseEvent
	RecordID uuid.UUID `json:"recordId"`
	Source   string    `json:"source"`
}

func (e MatchRecordDiscarded) EventName() string { return NameMatchRecordDiscarded }

// =============================================================================
// Milestone Domain Events
// =============================================================================

// MilestoneFulfilled is published the first time a driver reaches a threshold.
type MilestoneFulfilled struct {
	BaseEvent
	DriverID      string    `json:"driverId"`
	ParkID        string    `json:"parkId"`
	MilestoneType int       `json:"milestoneType"`
	WindowDays    int       `json:"windowDays"`
	TripCount     int       `json:"tripCount"`
	FulfilledAt   time.Time `json:"fulfilledAt"`
}

func (e MilestoneFulfilled) EventName() string { return NameMilestoneFulfilled }

// MilestoneJobFinished is published when a batch job reaches a terminal status.
type MilestoneJobFinished struct {
	BaseEvent
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Succeeded int64  `json:"succeeded"`
	Failed    int64  `json:"failed"`
}

func (e MilestoneJobFinished) EventName() string { return NameMilestoneJobFinished }

// =============================================================================
// Scout Payment Domain Events
// =============================================================================

// ScoutPaymentCreated is published after payment instances are settled.
type ScoutPaymentCreated struct {
	BaseEvent
	PaymentID   uuid.UUID   `json:"paymentId"`
	ScoutID     string      `json:"scoutId"`
	TotalCents  int64       `json:"totalCents"`
	InstanceIDs []uuid.UUID `json:"instanceIds"`
}

func (e ScoutPaymentCreated) EventName() string { return NameScoutPaymentCreated }
