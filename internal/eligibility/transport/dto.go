// Package transport defines the request and response shapes of the scout
// eligibility API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type EvaluateRequest struct {
	PeriodStart string `json:"periodStart" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"periodEnd" validate:"required,datetime=2006-01-02"`
}

type PayRequest struct {
	InstanceIDs []uuid.UUID `json:"instanceIds" validate:"required,min=1,max=500"`
}

type CancelRequest struct {
	InstanceIDs []uuid.UUID `json:"instanceIds" validate:"required,min=1,max=500"`
	Reason      string      `json:"reason" validate:"required,min=3,max=500"`
}

type InstanceResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ScoutID             string     `json:"scoutId"`
	DriverID            string     `json:"driverId"`
	MilestoneType       int        `json:"milestoneType"`
	WindowDays          int        `json:"windowDays"`
	MilestoneInstanceID *uuid.UUID `json:"milestoneInstanceId,omitempty"`
	AmountCents         int64      `json:"amountCents"`
	IsEligible          bool       `json:"isEligible"`
	EligibilityReason   string     `json:"eligibilityReason"`
	Status              string     `json:"status"`
	PaymentID           *uuid.UUID `json:"paymentId,omitempty"`
	CancelReason        string     `json:"cancelReason,omitempty"`
	PeriodStart         string     `json:"periodStart"`
	PeriodEnd           string     `json:"periodEnd"`
	PaidAt              *time.Time `json:"paidAt,omitempty"`
	CancelledAt         *time.Time `json:"cancelledAt,omitempty"`
}

type EvaluateResponse struct {
	ScoutID               string             `json:"scoutId"`
	PeriodStart           string             `json:"periodStart"`
	PeriodEnd             string             `json:"periodEnd"`
	Registrations         int                `json:"registrations"`
	RequiredRegistrations int                `json:"requiredRegistrations"`
	Items                 []InstanceResponse `json:"items"`
	EligibleCount         int                `json:"eligibleCount"`
	EligibleCents         int64              `json:"eligibleCents"`
}

type PaymentResponse struct {
	ID         uuid.UUID          `json:"id"`
	ScoutID    string             `json:"scoutId"`
	TotalCents int64              `json:"totalCents"`
	Instances  []InstanceResponse `json:"instances"`
	CreatedAt  time.Time          `json:"createdAt"`
}

type CancelResponse struct {
	Items []InstanceResponse `json:"items"`
}
