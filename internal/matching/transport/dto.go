// Package transport defines the request and response shapes of the matching API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type ReconcileRequest struct {
	Source string `json:"source" validate:"required,oneof=lead scout_registration"`
	From   string `json:"from" validate:"required,datetime=2006-01-02"`
	To     string `json:"to" validate:"required,datetime=2006-01-02"`
}

type DoubleMatchQuery struct {
	Source string `form:"source" validate:"required,oneof=lead scout_registration"`
	From   string `form:"from" validate:"required,datetime=2006-01-02"`
	To     string `form:"to" validate:"required,datetime=2006-01-02"`
}

type AssignRequest struct {
	DriverID string `json:"driverId" validate:"required,max=64"`
}

type SignalsResponse struct {
	Date  float64 `json:"date"`
	Phone float64 `json:"phone"`
	Name  float64 `json:"name"`
}

type CandidateResponse struct {
	DriverID      string          `json:"driverId"`
	HireDate      string          `json:"hireDate"`
	Score         float64         `json:"score"`
	AutoMatch     bool            `json:"autoMatch"`
	DateDeltaDays int             `json:"dateDeltaDays"`
	Signals       SignalsResponse `json:"signals"`
	Reasons       []string        `json:"reasons"`
}

type CandidatesResponse struct {
	RecordID   uuid.UUID           `json:"recordId"`
	Source     string              `json:"source"`
	Candidates []CandidateResponse `json:"candidates"`
}

type RecordResponse struct {
	ID             uuid.UUID  `json:"id"`
	Source         string     `json:"source"`
	SourceRecordID string     `json:"sourceRecordId"`
	ScoutID        string     `json:"scoutId,omitempty"`
	ReferenceDate  string     `json:"referenceDate"`
	DriverID       *string    `json:"driverId"`
	Score          float64    `json:"score"`
	Reasons        []string   `json:"reasons"`
	IsManual       bool       `json:"isManual"`
	IsDiscarded    bool       `json:"isDiscarded"`
	MatchedAt      *time.Time `json:"matchedAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type ReconcileResponse struct {
	Source    string `json:"source"`
	From      string `json:"from"`
	To        string `json:"to"`
	Evaluated int    `json:"evaluated"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Cleared   int    `json:"cleared"`
	Skipped   int    `json:"skipped"`
	Updated   int64  `json:"updated"`
}

type DoubleMatchResponse struct {
	Source    string      `json:"source"`
	DriverID  string      `json:"driverId"`
	RecordIDs []uuid.UUID `json:"recordIds"`
}

type DoubleMatchesResponse struct {
	Items []DoubleMatchResponse `json:"items"`
	Total int                   `json:"total"`
}
