// Package domain holds the matching model and the pure scoring and
// reconciliation functions. Nothing in this package performs I/O.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies which acquisition channel produced a record.
type Source string

const (
	SourceLead              Source = "lead"
	SourceScoutRegistration Source = "scout_registration"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceLead || s == SourceScoutRegistration
}

// Record is a lead or scout registration that may reference a driver.
type Record struct {
	ID             uuid.UUID
	Source         Source
	SourceRecordID string
	Channel        string
	ScoutID        string
	ReferenceDate  time.Time
	FullName       string
	Phone          string
	DriverID       string
	Score          float64
	Reasons        []string
	IsManual       bool
	IsDiscarded    bool
	MatchedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasDriver reports whether the record is currently resolved.
func (r Record) HasDriver() bool {
	return r.DriverID != ""
}

// Driver is the slice of driver data the matcher needs.
type Driver struct {
	ID       string
	ParkID   string
	FullName string
	Phone    string
	HireDate time.Time
}

// civilDate truncates t to its calendar date in UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	days := int(civilDate(b).Sub(civilDate(a)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
