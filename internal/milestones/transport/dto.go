// Package transport defines the request and response shapes of the milestones API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type DayCountResponse struct {
	Date  string `json:"date"`
	Trips int    `json:"trips"`
}

type InstanceResponse struct {
	ID            uuid.UUID          `json:"id"`
	DriverID      string             `json:"driverId"`
	ParkID        string             `json:"parkId"`
	MilestoneType int                `json:"milestoneType"`
	WindowDays    int                `json:"windowDays"`
	TripCount     int                `json:"tripCount"`
	Fulfilled     bool               `json:"fulfilled"`
	FulfilledAt   *time.Time         `json:"fulfilledAt,omitempty"`
	CalculatedAt  time.Time          `json:"calculatedAt"`
	Breakdown     []DayCountResponse `json:"breakdown"`
}

type DriverMilestonesResponse struct {
	DriverID  string             `json:"driverId"`
	Instances []InstanceResponse `json:"instances"`
}

type DriversQueryRequest struct {
	DriverIDs  []string `json:"driverIds" validate:"required,min=1,max=1000,dive,required,max=64"`
	WindowDays int      `json:"windowDays" validate:"required,window_days"`
}

type DriversQueryResponse struct {
	WindowDays int                           `json:"windowDays"`
	Drivers    map[string][]InstanceResponse `json:"drivers"`
}

type FulfilledQuery struct {
	From          string `form:"from" validate:"required,datetime=2006-01-02"`
	To            string `form:"to" validate:"required,datetime=2006-01-02"`
	ParkID        string `form:"parkId" validate:"omitempty,max=64"`
	WindowDays    int    `form:"windowDays" validate:"omitempty,window_days"`
	MilestoneType int    `form:"milestoneType" validate:"omitempty,milestone_type"`
}

type FulfilledResponse struct {
	From  string             `json:"from"`
	To    string             `json:"to"`
	Items []InstanceResponse `json:"items"`
	Total int                `json:"total"`
}
