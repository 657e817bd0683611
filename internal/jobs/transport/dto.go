// Package transport defines the request and response shapes of the jobs API.
package transport

import "time"

type SubmitRequest struct {
	ParkID        string `json:"parkId" validate:"omitempty,max=64"`
	WindowDays    int    `json:"windowDays" validate:"required,window_days"`
	MilestoneType *int   `json:"milestoneType" validate:"omitempty,milestone_type"`
	HireDateFrom  string `json:"hireDateFrom" validate:"omitempty,datetime=2006-01-02"`
	HireDateTo    string `json:"hireDateTo" validate:"omitempty,datetime=2006-01-02"`
}

type ScopeResponse struct {
	ParkID        string `json:"parkId,omitempty"`
	WindowDays    int    `json:"windowDays"`
	MilestoneType *int   `json:"milestoneType,omitempty"`
	HireDateFrom  string `json:"hireDateFrom,omitempty"`
	HireDateTo    string `json:"hireDateTo,omitempty"`
}

type ProgressResponse struct {
	JobID      string        `json:"jobId"`
	Status     string        `json:"status"`
	Scope      ScopeResponse `json:"scope"`
	Total      int64         `json:"total"`
	Processed  int64         `json:"processed"`
	Succeeded  int64         `json:"succeeded"`
	Failed     int64         `json:"failed"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type ProgressListResponse struct {
	Items []ProgressResponse `json:"items"`
	Total int                `json:"total"`
}
