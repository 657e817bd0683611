// Package transport defines the request and response shapes of the
// reconciliation API.
package transport

import (
	"time"

	"onboarding_backend/internal/reconciliation/domain"
)

type SummaryQuery struct {
	PeriodType string   `form:"periodType" json:"periodType" validate:"required,oneof=range weeks"`
	From       string   `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string   `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Weeks      []string `form:"weeks" json:"weeks" validate:"omitempty,max=60,dive,iso_week"`
	ScoutID    string   `form:"scoutId" json:"scoutId" validate:"omitempty,max=64"`
	ParkID     string   `form:"parkId" json:"parkId" validate:"omitempty,max=64"`
	WindowDays int      `form:"windowDays" json:"windowDays" validate:"omitempty,window_days"`
}

type PeriodResponse struct {
	Type  string   `json:"type"`
	From  string   `json:"from"`
	To    string   `json:"to"`
	Weeks []string `json:"weeks,omitempty"`
}

type SummaryResponse struct {
	Period      PeriodResponse `json:"period"`
	WindowDays  int            `json:"windowDays"`
	GeneratedAt time.Time      `json:"generatedAt"`
	domain.Summary
}

type ExportResponse struct {
	Bucket      string     `json:"bucket"`
	FileKey     string     `json:"fileKey"`
	SizeBytes   int64      `json:"sizeBytes"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}
