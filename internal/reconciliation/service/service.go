// Package service builds reconciliation summaries and archives them.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"onboarding_backend/internal/adapters/storage"
	"onboarding_backend/internal/reconciliation/domain"
	"onboarding_backend/internal/reconciliation/repository"
	"onboarding_backend/internal/reconciliation/transport"
	"onboarding_backend/platform/apperr"
	"onboarding_backend/platform/logger"
)

const (
	PeriodRange = "range"
	PeriodWeeks = "weeks"

	exportFolder = "reconciliation"
)

// Source reads the joined data sets.
type Source interface {
	ListRegistrations(ctx context.Context, filter repository.Filter, from, to time.Time) ([]domain.Registration, error)
	ListLeadDrivers(ctx context.Context, driverIDs []string) ([]string, error)
	ListFulfillments(ctx context.Context, driverIDs []string, windowDays int) ([]domain.Fulfillment, error)
	ListPartnerPayments(ctx context.Context, filter repository.Filter, from, to time.Time) ([]domain.PartnerPayment, error)
}

// Service computes reconciliation summaries.
type Service struct {
	source         Source
	storage        storage.StorageService
	bucket         string
	windowDays     int
	milestoneTypes []int
	log            *logger.Logger
	now            func() time.Time
}

// New creates a reconciliation service. storage may be nil, which disables
// exports.
func New(source Source, store storage.StorageService, bucket string, windowDays int, milestoneTypes []int, log *logger.Logger) *Service {
	return &Service{
		source:         source,
		storage:        store,
		bucket:         bucket,
		windowDays:     windowDays,
		milestoneTypes: milestoneTypes,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Summary computes the reconciliation summary of a period.
func (s *Service) Summary(ctx context.Context, q transport.SummaryQuery) (transport.SummaryResponse, error) {
	period, periodResp, err := derivePeriod(q)
	if err != nil {
		return transport.SummaryResponse{}, err
	}
	windowDays := q.WindowDays
	if windowDays == 0 {
		windowDays = s.windowDays
	}

	env := period.Envelope()
	filter := repository.Filter{ScoutID: q.ScoutID, ParkID: q.ParkID}
	regs, err := s.source.ListRegistrations(ctx, filter, env.From, env.To)
	if err != nil {
		return transport.SummaryResponse{}, err
	}

	driverIDs := matchedDrivers(regs)
	leads, err := s.source.ListLeadDrivers(ctx, driverIDs)
	if err != nil {
		return transport.SummaryResponse{}, err
	}
	payments, err := s.source.ListPartnerPayments(ctx, filter, env.From, env.To)
	if err != nil {
		return transport.SummaryResponse{}, err
	}
	fulfillments, err := s.source.ListFulfillments(ctx, withPaidDrivers(driverIDs, payments), windowDays)
	if err != nil {
		return transport.SummaryResponse{}, err
	}

	summary := domain.Aggregate(domain.Input{
		Period:         period,
		MilestoneTypes: s.milestoneTypes,
		Registrations:  regs,
		LeadDrivers:    leads,
		Fulfillments:   fulfillments,
		Payments:       payments,
	})

	return transport.SummaryResponse{
		Period:      periodResp,
		WindowDays:  windowDays,
		GeneratedAt: s.now(),
		Summary:     summary,
	}, nil
}

// Export computes a summary and archives it as JSON in object storage.
func (s *Service) Export(ctx context.Context, q transport.SummaryQuery) (transport.ExportResponse, error) {
	if s.storage == nil {
		return transport.ExportResponse{}, apperr.BadRequest("report storage is not configured")
	}

	summary, err := s.Summary(ctx, q)
	if err != nil {
		return transport.ExportResponse{}, err
	}

	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return transport.ExportResponse{}, fmt.Errorf("encode summary: %w", err)
	}

	folder := fmt.Sprintf("%s/%s_%s", exportFolder, summary.Period.From, summary.Period.To)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, "summary.json", "application/json", bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return transport.ExportResponse{}, err
	}

	resp := transport.ExportResponse{Bucket: s.bucket, FileKey: fileKey, SizeBytes: int64(len(body))}
	if url, err := s.storage.GenerateDownloadURL(ctx, s.bucket, fileKey); err != nil {
		s.log.Warn("failed to presign reconciliation export", "fileKey", fileKey, "error", err)
	} else {
		resp.DownloadURL = url.URL
		resp.ExpiresAt = &url.ExpiresAt
	}

	s.log.Info("reconciliation summary exported", "bucket", s.bucket, "fileKey", fileKey, "bytes", len(body))
	return resp, nil
}

// OpenExport streams an archived summary. The caller closes the reader.
func (s *Service) OpenExport(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, apperr.BadRequest("report storage is not configured")
	}
	key, err := exportKey(fileKey)
	if err != nil {
		return nil, err
	}

	rc, err := s.storage.DownloadFile(ctx, s.bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, apperr.NotFound("export not found")
	}
	return rc, err
}

// DeleteExport removes an archived summary. Deleting a missing export succeeds.
func (s *Service) DeleteExport(ctx context.Context, fileKey string) error {
	if s.storage == nil {
		return apperr.BadRequest("report storage is not configured")
	}
	key, err := exportKey(fileKey)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteObject(ctx, s.bucket, key); err != nil {
		return err
	}
	s.log.Info("reconciliation export deleted", "bucket", s.bucket, "fileKey", key)
	return nil
}

// exportKey accepts only keys under the export folder written by Export.
func exportKey(fileKey string) (string, error) {
	key := strings.TrimPrefix(fileKey, "/")
	if !strings.HasPrefix(key, exportFolder+"/") || strings.Contains(key, "..") || path.Ext(key) != ".json" {
		return "", apperr.Validation("fileKey must name a reconciliation export")
	}
	return key, nil
}

func derivePeriod(q transport.SummaryQuery) (domain.Period, transport.PeriodResponse, error) {
	switch q.PeriodType {
	case PeriodRange:
		if q.From == "" || q.To == "" {
			return domain.Period{}, transport.PeriodResponse{}, apperr.Validation("from and to are required for a range period")
		}
		from, errFrom := time.Parse(time.DateOnly, q.From)
		to, errTo := time.Parse(time.DateOnly, q.To)
		if errFrom != nil || errTo != nil {
			return domain.Period{}, transport.PeriodResponse{}, apperr.Validation("dates must be YYYY-MM-DD")
		}
		p, err := domain.RangePeriod(from, to)
		if err != nil {
			return domain.Period{}, transport.PeriodResponse{}, err
		}
		return p, periodResponse(PeriodRange, p, nil), nil

	case PeriodWeeks:
		p, err := domain.WeeksPeriod(q.Weeks)
		if err != nil {
			return domain.Period{}, transport.PeriodResponse{}, err
		}
		return p, periodResponse(PeriodWeeks, p, q.Weeks), nil
	}
	return domain.Period{}, transport.PeriodResponse{}, apperr.Validation("periodType must be range or weeks")
}

func periodResponse(kind string, p domain.Period, weeks []string) transport.PeriodResponse {
	env := p.Envelope()
	return transport.PeriodResponse{
		Type:  kind,
		From:  env.From.Format(time.DateOnly),
		To:    env.To.Format(time.DateOnly),
		Weeks: weeks,
	}
}

func matchedDrivers(regs []domain.Registration) []string {
	seen := make(map[string]bool, len(regs))
	out := make([]string, 0, len(regs))
	for _, r := range regs {
		if r.DriverID == "" || seen[r.DriverID] {
			continue
		}
		seen[r.DriverID] = true
		out = append(out, r.DriverID)
	}
	return out
}

// withPaidDrivers extends driverIDs with every paid driver not already in it.
func withPaidDrivers(driverIDs []string, payments []domain.PartnerPayment) []string {
	seen := make(map[string]bool, len(driverIDs))
	out := append(make([]string, 0, len(driverIDs)), driverIDs...)
	for _, d := range driverIDs {
		seen[d] = true
	}
	for _, p := range payments {
		if seen[p.DriverID] {
			continue
		}
		seen[p.DriverID] = true
		out = append(out, p.DriverID)
	}
	return out
}
