package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"onboarding_backend/internal/events"
	"onboarding_backend/internal/jobs/service"
	"onboarding_backend/internal/jobs/transport"
	"onboarding_backend/internal/milestones/domain"
	milestones "onboarding_backend/internal/milestones/service"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type emptyEngine struct{}

func (emptyEngine) CountPopulation(context.Context, domain.Scope) (int64, error) { return 0, nil }

func (emptyEngine) StreamPopulation(context.Context, domain.Scope, func([]domain.DriverRef) error) error {
	return nil
}

func (emptyEngine) ComputeWindow(_ context.Context, d domain.DriverRef, _ int, _ []int) (milestones.ComputeResult, error) {
	return milestones.ComputeResult{DriverID: d.ID}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.New("development")
	coord := service.NewCoordinator(emptyEngine{}, events.NewInMemoryBus(log), 2, log)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = coord.Shutdown(ctx)
	})

	r := gin.New()
	New(coord, validator.New()).RegisterRoutes(r.Group("/milestones/jobs"))
	return r, coord
}

func TestSubmitReturnsAcceptedWithJobID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/milestones/jobs", strings.NewReader(`{"windowDays":14,"parkId":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.ProgressResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatalf("expected a job id")
	}
}

func TestSubmitRejectsUnsupportedWindow(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/milestones/jobs", strings.NewReader(`{"windowDays":10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetUnknownJobReturnsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/milestones/jobs/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestClearRemovesFinishedJob(t *testing.T) {
	r, coord := newTestRouter(t)

	progress, err := coord.Submit(domain.Scope{WindowDays: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/milestones/jobs/"+progress.JobID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/milestones/jobs/"+progress.JobID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after clear, got %d", rec.Code)
	}
}
