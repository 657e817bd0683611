package handler

import (
	"net/http"
	"time"

	"onboarding_backend/internal/jobs/service"
	"onboarding_backend/internal/jobs/transport"
	"onboarding_backend/internal/milestones/domain"
	"onboarding_backend/platform/httpkit"
	"onboarding_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for milestone batch jobs.
type Handler struct {
	coord *service.Coordinator
	val   *validator.Validator
}

// New creates a new jobs handler.
func New(coord *service.Coordinator, val *validator.Validator) *Handler {
	return &Handler{coord: coord, val: val}
}

// RegisterRoutes registers job routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
	rg.GET("", h.List)
	rg.GET("/:jobId", h.Get)
	rg.DELETE("/:jobId", h.Clear)
}

func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	scope, err := ScopeFromRequest(req)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, "dates must be YYYY-MM-DD")
		return
	}

	progress, err := h.coord.Submit(scope)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Accepted(c, MapProgress(progress))
}

func (h *Handler) List(c *gin.Context) {
	items := h.coord.List()
	out := make([]transport.ProgressResponse, 0, len(items))
	for _, p := range items {
		out = append(out, MapProgress(p))
	}
	httpkit.OK(c, transport.ProgressListResponse{Items: out, Total: len(out)})
}

func (h *Handler) Get(c *gin.Context) {
	progress, err := h.coord.GetProgress(c.Param("jobId"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, MapProgress(progress))
}

func (h *Handler) Clear(c *gin.Context) {
	if httpkit.HandleError(c, h.coord.Clear(c.Param("jobId"))) {
		return
	}

	c.Status(http.StatusNoContent)
}

// ScopeFromRequest converts a validated request into a job scope.
func ScopeFromRequest(req transport.SubmitRequest) (domain.Scope, error) {
	scope := domain.Scope{
		ParkID:        req.ParkID,
		WindowDays:    req.WindowDays,
		MilestoneType: req.MilestoneType,
	}
	if req.HireDateFrom != "" {
		from, err := time.Parse(time.DateOnly, req.HireDateFrom)
		if err != nil {
			return domain.Scope{}, err
		}
		scope.HireDateFrom = &from
	}
	if req.HireDateTo != "" {
		to, err := time.Parse(time.DateOnly, req.HireDateTo)
		if err != nil {
			return domain.Scope{}, err
		}
		scope.HireDateTo = &to
	}
	return scope, nil
}

// MapProgress converts a job snapshot into its API shape.
func MapProgress(p service.Progress) transport.ProgressResponse {
	scope := transport.ScopeResponse{
		ParkID:        p.Scope.ParkID,
		WindowDays:    p.Scope.WindowDays,
		MilestoneType: p.Scope.MilestoneType,
	}
	if p.Scope.HireDateFrom != nil {
		scope.HireDateFrom = p.Scope.HireDateFrom.Format(time.DateOnly)
	}
	if p.Scope.HireDateTo != nil {
		scope.HireDateTo = p.Scope.HireDateTo.Format(time.DateOnly)
	}
	return transport.ProgressResponse{
		JobID:      p.JobID,
		Status:     string(p.Status),
		Scope:      scope,
		Total:      p.Total,
		Processed:  p.Processed,
		Succeeded:  p.Succeeded,
		Failed:     p.Failed,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Error:      p.Error,
	}
}
