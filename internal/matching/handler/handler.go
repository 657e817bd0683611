package handler

import (
	"net/http"
	"time"

	"onboarding_backend/internal/matching/domain"
	"onboarding_backend/internal/matching/service"
	"onboarding_backend/internal/matching/transport"
	"onboarding_backend/platform/httpkit"
	"onboarding_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for matching.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new matching handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers matching routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records/:recordId/candidates", h.Candidates)
	rg.POST("/records/:recordId/assign", h.Assign)
	rg.POST("/records/:recordId/discard", h.Discard)
	rg.POST("/reconcile", h.Reconcile)
	rg.GET("/double-matches", h.DoubleMatches)
}

func (h *Handler) Candidates(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}

	result, err := h.svc.FindCandidates(c.Request.Context(), recordID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Assign(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AssignManual(c.Request.Context(), recordID, req.DriverID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Discard(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Discard(c.Request.Context(), recordID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Reconcile(c *gin.Context) {
	var req transport.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	from, to, ok := parseRange(c, req.From, req.To)
	if !ok {
		return
	}

	result, err := h.svc.Reconcile(c.Request.Context(), domain.Source(req.Source), from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) DoubleMatches(c *gin.Context) {
	var req transport.DoubleMatchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	from, to, ok := parseRange(c, req.From, req.To)
	if !ok {
		return
	}

	result, err := h.svc.FindDoubleMatches(c.Request.Context(), domain.Source(req.Source), from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func parseRange(c *gin.Context, fromRaw, toRaw string) (time.Time, time.Time, bool) {
	from, errFrom := time.Parse(time.DateOnly, fromRaw)
	to, errTo := time.Parse(time.DateOnly, toRaw)
	if errFrom != nil || errTo != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, "dates must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
