package handler

import (
	"net/http"
	"time"

	"onboarding_backend/internal/eligibility/service"
	"onboarding_backend/internal/eligibility/transport"
	"onboarding_backend/platform/httpkit"
	"onboarding_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// RolePayments is required to record payments or cancel instances.
const RolePayments = "payments"

// Handler handles HTTP requests for scout eligibility and payments.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new eligibility handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers scout routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:scoutId/eligibility", h.Evaluate)
	rg.POST("/:scoutId/payments", httpkit.RequireRole(RolePayments), h.Pay)
	rg.POST("/:scoutId/instances/cancel", httpkit.RequireRole(RolePayments), h.Cancel)
}

func (h *Handler) Evaluate(c *gin.Context) {
	var req transport.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	start, errStart := time.Parse(time.DateOnly, req.PeriodStart)
	end, errEnd := time.Parse(time.DateOnly, req.PeriodEnd)
	if errStart != nil || errEnd != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, "dates must be YYYY-MM-DD")
		return
	}

	result, err := h.svc.Evaluate(c.Request.Context(), c.Param("scoutId"), start, end)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Pay(c *gin.Context) {
	var req transport.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.PayInstances(c.Request.Context(), c.Param("scoutId"), req.InstanceIDs)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Cancel(c *gin.Context) {
	var req transport.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CancelInstances(c.Request.Context(), c.Param("scoutId"), req.InstanceIDs, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
