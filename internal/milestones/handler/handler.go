package handler

import (
	"net/http"
	"time"

	"onboarding_backend/internal/milestones/repository"
	"onboarding_backend/internal/milestones/service"
	"onboarding_backend/internal/milestones/transport"
	"onboarding_backend/platform/httpkit"
	"onboarding_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for milestone instances.
type Handler struct {
	engine *service.Engine
	val    *validator.Validator
}

// New creates a new milestones handler.
func New(engine *service.Engine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

// RegisterRoutes registers milestone read routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/drivers/:driverId", h.GetForDriver)
	rg.POST("/drivers/query", h.QueryDrivers)
	rg.GET("/fulfilled", h.ListFulfilled)
}

func (h *Handler) GetForDriver(c *gin.Context) {
	driverID := c.Param("driverId")
	if driverID == "" {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}

	result, err := h.engine.GetForDriver(c.Request.Context(), driverID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) QueryDrivers(c *gin.Context) {
	var req transport.DriversQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	result, err := h.engine.GetForDrivers(c.Request.Context(), req.DriverIDs, req.WindowDays)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ListFulfilled(c *gin.Context) {
	var req transport.FulfilledQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	from, errFrom := time.Parse(time.DateOnly, req.From)
	to, errTo := time.Parse(time.DateOnly, req.To)
	if errFrom != nil || errTo != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, "dates must be YYYY-MM-DD")
		return
	}

	filter := repository.PeriodFilter{
		ParkID:        req.ParkID,
		WindowDays:    req.WindowDays,
		MilestoneType: req.MilestoneType,
	}
	result, err := h.engine.ListFulfilledInPeriod(c.Request.Context(), filter, from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
