package handler

import (
	"net/http"
	"path"

	"onboarding_backend/internal/reconciliation/service"
	"onboarding_backend/internal/reconciliation/transport"
	"onboarding_backend/platform/httpkit"
	"onboarding_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for reconciliation summaries.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new reconciliation handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers reconciliation routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.Summary)
	rg.POST("/summary/export", h.Export)
	rg.GET("/exports/*fileKey", h.DownloadExport)
	rg.DELETE("/exports/*fileKey", h.DeleteExport)
}

func (h *Handler) Summary(c *gin.Context) {
	var req transport.SummaryQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Summary(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Export(c *gin.Context) {
	var req transport.SummaryQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, httpkit.MsgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Export(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) DownloadExport(c *gin.Context) {
	rc, err := h.svc.OpenExport(c.Request.Context(), c.Param("fileKey"))
	if httpkit.HandleError(c, err) {
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/json", rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + path.Base(c.Param("fileKey")) + `"`,
	})
}

func (h *Handler) DeleteExport(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.DeleteExport(c.Request.Context(), c.Param("fileKey"))) {
		return
	}

	c.Status(http.StatusNoContent)
}
