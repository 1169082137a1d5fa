// Package http provides the flow submission endpoint of the mirror traffic
// recorder.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/trustlog/internal/flow/http/dto"
	flowUseCase "github.com/allisson/trustlog/internal/flow/usecase"
	"github.com/allisson/trustlog/internal/httputil"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// FlowHandler accepts flow batches from exporters.
type FlowHandler struct {
	flowUseCase flowUseCase.FlowUseCase
	logger      *slog.Logger
}

// NewFlowHandler creates a new flow handler.
func NewFlowHandler(flowUseCase flowUseCase.FlowUseCase, logger *slog.Logger) *FlowHandler {
	return &FlowHandler{flowUseCase: flowUseCase, logger: logger}
}

// IngestHandler stores a batch of up to 1000 flow summaries.
// POST /v1/tenants/:tenant_id/flows
func (h *FlowHandler) IngestHandler(c *gin.Context) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.IngestFlowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.flowUseCase.Ingest(c.Request.Context(), tenantID, req.ToInputs())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapBatchToResponse(result))
}
