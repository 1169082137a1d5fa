// Package http provides the operator endpoints for reading records.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/trustlog/internal/httputil"
	"github.com/allisson/trustlog/internal/record/http/dto"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
)

// RecordHandler serves tenant-scoped record queries.
type RecordHandler struct {
	recordUseCase recordUseCase.RecordUseCase
	logger        *slog.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(recordUseCase recordUseCase.RecordUseCase, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{recordUseCase: recordUseCase, logger: logger}
}

// ListHandler pages through records in entry-time order.
// GET /v1/tenants/:tenant_id/records
func (h *RecordHandler) ListHandler(c *gin.Context) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var query dto.ListRecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	filter, err := query.ToFilter(tenantID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	page, err := h.recordUseCase.Range(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPageToResponse(page))
}

// GetHandler returns one record.
// GET /v1/tenants/:tenant_id/records/:record_id
func (h *RecordHandler) GetHandler(c *gin.Context) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	recordID, err := httputil.ParseUUIDParam(c, "record_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	record, err := h.recordUseCase.Get(c.Request.Context(), tenantID, recordID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordToResponse(record))
}
