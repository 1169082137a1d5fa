// Package http provides HTTP handlers for tenant policy management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/httputil"
	"github.com/allisson/trustlog/internal/tenant/http/dto"
	tenantUseCase "github.com/allisson/trustlog/internal/tenant/usecase"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// TenantHandler serves the tenant policy endpoints.
type TenantHandler struct {
	tenantUseCase tenantUseCase.TenantUseCase
	logger        *slog.Logger
}

// NewTenantHandler creates a new tenant handler.
func NewTenantHandler(tenantUseCase tenantUseCase.TenantUseCase, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{tenantUseCase: tenantUseCase, logger: logger}
}

// GetHandler returns the tenant and its policy documents.
// GET /v1/tenants/:tenant_id
func (h *TenantHandler) GetHandler(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid tenant ID format: must be a valid UUID"),
			h.logger)
		return
	}

	tenant, err := h.tenantUseCase.Get(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTenantToResponse(tenant))
}

// UpdatePolicyHandler replaces tenant policy documents.
// PUT /v1/tenants/:tenant_id/policy
func (h *TenantHandler) UpdatePolicyHandler(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid tenant ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var req dto.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	tenant, err := h.tenantUseCase.UpdatePolicy(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTenantToResponse(tenant))
}
