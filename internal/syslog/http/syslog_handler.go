// Package http provides the operator HTTP surface of the syslog collector.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/httputil"
	"github.com/allisson/trustlog/internal/syslog/http/dto"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// ListenerSyncer reconciles running listeners with the stored endpoints.
type ListenerSyncer interface {
	Sync(ctx context.Context) error
}

// SyslogHandler serves endpoints, filters and clients of a tenant.
type SyslogHandler struct {
	collector syslogUseCase.CollectorUseCase
	syncer    ListenerSyncer
	logger    *slog.Logger
}

// NewSyslogHandler creates a new syslog handler. syncer may be nil when no
// listeners run in this process.
func NewSyslogHandler(
	collector syslogUseCase.CollectorUseCase,
	syncer ListenerSyncer,
	logger *slog.Logger,
) *SyslogHandler {
	return &SyslogHandler{collector: collector, syncer: syncer, logger: logger}
}

// CreateEndpointHandler creates an active listener and starts it.
// POST /v1/tenants/:tenant_id/syslog-endpoints
func (h *SyslogHandler) CreateEndpointHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req dto.CreateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	endpoint, err := h.collector.CreateEndpoint(c.Request.Context(), req.ToInput(tenantID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	h.sync(c.Request.Context())

	c.JSON(http.StatusCreated, dto.MapEndpointToResponse(endpoint))
}

// ListEndpointsHandler pages the tenant's listeners.
// GET /v1/tenants/:tenant_id/syslog-endpoints
func (h *SyslogHandler) ListEndpointsHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	endpoints, err := h.collector.ListEndpoints(c.Request.Context(), tenantID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEndpointsToListResponse(endpoints))
}

// GetEndpointHandler returns one listener.
// GET /v1/tenants/:tenant_id/syslog-endpoints/:endpoint_id
func (h *SyslogHandler) GetEndpointHandler(c *gin.Context) {
	tenantID, endpointID, ok := h.parseIDs(c, "endpoint_id")
	if !ok {
		return
	}

	endpoint, err := h.collector.GetEndpoint(c.Request.Context(), tenantID, endpointID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEndpointToResponse(endpoint))
}

// ActivateEndpointHandler starts a stopped listener.
// POST /v1/tenants/:tenant_id/syslog-endpoints/:endpoint_id/activate
func (h *SyslogHandler) ActivateEndpointHandler(c *gin.Context) {
	h.setEndpointActive(c, true)
}

// DeactivateEndpointHandler stops a listener without deleting it.
// POST /v1/tenants/:tenant_id/syslog-endpoints/:endpoint_id/deactivate
func (h *SyslogHandler) DeactivateEndpointHandler(c *gin.Context) {
	h.setEndpointActive(c, false)
}

func (h *SyslogHandler) setEndpointActive(c *gin.Context, active bool) {
	tenantID, endpointID, ok := h.parseIDs(c, "endpoint_id")
	if !ok {
		return
	}

	endpoint, err := h.collector.SetEndpointActive(c.Request.Context(), tenantID, endpointID, active)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	h.sync(c.Request.Context())

	c.JSON(http.StatusOK, dto.MapEndpointToResponse(endpoint))
}

// DeleteEndpointHandler stops and deletes a listener.
// DELETE /v1/tenants/:tenant_id/syslog-endpoints/:endpoint_id
func (h *SyslogHandler) DeleteEndpointHandler(c *gin.Context) {
	tenantID, endpointID, ok := h.parseIDs(c, "endpoint_id")
	if !ok {
		return
	}

	if err := h.collector.DeleteEndpoint(c.Request.Context(), tenantID, endpointID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	h.sync(c.Request.Context())

	c.Status(http.StatusNoContent)
}

// CreateFilterHandler creates a filter.
// POST /v1/tenants/:tenant_id/syslog-filters
func (h *SyslogHandler) CreateFilterHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	req, ok := h.bindFilter(c)
	if !ok {
		return
	}

	filter, err := h.collector.CreateFilter(c.Request.Context(), req.ToInput(tenantID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapFilterToResponse(filter))
}

// ListFiltersHandler lists the tenant's filters in evaluation order.
// GET /v1/tenants/:tenant_id/syslog-filters
func (h *SyslogHandler) ListFiltersHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	filters, err := h.collector.ListFilters(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFiltersToListResponse(filters))
}

// GetFilterHandler returns one filter.
// GET /v1/tenants/:tenant_id/syslog-filters/:filter_id
func (h *SyslogHandler) GetFilterHandler(c *gin.Context) {
	tenantID, filterID, ok := h.parseIDs(c, "filter_id")
	if !ok {
		return
	}

	filter, err := h.collector.GetFilter(c.Request.Context(), tenantID, filterID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFilterToResponse(filter))
}

// UpdateFilterHandler replaces a filter.
// PUT /v1/tenants/:tenant_id/syslog-filters/:filter_id
func (h *SyslogHandler) UpdateFilterHandler(c *gin.Context) {
	tenantID, filterID, ok := h.parseIDs(c, "filter_id")
	if !ok {
		return
	}

	req, ok := h.bindFilter(c)
	if !ok {
		return
	}

	filter, err := h.collector.UpdateFilter(c.Request.Context(), filterID, req.ToInput(tenantID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFilterToResponse(filter))
}

// DeleteFilterHandler deletes a filter.
// DELETE /v1/tenants/:tenant_id/syslog-filters/:filter_id
func (h *SyslogHandler) DeleteFilterHandler(c *gin.Context) {
	tenantID, filterID, ok := h.parseIDs(c, "filter_id")
	if !ok {
		return
	}

	if err := h.collector.DeleteFilter(c.Request.Context(), tenantID, filterID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListClientsHandler pages the sources seen by the tenant's listeners.
// GET /v1/tenants/:tenant_id/syslog-clients
func (h *SyslogHandler) ListClientsHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	clients, err := h.collector.ListClients(c.Request.Context(), tenantID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapClientsToListResponse(clients))
}

func (h *SyslogHandler) bindFilter(c *gin.Context) (*dto.FilterRequest, bool) {
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return nil, false
	}
	return &req, true
}

// sync applies endpoint changes to the running listeners. The change is
// already stored, so a failure is only logged.
func (h *SyslogHandler) sync(ctx context.Context) {
	if h.syncer == nil {
		return
	}
	if err := h.syncer.Sync(ctx); err != nil {
		h.logger.Warn("failed to sync syslog listeners", slog.Any("error", err))
	}
}

func (h *SyslogHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return tenantID, true
}

func (h *SyslogHandler) parseIDs(c *gin.Context, param string) (tenantID, id uuid.UUID, ok bool) {
	tenantID, ok = h.tenantID(c)
	if !ok {
		return tenantID, id, false
	}
	id, err := httputil.ParseUUIDParam(c, param)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return tenantID, id, false
	}
	return tenantID, id, true
}
