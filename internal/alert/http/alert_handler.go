// Package http provides the operator HTTP surface of the alert bus.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	"github.com/allisson/trustlog/internal/alert/http/dto"
	alertUseCase "github.com/allisson/trustlog/internal/alert/usecase"
	authHTTP "github.com/allisson/trustlog/internal/auth/http"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// AlertHandler serves alerts, rules and suppressions of a tenant.
type AlertHandler struct {
	alertUseCase alertUseCase.AlertUseCase
	logger       *slog.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alertUseCase alertUseCase.AlertUseCase, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{alertUseCase: alertUseCase, logger: logger}
}

// ListAlertsHandler pages alerts, newest first, optionally filtered by status.
// GET /v1/tenants/:tenant_id/alerts
func (h *AlertHandler) ListAlertsHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	status := alertDomain.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown alert status"), h.logger)
		return
	}

	alerts, err := h.alertUseCase.ListAlerts(c.Request.Context(), tenantID, status, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAlertsToListResponse(alerts))
}

// GetAlertHandler returns one alert.
// GET /v1/tenants/:tenant_id/alerts/:alert_id
func (h *AlertHandler) GetAlertHandler(c *gin.Context) {
	tenantID, alertID, ok := h.parseIDs(c, "alert_id")
	if !ok {
		return
	}

	alert, err := h.alertUseCase.GetAlert(c.Request.Context(), tenantID, alertID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAlertToResponse(alert))
}

// AcknowledgeHandler acknowledges an open alert as the calling operator.
// POST /v1/tenants/:tenant_id/alerts/:alert_id/ack
func (h *AlertHandler) AcknowledgeHandler(c *gin.Context) {
	tenantID, alertID, ok := h.parseIDs(c, "alert_id")
	if !ok {
		return
	}
	operator, found := authHTTP.GetOperator(c.Request.Context())
	if !found {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	alert, err := h.alertUseCase.Acknowledge(c.Request.Context(), tenantID, alertID, operator.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAlertToResponse(alert))
}

// ResolveHandler resolves an open or acknowledged alert.
// POST /v1/tenants/:tenant_id/alerts/:alert_id/resolve
func (h *AlertHandler) ResolveHandler(c *gin.Context) {
	tenantID, alertID, ok := h.parseIDs(c, "alert_id")
	if !ok {
		return
	}

	alert, err := h.alertUseCase.Resolve(c.Request.Context(), tenantID, alertID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAlertToResponse(alert))
}

// ListDeliveriesHandler lists the channel deliveries of an alert.
// GET /v1/tenants/:tenant_id/alerts/:alert_id/deliveries
func (h *AlertHandler) ListDeliveriesHandler(c *gin.Context) {
	tenantID, alertID, ok := h.parseIDs(c, "alert_id")
	if !ok {
		return
	}

	deliveries, err := h.alertUseCase.ListDeliveries(c.Request.Context(), tenantID, alertID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeliveriesToListResponse(deliveries))
}

// ListRulesHandler pages the tenant's rules.
// GET /v1/tenants/:tenant_id/alert-rules
func (h *AlertHandler) ListRulesHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	rules, err := h.alertUseCase.ListRules(c.Request.Context(), tenantID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRulesToListResponse(rules))
}

// CreateRuleHandler creates an active rule.
// POST /v1/tenants/:tenant_id/alert-rules
func (h *AlertHandler) CreateRuleHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	rule, err := h.alertUseCase.CreateRule(c.Request.Context(), req.ToInput(tenantID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRuleToResponse(rule))
}

// GetRuleHandler returns one rule.
// GET /v1/tenants/:tenant_id/alert-rules/:rule_id
func (h *AlertHandler) GetRuleHandler(c *gin.Context) {
	tenantID, ruleID, ok := h.parseIDs(c, "rule_id")
	if !ok {
		return
	}

	rule, err := h.alertUseCase.GetRule(c.Request.Context(), tenantID, ruleID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRuleToResponse(rule))
}

// ActivateRuleHandler re-enables a rule.
// POST /v1/tenants/:tenant_id/alert-rules/:rule_id/activate
func (h *AlertHandler) ActivateRuleHandler(c *gin.Context) {
	h.setRuleActive(c, true)
}

// DeactivateRuleHandler disables a rule without deleting it.
// POST /v1/tenants/:tenant_id/alert-rules/:rule_id/deactivate
func (h *AlertHandler) DeactivateRuleHandler(c *gin.Context) {
	h.setRuleActive(c, false)
}

func (h *AlertHandler) setRuleActive(c *gin.Context, active bool) {
	tenantID, ruleID, ok := h.parseIDs(c, "rule_id")
	if !ok {
		return
	}

	rule, err := h.alertUseCase.SetRuleActive(c.Request.Context(), tenantID, ruleID, active)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRuleToResponse(rule))
}

// DeleteRuleHandler deletes a rule. Alerts it raised are kept.
// DELETE /v1/tenants/:tenant_id/alert-rules/:rule_id
func (h *AlertHandler) DeleteRuleHandler(c *gin.Context) {
	tenantID, ruleID, ok := h.parseIDs(c, "rule_id")
	if !ok {
		return
	}

	if err := h.alertUseCase.DeleteRule(c.Request.Context(), tenantID, ruleID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSuppressionsHandler pages the tenant's suppressions.
// GET /v1/tenants/:tenant_id/alert-suppressions
func (h *AlertHandler) ListSuppressionsHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	suppressions, err := h.alertUseCase.ListSuppressions(c.Request.Context(), tenantID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSuppressionsToListResponse(suppressions))
}

// CreateSuppressionHandler creates a suppression window.
// POST /v1/tenants/:tenant_id/alert-suppressions
func (h *AlertHandler) CreateSuppressionHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req dto.CreateSuppressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	var createdBy *uuid.UUID
	if operator, found := authHTTP.GetOperator(c.Request.Context()); found {
		id := operator.ID
		createdBy = &id
	}

	suppression, err := h.alertUseCase.CreateSuppression(c.Request.Context(), req.ToInput(tenantID, createdBy))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSuppressionToResponse(suppression))
}

// DeleteSuppressionHandler ends a suppression by deleting it.
// DELETE /v1/tenants/:tenant_id/alert-suppressions/:suppression_id
func (h *AlertHandler) DeleteSuppressionHandler(c *gin.Context) {
	tenantID, suppressionID, ok := h.parseIDs(c, "suppression_id")
	if !ok {
		return
	}

	if err := h.alertUseCase.DeleteSuppression(c.Request.Context(), tenantID, suppressionID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AlertHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return tenantID, true
}

func (h *AlertHandler) parseIDs(c *gin.Context, param string) (tenantID, id uuid.UUID, ok bool) {
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
