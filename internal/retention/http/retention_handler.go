// Package http provides the operator HTTP surface of the retention engine.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	"github.com/allisson/trustlog/internal/retention/http/dto"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// RetentionHandler serves retention policies, archive runs and cleanup runs.
type RetentionHandler struct {
	retentionUseCase retentionUseCase.RetentionUseCase
	logger           *slog.Logger
}

// NewRetentionHandler creates a new retention handler.
func NewRetentionHandler(retentionUseCase retentionUseCase.RetentionUseCase, logger *slog.Logger) *RetentionHandler {
	return &RetentionHandler{retentionUseCase: retentionUseCase, logger: logger}
}

// ListPoliciesHandler returns the effective policy of every record kind.
// GET /v1/tenants/:tenant_id/retention-policies
func (h *RetentionHandler) ListPoliciesHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	policies, err := h.retentionUseCase.ListPolicies(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPoliciesToListResponse(policies))
}

// GetPolicyHandler returns the effective policy of one kind.
// GET /v1/tenants/:tenant_id/retention-policies/:kind
func (h *RetentionHandler) GetPolicyHandler(c *gin.Context) {
	tenantID, kind, ok := h.tenantKind(c)
	if !ok {
		return
	}

	policy, err := h.retentionUseCase.GetPolicy(c.Request.Context(), tenantID, kind)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// SetPolicyHandler replaces the policy of one kind.
// PUT /v1/tenants/:tenant_id/retention-policies/:kind
func (h *RetentionHandler) SetPolicyHandler(c *gin.Context) {
	tenantID, kind, ok := h.tenantKind(c)
	if !ok {
		return
	}

	var req dto.SetPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	policy, err := h.retentionUseCase.SetPolicy(c.Request.Context(), tenantID, req.ToInput(kind))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPolicyToResponse(policy))
}

// RunArchiveHandler archives the due records of a kind. Responds 204 when
// nothing was due.
// POST /v1/tenants/:tenant_id/archive-runs
func (h *RetentionHandler) RunArchiveHandler(c *gin.Context) {
	tenantID, kind, ok := h.runRequest(c)
	if !ok {
		return
	}

	job, err := h.retentionUseCase.RunArchive(c.Request.Context(), tenantID, kind)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if job == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusCreated, dto.MapJobToResponse(job))
}

// RunCleanupHandler deletes the records of a kind that pass every deletion check.
// POST /v1/tenants/:tenant_id/cleanup-runs
func (h *RetentionHandler) RunCleanupHandler(c *gin.Context) {
	tenantID, kind, ok := h.runRequest(c)
	if !ok {
		return
	}

	report, err := h.retentionUseCase.RunCleanup(c.Request.Context(), tenantID, kind)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCleanupToResponse(report))
}

// ListJobsHandler pages archive jobs, newest first.
// GET /v1/tenants/:tenant_id/archive-jobs
func (h *RetentionHandler) ListJobsHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	jobs, err := h.retentionUseCase.ListJobs(c.Request.Context(), tenantID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapJobsToListResponse(jobs))
}

// GetJobHandler returns one archive job.
// GET /v1/tenants/:tenant_id/archive-jobs/:job_id
func (h *RetentionHandler) GetJobHandler(c *gin.Context) {
	tenantID, jobID, ok := h.parseIDs(c, "job_id")
	if !ok {
		return
	}

	job, err := h.retentionUseCase.GetJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapJobToResponse(job))
}

// VerifyJobHandler re-hashes the stored archive blob.
// POST /v1/tenants/:tenant_id/archive-jobs/:job_id/verify
func (h *RetentionHandler) VerifyJobHandler(c *gin.Context) {
	tenantID, jobID, ok := h.parseIDs(c, "job_id")
	if !ok {
		return
	}

	job, err := h.retentionUseCase.VerifyJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapJobToResponse(job))
}

// ListEventsHandler pages the retention event log, optionally filtered by kind.
// GET /v1/tenants/:tenant_id/retention-events
func (h *RetentionHandler) ListEventsHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	kind := retentionDomain.EventKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown retention event kind"), h.logger)
		return
	}

	events, err := h.retentionUseCase.ListEvents(c.Request.Context(), tenantID, kind, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToListResponse(events))
}

func (h *RetentionHandler) runRequest(c *gin.Context) (uuid.UUID, recordDomain.Kind, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, "", false
	}

	var req dto.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return uuid.Nil, "", false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return uuid.Nil, "", false
	}
	return tenantID, recordDomain.Kind(req.Kind), true
}

func (h *RetentionHandler) tenantKind(c *gin.Context) (uuid.UUID, recordDomain.Kind, bool) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	kind := recordDomain.Kind(c.Param("kind"))
	if !kind.Valid() {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown record kind"), h.logger)
		return uuid.Nil, "", false
	}
	return tenantID, kind, true
}

func (h *RetentionHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return tenantID, true
}

func (h *RetentionHandler) parseIDs(c *gin.Context, param string) (tenantID, id uuid.UUID, ok bool) {
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
