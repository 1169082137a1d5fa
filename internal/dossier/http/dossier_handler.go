// Package http provides the operator HTTP surface of the evidence report builder.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/trustlog/internal/auth/http"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	"github.com/allisson/trustlog/internal/dossier/http/dto"
	dossierUseCase "github.com/allisson/trustlog/internal/dossier/usecase"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// SessionHeader carries the client session id recorded on downloads.
const SessionHeader = "X-Session-ID"

// DossierHandler serves dossier requests, their approval flow and artifact downloads.
type DossierHandler struct {
	dossierUseCase dossierUseCase.DossierUseCase
	logger         *slog.Logger
}

// NewDossierHandler creates a new dossier handler.
func NewDossierHandler(dossierUseCase dossierUseCase.DossierUseCase, logger *slog.Logger) *DossierHandler {
	return &DossierHandler{dossierUseCase: dossierUseCase, logger: logger}
}

// CreateHandler opens a draft dossier requested by the calling operator.
// POST /v1/tenants/:tenant_id/dossiers
func (h *DossierHandler) CreateHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	operatorID, ok := h.operatorID(c)
	if !ok {
		return
	}

	var req dto.CreateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	dossier, err := h.dossierUseCase.Create(c.Request.Context(), req.ToInput(tenantID, operatorID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDossierToResponse(dossier))
}

// ListHandler pages dossiers, newest first, optionally by status.
// GET /v1/tenants/:tenant_id/dossiers
func (h *DossierHandler) ListHandler(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	status := dossierDomain.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown dossier status"), h.logger)
		return
	}

	dossiers, err := h.dossierUseCase.List(c.Request.Context(), tenantID, status, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDossiersToListResponse(dossiers))
}

// GetHandler returns one dossier.
// GET /v1/tenants/:tenant_id/dossiers/:dossier_id
func (h *DossierHandler) GetHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	dossier, err := h.dossierUseCase.Get(c.Request.Context(), tenantID, dossierID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDossierToResponse(dossier))
}

// SubmitHandler moves a draft to pending approval.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/submit
func (h *DossierHandler) SubmitHandler(c *gin.Context) {
	h.transition(c, h.dossierUseCase.Submit)
}

// ApproveHandler approves a pending dossier. The route requires approve_dossiers.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/approve
func (h *DossierHandler) ApproveHandler(c *gin.Context) {
	h.transition(c, h.dossierUseCase.Approve)
}

// RejectHandler rejects a pending dossier. The route requires approve_dossiers.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/reject
func (h *DossierHandler) RejectHandler(c *gin.Context) {
	h.transition(c, h.dossierUseCase.Reject)
}

// GenerateHandler renders and signs an approved dossier.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/generate
func (h *DossierHandler) GenerateHandler(c *gin.Context) {
	h.transition(c, h.dossierUseCase.Generate)
}

// DeliverHandler marks a generated dossier delivered.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/deliver
func (h *DossierHandler) DeliverHandler(c *gin.Context) {
	h.transition(c, h.dossierUseCase.Deliver)
}

// ListAuditHandler returns the status history of a dossier.
// GET /v1/tenants/:tenant_id/dossiers/:dossier_id/audit
func (h *DossierHandler) ListAuditHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	entries, err := h.dossierUseCase.ListAudit(c.Request.Context(), tenantID, dossierID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditToListResponse(entries))
}

// VerifyAuditHandler checks the signatures of the status history of a dossier.
// GET /v1/tenants/:tenant_id/dossiers/:dossier_id/audit/verify
func (h *DossierHandler) VerifyAuditHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	report, err := h.dossierUseCase.VerifyAudit(c.Request.Context(), tenantID, dossierID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AuditReportResponse{
		Checked:  report.Checked,
		Valid:    report.Valid,
		Invalid:  report.Invalid,
		Unsigned: report.Unsigned,
	})
}

// ListAccessesHandler pages the access trail of a dossier.
// GET /v1/tenants/:tenant_id/dossiers/:dossier_id/accesses
func (h *DossierHandler) ListAccessesHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	accesses, err := h.dossierUseCase.ListAccesses(c.Request.Context(), tenantID, dossierID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessesToListResponse(accesses))
}

// RecordAccessHandler records a view, print or export made by a client that
// already holds the artifact.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/accesses
func (h *DossierHandler) RecordAccessHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}
	operatorID, ok := h.operatorID(c)
	if !ok {
		return
	}

	var req dto.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	access, err := h.dossierUseCase.RecordAccess(
		c.Request.Context(),
		tenantID,
		dossierID,
		req.ToInput(operatorID, c.ClientIP()),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAccessToResponse(access))
}

// DownloadHandler streams the artifact after its access row is written. The
// access query parameter defaults to download.
// GET /v1/tenants/:tenant_id/dossiers/:dossier_id/artifact
func (h *DossierHandler) DownloadHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}
	operatorID, ok := h.operatorID(c)
	if !ok {
		return
	}

	kind := dossierDomain.AccessKind(c.DefaultQuery("access", string(dossierDomain.AccessDownload)))
	if !kind.Valid() {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown access kind"), h.logger)
		return
	}

	dossier, artifact, err := h.dossierUseCase.Open(c.Request.Context(), tenantID, dossierID, &dossierDomain.AccessInput{
		OperatorID: operatorID,
		Kind:       kind,
		SourceIP:   c.ClientIP(),
		SessionID:  c.GetHeader(SessionHeader),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer func() {
		_ = artifact.Close()
	}()

	disposition := "attachment"
	if kind == dossierDomain.AccessView {
		disposition = "inline"
	}
	c.DataFromReader(http.StatusOK, dossier.ArtifactSize, dossier.Format.ContentType(), artifact, map[string]string{
		"Content-Disposition": disposition + `; filename="` + dossier.RequestNumber + "." + string(dossier.Format) + `"`,
		"X-Dossier-SHA256":    dossier.SHA256,
		"X-Dossier-Records":   strconv.Itoa(dossier.RecordCount),
	})
}

// VerifyHandler re-hashes the stored artifact. Responds 204 when intact.
// POST /v1/tenants/:tenant_id/dossiers/:dossier_id/verify
func (h *DossierHandler) VerifyHandler(c *gin.Context) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	if err := h.dossierUseCase.VerifyIntegrity(c.Request.Context(), tenantID, dossierID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

type transitionFunc func(ctx context.Context, input *dossierUseCase.TransitionInput) (*dossierDomain.Dossier, error)

func (h *DossierHandler) transition(c *gin.Context, fn transitionFunc) {
	tenantID, dossierID, ok := h.parseIDs(c)
	if !ok {
		return
	}
	operatorID, ok := h.operatorID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
		if err := req.Validate(); err != nil {
			httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
			return
		}
	}

	dossier, err := fn(c.Request.Context(), &dossierUseCase.TransitionInput{
		TenantID:   tenantID,
		DossierID:  dossierID,
		OperatorID: operatorID,
		Note:       req.Note,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDossierToResponse(dossier))
}

func (h *DossierHandler) operatorID(c *gin.Context) (uuid.UUID, bool) {
	operator, found := authHTTP.GetOperator(c.Request.Context())
	if !found {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return operator.ID, true
}

func (h *DossierHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return uuid.Nil, false
	}
	return tenantID, true
}

func (h *DossierHandler) parseIDs(c *gin.Context) (tenantID, dossierID uuid.UUID, ok bool) {
	tenantID, ok = h.tenantID(c)
	if !ok {
		return tenantID, dossierID, false
	}
	dossierID, err := httputil.ParseUUIDParam(c, "dossier_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return tenantID, dossierID, false
	}
	return tenantID, dossierID, true
}
