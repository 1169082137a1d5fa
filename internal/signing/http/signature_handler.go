package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	"github.com/allisson/trustlog/internal/signing/http/dto"
	signingUseCase "github.com/allisson/trustlog/internal/signing/usecase"
)

// SignatureHandler serves the operator signature endpoints.
type SignatureHandler struct {
	signingUseCase signingUseCase.SigningUseCase
	logger         *slog.Logger
}

// NewSignatureHandler creates a new signature handler.
func NewSignatureHandler(signingUseCase signingUseCase.SigningUseCase, logger *slog.Logger) *SignatureHandler {
	return &SignatureHandler{signingUseCase: signingUseCase, logger: logger}
}

// ListHandler pages signatures, optionally filtered by status.
// GET /v1/tenants/:tenant_id/signatures
func (h *SignatureHandler) ListHandler(c *gin.Context) {
	tenantID, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	status := signingDomain.Status(c.Query("status"))
	switch status {
	case "", signingDomain.StatusPending, signingDomain.StatusSigned,
		signingDomain.StatusFailed, signingDomain.StatusVerified:
	default:
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown signature status"), h.logger)
		return
	}

	sigs, err := h.signingUseCase.List(c.Request.Context(), tenantID, status, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignaturesToListResponse(sigs))
}

// GetHandler returns one signature.
// GET /v1/tenants/:tenant_id/signatures/:signature_id
func (h *SignatureHandler) GetHandler(c *gin.Context) {
	tenantID, signatureID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	sig, err := h.signingUseCase.Get(c.Request.Context(), tenantID, signatureID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignatureToResponse(sig))
}

// VerifyHandler re-verifies a signature against its subject.
// POST /v1/tenants/:tenant_id/signatures/:signature_id/verify
func (h *SignatureHandler) VerifyHandler(c *gin.Context) {
	tenantID, signatureID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	sig, err := h.signingUseCase.Verify(c.Request.Context(), tenantID, signatureID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignatureToResponse(sig))
}

func (h *SignatureHandler) parseIDs(c *gin.Context) (tenantID, signatureID uuid.UUID, ok bool) {
	tid, err := httputil.ParseUUIDParam(c, "tenant_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return tenantID, signatureID, false
	}
	sid, err := httputil.ParseUUIDParam(c, "signature_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return tenantID, signatureID, false
	}
	return tid, sid, true
}
