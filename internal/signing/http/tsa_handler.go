// Package http provides the local timestamp authority endpoints and the
// operator endpoints for inspecting and verifying signatures.
package http

import (
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	"github.com/allisson/trustlog/internal/signing/http/dto"
	signingService "github.com/allisson/trustlog/internal/signing/service"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

const (
	mediaTypeJSON           = "application/json"
	mediaTypeTimestampQuery = "application/timestamp-query"

	// maxQueryBytes bounds an application/timestamp-query body.
	maxQueryBytes = 1024
)

// TSAHandler serves the local timestamp authority.
type TSAHandler struct {
	tsa     signingService.TSAClient
	version string
	logger  *slog.Logger
}

// NewTSAHandler creates a handler for tsa.
func NewTSAHandler(tsa signingService.TSAClient, version string, logger *slog.Logger) *TSAHandler {
	return &TSAHandler{tsa: tsa, version: version, logger: logger}
}

// StatusHandler reports liveness.
// GET /tsa/timestamp
func (h *TSAHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:    "active",
		Service:   h.tsa.Name(),
		Version:   h.version,
		Algorithm: signingDomain.HashAlgorithm,
		Timestamp: time.Now().UTC(),
	})
}

// TimestampHandler stamps a hash sent as JSON or as a timestamp query.
// POST /tsa/timestamp
func (h *TSAHandler) TimestampHandler(c *gin.Context) {
	var req dto.TimestampRequest

	switch c.ContentType() {
	case mediaTypeJSON:
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	case mediaTypeTimestampQuery:
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxQueryBytes))
		if err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
		req.Hash = hashFromQuery(body)
		req.Nonce = c.Query("nonce")
	default:
		c.JSON(http.StatusUnsupportedMediaType, httputil.ErrorResponse{
			ErrorKind: apperrors.KindProtocolError,
			Message:   "content type must be application/json or application/timestamp-query",
		})
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ts, err := h.tsa.Timestamp(c.Request.Context(), req.Hash, req.Nonce)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTimestampToResponse(ts))
}

// hashFromQuery accepts either the 32 raw digest bytes or its hex form.
func hashFromQuery(body []byte) string {
	if len(body) == 32 {
		return hex.EncodeToString(body)
	}
	return strings.TrimSpace(string(body))
}

// VerifyHandler checks a token against a hash.
// POST /tsa/verify
func (h *TSAHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.tsa.Verify(c.Request.Context(), []byte(req.TimestampToken), req.Hash)
	if err != nil {
		if apperrors.Is(err, signingDomain.ErrMalformedToken) {
			c.JSON(http.StatusOK, dto.VerifyTokenResponse{Status: "invalid"})
			return
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerificationToResponse(result))
}
