package http

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	"github.com/allisson/trustlog/internal/auth/http/dto"
	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// TokenHandler serves the operator login and logout endpoints.
type TokenHandler struct {
	tokenUseCase authUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(tokenUseCase authUseCase.TokenUseCase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// IssueTokenHandler exchanges operator credentials for a bearer token.
// POST /v1/token - no authentication. Returns 201 Created.
func (h *TokenHandler) IssueTokenHandler(c *gin.Context) {
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	sourceIP, err := netip.ParseAddr(c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	output, err := h.tokenUseCase.Issue(c.Request.Context(), &authDomain.IssueTokenInput{
		Username: req.Username,
		Secret:   req.Secret,
		SourceIP: sourceIP,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.IssueTokenResponse{
		Token:     output.PlainToken,
		ExpiresAt: output.ExpiresAt,
	})
}

// RevokeTokenHandler revokes the bearer token used for the request.
// DELETE /v1/token - requires authentication. Returns 204 No Content.
func (h *TokenHandler) RevokeTokenHandler(c *gin.Context) {
	tokenHash, ok := getTokenHash(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.tokenUseCase.Revoke(c.Request.Context(), tokenHash); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
