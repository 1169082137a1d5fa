// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// ErrorResponse is the error body of every endpoint. ErrorKind is machine readable,
// Message is localized for humans.
type ErrorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// StatusForKind maps an error kind to its HTTP status code.
func StatusForKind(kind string) int {
	switch kind {
	case apperrors.KindValidationFailed,
		apperrors.KindConsentMissing,
		apperrors.KindIdentityRejected,
		apperrors.KindProtocolError:
		return http.StatusBadRequest
	case apperrors.KindTenantUnknown, apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden, apperrors.KindPolicyViolation:
		return http.StatusForbidden
	case apperrors.KindLocked:
		return http.StatusLocked
	case apperrors.KindRateLimited:
		return http.StatusTooManyRequests
	case apperrors.KindStorageFull:
		return http.StatusInsufficientStorage
	case apperrors.KindPersistenceFailed, apperrors.KindOverflow:
		return http.StatusServiceUnavailable
	case apperrors.KindTimeout:
		return http.StatusGatewayTimeout
	case apperrors.KindUnreachable, apperrors.KindSignFailed:
		return http.StatusBadGateway
	case apperrors.KindVerifyFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a localized
// {error_kind, message} body.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	kind := apperrors.KindOf(err)
	statusCode := StatusForKind(kind)
	lang := PreferredLanguage(c.GetHeader("Accept-Language"))

	message := Localize(kind, lang)
	// Validation details are safe to expose and help the caller fix the request.
	if kind == apperrors.KindValidationFailed {
		message = message + ": " + err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_kind", kind),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, ErrorResponse{ErrorKind: kind, Message: message})
}

// HandleBadRequestGin writes a 400 response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	lang := PreferredLanguage(c.GetHeader("Accept-Language"))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		ErrorKind: apperrors.KindValidationFailed,
		Message:   Localize(apperrors.KindValidationFailed, lang) + ": " + err.Error(),
	})
}

// HandleValidationErrorGin writes a 400 VALIDATION_FAILED response.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	HandleBadRequestGin(c, err, logger)
}

// AbortWithError writes the error response and stops the handler chain.
func AbortWithError(c *gin.Context, err error, logger *slog.Logger) {
	HandleErrorGin(c, err, logger)
	c.Abort()
}
