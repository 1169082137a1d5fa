// Package http provides the captive portal endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/trustlog/internal/httputil"
	"github.com/allisson/trustlog/internal/ingest/http/dto"
	ingestService "github.com/allisson/trustlog/internal/ingest/service"
	ingestUseCase "github.com/allisson/trustlog/internal/ingest/usecase"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

const (
	// DeviceCookie is the default name of the cookie holding the signed device id.
	DeviceCookie = "trustlog_device"

	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

// PortalHandler serves the captive portal.
type PortalHandler struct {
	ingestUseCase ingestUseCase.IngestUseCase
	devices       *ingestService.DeviceTokens
	cookieName    string
	logger        *slog.Logger
}

// NewPortalHandler creates a new portal handler.
func NewPortalHandler(
	ingestUseCase ingestUseCase.IngestUseCase,
	devices *ingestService.DeviceTokens,
	logger *slog.Logger,
) *PortalHandler {
	return &PortalHandler{ingestUseCase: ingestUseCase, devices: devices, cookieName: DeviceCookie, logger: logger}
}

// WithCookieName renames the device cookie.
func (h *PortalHandler) WithCookieName(name string) *PortalHandler {
	if name != "" {
		h.cookieName = name
	}
	return h
}

// deviceFromCookie returns the device id of a valid cookie.
func (h *PortalHandler) deviceFromCookie(c *gin.Context) (string, bool) {
	token, err := c.Cookie(h.cookieName)
	if err != nil {
		return "", false
	}
	return h.devices.Parse(token)
}

// device derives the device surrogate: signed cookie, then the explicit
// field, then the User-Agent.
func (h *PortalHandler) device(c *gin.Context, explicit string) string {
	if id, ok := h.deviceFromCookie(c); ok {
		return id
	}
	if explicit != "" {
		return explicit
	}
	return c.Request.UserAgent()
}

// LandingHandler returns the consent text and issues a device cookie when
// the client has none.
// GET /entry/:tenant_slug
func (h *PortalHandler) LandingHandler(c *gin.Context) {
	landing, err := h.ingestUseCase.Landing(c.Request.Context(), c.Param("tenant_slug"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if _, ok := h.deviceFromCookie(c); !ok {
		_, token := h.devices.Issue()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookieName, token, deviceCookieMaxAge, "/", "", c.Request.TLS != nil, true)
	}

	c.JSON(http.StatusOK, dto.MapLandingToResponse(landing))
}

// SubmitHandler admits a session.
// POST /entry/:tenant_slug
func (h *PortalHandler) SubmitHandler(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	form := req.ToForm(c.ClientIP(), h.device(c, req.MACSurrogate))
	receipt, err := h.ingestUseCase.Submit(c.Request.Context(), c.Param("tenant_slug"), form)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapReceiptToResponse(receipt))
}

// LeaveHandler closes the remember-device window of the calling device.
// POST /leave/:tenant_slug
func (h *PortalHandler) LeaveHandler(c *gin.Context) {
	explicit := c.PostForm("mac_surrogate")
	err := h.ingestUseCase.Leave(c.Request.Context(), c.Param("tenant_slug"), h.device(c, explicit))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
