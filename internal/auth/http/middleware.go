package http

import (
	"log/slog"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authService "github.com/allisson/trustlog/internal/auth/service"
	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
)

const bearerPrefix = "bearer "

// AuthenticationMiddleware resolves the "Authorization: Bearer <token>" header
// to an operator and stores it in the request context.
//
// The client address is passed to the token use case so that per-operator
// CIDR allow-lists and access windows are enforced on every request, not only
// at login.
func AuthenticationMiddleware(
	tokenUseCase authUseCase.TokenUseCase,
	tokenService authService.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.AbortWithError(c, apperrors.ErrUnauthorized, logger)
			return
		}

		plainToken := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.AbortWithError(c, apperrors.ErrUnauthorized, logger)
			return
		}

		sourceIP, err := netip.ParseAddr(c.ClientIP())
		if err != nil {
			logger.Debug("authentication failed: unparsable client address",
				slog.String("client_ip", c.ClientIP()))
			httputil.AbortWithError(c, apperrors.ErrUnauthorized, logger)
			return
		}

		tokenHash := tokenService.HashToken(plainToken)
		operator, err := tokenUseCase.Authenticate(c.Request.Context(), tokenHash, sourceIP)
		if err != nil {
			logger.Debug("authentication failed", slog.Any("error", err))
			httputil.AbortWithError(c, err, logger)
			return
		}

		ctx := WithOperator(c.Request.Context(), operator)
		ctx = withTokenHash(ctx, tokenHash)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("operator_id", operator.ID.String()),
			slog.String("username", operator.Username))

		c.Next()
	}
}

// AuthorizationMiddleware requires the authenticated operator to hold perm.
//
// On routes carrying a :tenant_id parameter the permission must come from the
// operator's membership in that tenant. On routes without one, any membership
// granting perm is enough. Must run after AuthenticationMiddleware.
func AuthorizationMiddleware(perm authDomain.Permission, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, ok := GetOperator(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no authenticated operator in context")
			httputil.AbortWithError(c, apperrors.ErrUnauthorized, logger)
			return
		}

		if !allowed(c, operator, perm) {
			logger.Debug("authorization failed: insufficient permissions",
				slog.String("operator_id", operator.ID.String()),
				slog.String("path", c.FullPath()),
				slog.String("permission", string(perm)))
			httputil.AbortWithError(c, authDomain.ErrNotMember, logger)
			return
		}

		c.Next()
	}
}

func allowed(c *gin.Context, operator *authDomain.Operator, perm authDomain.Permission) bool {
	rawTenantID := c.Param("tenant_id")
	if rawTenantID == "" {
		for _, m := range operator.Memberships {
			if operator.HasPermission(m.TenantID, perm) {
				return true
			}
		}
		return false
	}

	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil {
		return false
	}
	return operator.HasPermission(tenantID, perm)
}
