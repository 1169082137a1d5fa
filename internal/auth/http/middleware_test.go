package http

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	usecaseMocks "github.com/allisson/trustlog/internal/auth/usecase/mocks"
)

func newAuthRouter(
	tokenUseCase *usecaseMocks.MockTokenUseCase,
	tokenService *mockTokenService,
	perm authDomain.Permission,
) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := discardLogger()

	chain := []gin.HandlerFunc{
		AuthenticationMiddleware(tokenUseCase, tokenService, logger),
		AuthorizationMiddleware(perm, logger),
		func(c *gin.Context) {
			operator, _ := GetOperator(c.Request.Context())
			c.String(http.StatusOK, operator.Username)
		},
	}
	router.GET("/v1/tenants/:tenant_id/records", chain...)
	router.GET("/v1/alerts", chain...)
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.10:4321"
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticationMiddleware(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	operator := &authDomain.Operator{
		ID:       uuid.Must(uuid.NewV7()),
		Username: "alice",
		IsActive: true,
		Memberships: []authDomain.Membership{{
			TenantID:    tenantID,
			Role:        authDomain.RoleViewer,
			Permissions: []authDomain.Permission{authDomain.PermViewRecords},
		}},
	}
	sourceIP := netip.MustParseAddr("192.0.2.10")

	t.Run("Success_ValidToken", func(t *testing.T) {
		tokenUseCase := &usecaseMocks.MockTokenUseCase{}
		tokenService := &mockTokenService{}
		tokenService.On("HashToken", "tlo_good").Return("hash").Once()
		tokenUseCase.On("Authenticate", mock.Anything, "hash", sourceIP).Return(operator, nil).Once()

		router := newAuthRouter(tokenUseCase, tokenService, authDomain.PermViewRecords)
		w := doRequest(router, "/v1/tenants/"+tenantID.String()+"/records", "Bearer tlo_good")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", w.Body.String())
		tokenUseCase.AssertExpectations(t)
	})

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		tokenUseCase := &usecaseMocks.MockTokenUseCase{}
		tokenService := &mockTokenService{}
		tokenService.On("HashToken", "tlo_good").Return("hash").Once()
		tokenUseCase.On("Authenticate", mock.Anything, "hash", sourceIP).Return(operator, nil).Once()

		router := newAuthRouter(tokenUseCase, tokenService, authDomain.PermViewRecords)
		w := doRequest(router, "/v1/tenants/"+tenantID.String()+"/records", "bEaReR tlo_good")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_MissingHeader", func(t *testing.T) {
		tokenUseCase := &usecaseMocks.MockTokenUseCase{}
		router := newAuthRouter(tokenUseCase, &mockTokenService{}, authDomain.PermViewRecords)

		w := doRequest(router, "/v1/tenants/"+tenantID.String()+"/records", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		tokenUseCase.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_BasicScheme", func(t *testing.T) {
		router := newAuthRouter(&usecaseMocks.MockTokenUseCase{}, &mockTokenService{}, authDomain.PermViewRecords)

		w := doRequest(router, "/v1/tenants/"+tenantID.String()+"/records", "Basic YWxpY2U6eA==")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_EmptyToken", func(t *testing.T) {
		router := newAuthRouter(&usecaseMocks.MockTokenUseCase{}, &mockTokenService{}, authDomain.PermViewRecords)

		w := doRequest(router, "/v1/tenants/"+tenantID.String()+"/records", "Bearer    ")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_SourceIPDenied", func(t *testing.T) {
		tokenUseCase := &usecaseMocks.MockTokenUseCase{}
		tokenService := &mockTokenService{}
		tokenService.On("HashToken", "tlo_good").Return("hash").Once()
		tokenUseCase.On("Authenticate", mock.Anything, "hash", sourceIP).
			Return(nil, authDomain.ErrSourceIPDenied).Once()

		router := newAuthRouter(tokenUseCase, tokenService, authDomain.PermViewRecords)
		w := doRequest(router, "/v1/tenants/"+tenantID.String()+"/records", "Bearer tlo_good")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAuthorizationMiddleware(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	otherTenant := uuid.Must(uuid.NewV7())
	operator := &authDomain.Operator{
		ID:       uuid.Must(uuid.NewV7()),
		Username: "bob",
		IsActive: true,
		Memberships: []authDomain.Membership{{
			TenantID:    tenantID,
			Role:        authDomain.RoleStaff,
			Permissions: authDomain.DefaultPermissions(authDomain.RoleStaff),
		}},
	}
	sourceIP := netip.MustParseAddr("192.0.2.10")

	setup := func(perm authDomain.Permission) *gin.Engine {
		tokenUseCase := &usecaseMocks.MockTokenUseCase{}
		tokenService := &mockTokenService{}
		tokenService.On("HashToken", "tlo_t").Return("hash")
		tokenUseCase.On("Authenticate", mock.Anything, "hash", sourceIP).Return(operator, nil)
		return newAuthRouter(tokenUseCase, tokenService, perm)
	}

	t.Run("Success_MemberWithPermission", func(t *testing.T) {
		w := doRequest(setup(authDomain.PermViewRecords), "/v1/tenants/"+tenantID.String()+"/records", "Bearer tlo_t")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_AnyMembershipWithoutTenantParam", func(t *testing.T) {
		w := doRequest(setup(authDomain.PermManageAlerts), "/v1/alerts", "Bearer tlo_t")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_OtherTenant", func(t *testing.T) {
		w := doRequest(setup(authDomain.PermViewRecords), "/v1/tenants/"+otherTenant.String()+"/records", "Bearer tlo_t")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_MissingPermission", func(t *testing.T) {
		w := doRequest(setup(authDomain.PermApproveDossiers), "/v1/tenants/"+tenantID.String()+"/records", "Bearer tlo_t")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_MalformedTenantID", func(t *testing.T) {
		w := doRequest(setup(authDomain.PermViewRecords), "/v1/tenants/not-a-uuid/records", "Bearer tlo_t")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_NoOperatorInContext", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.GET("/x", AuthorizationMiddleware(authDomain.PermViewRecords, discardLogger()),
			func(c *gin.Context) { c.Status(http.StatusOK) })

		w := doRequest(router, "/x", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
