package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
	"github.com/allisson/trustlog/internal/syslog/http/dto"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
	usecaseMocks "github.com/allisson/trustlog/internal/syslog/usecase/mocks"
)

var baseTime = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type countingSyncer struct {
	calls int
	err   error
}

func (s *countingSyncer) Sync(context.Context) error {
	s.calls++
	return s.err
}

func setupRouter(t *testing.T) (*gin.Engine, *usecaseMocks.MockCollectorUseCase, *countingSyncer) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	mockUseCase := &usecaseMocks.MockCollectorUseCase{}
	syncer := &countingSyncer{}
	handler := NewSyslogHandler(mockUseCase, syncer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	tenant := router.Group("/v1/tenants/:tenant_id")
	tenant.POST("/syslog-endpoints", handler.CreateEndpointHandler)
	tenant.GET("/syslog-endpoints", handler.ListEndpointsHandler)
	tenant.GET("/syslog-endpoints/:endpoint_id", handler.GetEndpointHandler)
	tenant.POST("/syslog-endpoints/:endpoint_id/activate", handler.ActivateEndpointHandler)
	tenant.POST("/syslog-endpoints/:endpoint_id/deactivate", handler.DeactivateEndpointHandler)
	tenant.DELETE("/syslog-endpoints/:endpoint_id", handler.DeleteEndpointHandler)
	tenant.POST("/syslog-filters", handler.CreateFilterHandler)
	tenant.GET("/syslog-filters", handler.ListFiltersHandler)
	tenant.GET("/syslog-filters/:filter_id", handler.GetFilterHandler)
	tenant.PUT("/syslog-filters/:filter_id", handler.UpdateFilterHandler)
	tenant.DELETE("/syslog-filters/:filter_id", handler.DeleteFilterHandler)
	tenant.GET("/syslog-clients", handler.ListClientsHandler)
	return router, mockUseCase, syncer
}

func serve(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newEndpoint(tenantID uuid.UUID) *syslogDomain.Endpoint {
	return &syslogDomain.Endpoint{
		ID:        uuid.Must(uuid.NewV7()),
		TenantID:  tenantID,
		Name:      "edge",
		Protocol:  syslogDomain.ProtocolUDP,
		Address:   "0.0.0.0:5514",
		Active:    true,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func TestSyslogHandler_CreateEndpointHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	path := "/v1/tenants/" + tenantID.String() + "/syslog-endpoints"

	t.Run("Success", func(t *testing.T) {
		router, mockUseCase, syncer := setupRouter(t)
		endpoint := newEndpoint(tenantID)
		mockUseCase.On("CreateEndpoint", mock.Anything, mock.MatchedBy(func(in *syslogUseCase.EndpointInput) bool {
			return in.TenantID == tenantID && in.Protocol == syslogDomain.ProtocolUDP && in.Address == "0.0.0.0:5514"
		})).Return(endpoint, nil).Once()

		w := serve(router, http.MethodPost, path, map[string]any{
			"name": "edge", "protocol": "udp", "address": "0.0.0.0:5514",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.EndpointResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, endpoint.ID.String(), resp.ID)
		assert.True(t, resp.Active)
		assert.Equal(t, 1, syncer.calls)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_SyncFailureIsNotFatal", func(t *testing.T) {
		router, mockUseCase, syncer := setupRouter(t)
		syncer.err = errors.New("bind: permission denied")
		mockUseCase.On("CreateEndpoint", mock.Anything, mock.Anything).Return(newEndpoint(tenantID), nil).Once()

		w := serve(router, http.MethodPost, path, map[string]any{
			"name": "edge", "protocol": "tcp", "address": "0.0.0.0:514",
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Error_TLSWithoutMaterial", func(t *testing.T) {
		router, _, syncer := setupRouter(t)
		w := serve(router, http.MethodPost, path, map[string]any{
			"name": "edge", "protocol": "tls", "address": "0.0.0.0:6514",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, syncer.calls)
	})

	t.Run("Error_UnknownProtocol", func(t *testing.T) {
		router, _, _ := setupRouter(t)
		w := serve(router, http.MethodPost, path, map[string]any{
			"name": "edge", "protocol": "relp", "address": "0.0.0.0:2514",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_AddressInUse", func(t *testing.T) {
		router, mockUseCase, syncer := setupRouter(t)
		mockUseCase.On("CreateEndpoint", mock.Anything, mock.Anything).
			Return(nil, syslogDomain.ErrAddressInUse).Once()

		w := serve(router, http.MethodPost, path, map[string]any{
			"name": "edge", "protocol": "udp", "address": "0.0.0.0:5514",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Zero(t, syncer.calls)
	})
}

func TestSyslogHandler_EndpointLifecycle(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())

	t.Run("Success_Deactivate", func(t *testing.T) {
		router, mockUseCase, syncer := setupRouter(t)
		endpoint := newEndpoint(tenantID)
		endpoint.Active = false
		mockUseCase.On("SetEndpointActive", mock.Anything, tenantID, endpoint.ID, false).Return(endpoint, nil).Once()

		w := serve(router, http.MethodPost,
			"/v1/tenants/"+tenantID.String()+"/syslog-endpoints/"+endpoint.ID.String()+"/deactivate", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.EndpointResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Active)
		assert.Equal(t, 1, syncer.calls)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_Delete", func(t *testing.T) {
		router, mockUseCase, syncer := setupRouter(t)
		endpointID := uuid.Must(uuid.NewV7())
		mockUseCase.On("DeleteEndpoint", mock.Anything, tenantID, endpointID).Return(nil).Once()

		w := serve(router, http.MethodDelete,
			"/v1/tenants/"+tenantID.String()+"/syslog-endpoints/"+endpointID.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 1, syncer.calls)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, mockUseCase, _ := setupRouter(t)
		endpointID := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetEndpoint", mock.Anything, tenantID, endpointID).
			Return(nil, syslogDomain.ErrEndpointNotFound).Once()

		w := serve(router, http.MethodGet,
			"/v1/tenants/"+tenantID.String()+"/syslog-endpoints/"+endpointID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_InvalidEndpointID", func(t *testing.T) {
		router, _, _ := setupRouter(t)
		w := serve(router, http.MethodPost,
			"/v1/tenants/"+tenantID.String()+"/syslog-endpoints/nope/activate", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyslogHandler_Filters(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	base := "/v1/tenants/" + tenantID.String() + "/syslog-filters"

	t.Run("Success_CreateDefaultsActive", func(t *testing.T) {
		router, mockUseCase, _ := setupRouter(t)
		filter := &syslogDomain.Filter{
			ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, Name: "auth failures",
			Severities: []int{3, 4}, ContentPattern: "Failed password", Action: syslogDomain.ActionAlert,
			AlertSeverity: "high", Active: true, CreatedAt: baseTime, UpdatedAt: baseTime,
		}
		mockUseCase.On("CreateFilter", mock.Anything, mock.MatchedBy(func(in *syslogUseCase.FilterInput) bool {
			return in.TenantID == tenantID && in.Active && in.Action == syslogDomain.ActionAlert
		})).Return(filter, nil).Once()

		w := serve(router, http.MethodPost, base, map[string]any{
			"name": "auth failures", "severities": []int{3, 4}, "content_pattern": "Failed password",
			"action": "alert", "alert_severity": "high",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.FilterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []int{3, 4}, resp.Severities)
		assert.Equal(t, []int{}, resp.Facilities)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_UpdateInactive", func(t *testing.T) {
		router, mockUseCase, _ := setupRouter(t)
		filterID := uuid.Must(uuid.NewV7())
		filter := &syslogDomain.Filter{ID: filterID, TenantID: tenantID, Name: "drop", Action: syslogDomain.ActionReject}
		mockUseCase.On("UpdateFilter", mock.Anything, filterID, mock.MatchedBy(func(in *syslogUseCase.FilterInput) bool {
			return !in.Active && in.SourceCIDR == "10.0.0.0/8"
		})).Return(filter, nil).Once()

		w := serve(router, http.MethodPut, base+"/"+filterID.String(), map[string]any{
			"name": "drop", "action": "reject", "source_cidr": "10.0.0.0/8", "active": false,
		})
		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_ForwardWithoutAddress", func(t *testing.T) {
		router, _, _ := setupRouter(t)
		w := serve(router, http.MethodPost, base, map[string]any{"name": "relay", "action": "forward"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidPattern", func(t *testing.T) {
		router, _, _ := setupRouter(t)
		w := serve(router, http.MethodPost, base, map[string]any{
			"name": "broken", "action": "store", "hostname_pattern": "(",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_SeverityOutOfRange", func(t *testing.T) {
		router, _, _ := setupRouter(t)
		w := serve(router, http.MethodPost, base, map[string]any{
			"name": "bad", "action": "store", "severities": []int{9},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success_List", func(t *testing.T) {
		router, mockUseCase, _ := setupRouter(t)
		mockUseCase.On("ListFilters", mock.Anything, tenantID).Return([]*syslogDomain.Filter{}, nil).Once()

		w := serve(router, http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	})
}

func TestSyslogHandler_ListClientsHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	router, mockUseCase, _ := setupRouter(t)
	client := &syslogDomain.Client{
		ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, Address: "10.0.0.7", Hostname: "fw01",
		FirstSeen: baseTime, LastSeen: baseTime, MessageCount: 12, RejectedCount: 2, Online: true,
	}
	mockUseCase.On("ListClients", mock.Anything, tenantID, 0, 5).Return([]*syslogDomain.Client{client}, nil).Once()

	w := serve(router, http.MethodGet, "/v1/tenants/"+tenantID.String()+"/syslog-clients?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ListClientsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(12), resp.Data[0].MessageCount)
	assert.True(t, resp.Data[0].Online)
	mockUseCase.AssertExpectations(t)
}
