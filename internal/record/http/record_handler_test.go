package http

import (
	"encoding/json"
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

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	"github.com/allisson/trustlog/internal/record/http/dto"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
	usecaseMocks "github.com/allisson/trustlog/internal/record/usecase/mocks"
)

func setupRecordRouter(t *testing.T) (*gin.Engine, *usecaseMocks.MockRecordUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	mockUseCase := &usecaseMocks.MockRecordUseCase{}
	handler := NewRecordHandler(mockUseCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.GET("/v1/tenants/:tenant_id/records", handler.ListHandler)
	router.GET("/v1/tenants/:tenant_id/records/:record_id", handler.GetHandler)
	return router, mockUseCase
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRecordHandler_ListHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	entry := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	record := &recordDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		TenantID:  tenantID,
		Kind:      recordDomain.KindSession,
		EntryTime: entry,
		Session:   &recordDomain.SessionRecord{DisplayName: "Ada Lovelace"},
	}

	t.Run("Success_WithFiltersAndCursor", func(t *testing.T) {
		router, mockUseCase := setupRecordRouter(t)
		next := &recordDomain.Cursor{EntryTime: entry, ID: record.ID}

		mockUseCase.On("Range", mock.Anything, mock.MatchedBy(func(f recordUseCase.RangeFilter) bool {
			return f.TenantID == tenantID &&
				f.Identity == "10000000146" &&
				len(f.Kinds) == 1 && f.Kinds[0] == recordDomain.KindSession &&
				f.Suspicious != nil && !*f.Suspicious &&
				f.Limit == 10 &&
				f.From.Equal(entry)
		})).Return(&recordDomain.Page{Records: []*recordDomain.Record{record}, Next: next}, nil).Once()

		w := get(router, "/v1/tenants/"+tenantID.String()+
			"/records?kind=session&identity=10000000146&suspicious=false&limit=10&from=2026-04-01T09:00:00Z")

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.ListRecordsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Ada Lovelace", resp.Data[0].Session.DisplayName)

		decoded, err := dto.DecodeCursor(resp.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, *next, *decoded)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidKind", func(t *testing.T) {
		router, mockUseCase := setupRecordRouter(t)
		w := get(router, "/v1/tenants/"+tenantID.String()+"/records?kind=email")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "Range", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidRange", func(t *testing.T) {
		router, _ := setupRecordRouter(t)
		w := get(router, "/v1/tenants/"+tenantID.String()+"/records?from=2026-04-02T00:00:00Z&to=2026-04-01T00:00:00Z")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidCursor", func(t *testing.T) {
		router, _ := setupRecordRouter(t)
		w := get(router, "/v1/tenants/"+tenantID.String()+"/records?cursor=!!!")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidTenantID", func(t *testing.T) {
		router, _ := setupRecordRouter(t)
		w := get(router, "/v1/tenants/acme/records")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecordHandler_GetHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	recordID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		router, mockUseCase := setupRecordRouter(t)
		mockUseCase.On("Get", mock.Anything, tenantID, recordID).Return(&recordDomain.Record{
			ID:       recordID,
			TenantID: tenantID,
			Kind:     recordDomain.KindFlow,
			Flow:     &recordDomain.FlowRecord{SrcIP: "10.0.0.1"},
		}, nil).Once()

		w := get(router, "/v1/tenants/"+tenantID.String()+"/records/"+recordID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.RecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "flow", resp.Kind)
		assert.Equal(t, "10.0.0.1", resp.Flow.SrcIP)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, mockUseCase := setupRecordRouter(t)
		mockUseCase.On("Get", mock.Anything, tenantID, recordID).Return(nil, recordDomain.ErrRecordNotFound).Once()

		w := get(router, "/v1/tenants/"+tenantID.String()+"/records/"+recordID.String())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
