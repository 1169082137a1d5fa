package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/trustlog/internal/errors"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	"github.com/allisson/trustlog/internal/signing/http/dto"
	usecaseMocks "github.com/allisson/trustlog/internal/signing/usecase/mocks"
)

func setupSignatureRouter(t *testing.T) (*gin.Engine, *usecaseMocks.MockSigningUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	mockUseCase := &usecaseMocks.MockSigningUseCase{}
	handler := NewSignatureHandler(mockUseCase, discardLogger())

	router := gin.New()
	router.GET("/v1/tenants/:tenant_id/signatures", handler.ListHandler)
	router.GET("/v1/tenants/:tenant_id/signatures/:signature_id", handler.GetHandler)
	router.POST("/v1/tenants/:tenant_id/signatures/:signature_id/verify", handler.VerifyHandler)
	return router, mockUseCase
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func signedSignature(tenantID uuid.UUID) *signingDomain.Signature {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	sig := signingDomain.NewPending(tenantID, signingDomain.SubjectSession, uuid.Must(uuid.NewV7()), now)
	_ = sig.Transition(signingDomain.StatusSigned, now)
	sig.Token = []byte("tok")
	sig.Serial = "serial-1"
	return sig
}

func TestSignatureHandler_GetHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		router, mockUseCase := setupSignatureRouter(t)
		sig := signedSignature(tenantID)
		mockUseCase.On("Get", mock.Anything, tenantID, sig.ID).Return(sig, nil).Once()

		w := serve(router, http.MethodGet, "/v1/tenants/"+tenantID.String()+"/signatures/"+sig.ID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.SignatureResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "signed", resp.Status)
		assert.Equal(t, "serial-1", resp.Serial)
		assert.Nil(t, resp.NextAttemptAt)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, mockUseCase := setupSignatureRouter(t)
		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("Get", mock.Anything, tenantID, id).Return(nil, signingDomain.ErrSignatureNotFound).Once()

		w := serve(router, http.MethodGet, "/v1/tenants/"+tenantID.String()+"/signatures/"+id.String())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		router, _ := setupSignatureRouter(t)
		w := serve(router, http.MethodGet, "/v1/tenants/"+tenantID.String()+"/signatures/nope")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSignatureHandler_VerifyHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		router, mockUseCase := setupSignatureRouter(t)
		sig := signedSignature(tenantID)
		_ = sig.Transition(signingDomain.StatusVerified, time.Now().UTC())
		mockUseCase.On("Verify", mock.Anything, tenantID, sig.ID).Return(sig, nil).Once()

		w := serve(router, http.MethodPost, "/v1/tenants/"+tenantID.String()+"/signatures/"+sig.ID.String()+"/verify")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"verified"`)
	})

	t.Run("Error_VerifyFailed", func(t *testing.T) {
		router, mockUseCase := setupSignatureRouter(t)
		sig := signedSignature(tenantID)
		mockUseCase.On("Verify", mock.Anything, tenantID, sig.ID).
			Return(sig, apperrors.Wrap(apperrors.ErrVerifyFailed, "subject hash does not match the token")).Once()

		w := serve(router, http.MethodPost, "/v1/tenants/"+tenantID.String()+"/signatures/"+sig.ID.String()+"/verify")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "VERIFY_FAILED")
	})
}

func TestSignatureHandler_ListHandler(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())

	t.Run("Success_FilterByStatus", func(t *testing.T) {
		router, mockUseCase := setupSignatureRouter(t)
		sig := signedSignature(tenantID)
		mockUseCase.On("List", mock.Anything, tenantID, signingDomain.StatusSigned, 0, 20).
			Return([]*signingDomain.Signature{sig}, nil).Once()

		w := serve(router, http.MethodGet, "/v1/tenants/"+tenantID.String()+"/signatures?status=signed&limit=20")
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ListSignaturesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, sig.ID.String(), resp.Data[0].ID)
	})

	t.Run("Error_UnknownStatus", func(t *testing.T) {
		router, _ := setupSignatureRouter(t)
		w := serve(router, http.MethodGet, "/v1/tenants/"+tenantID.String()+"/signatures?status=lost")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
