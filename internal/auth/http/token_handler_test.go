package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	"github.com/allisson/trustlog/internal/auth/http/dto"
	usecaseMocks "github.com/allisson/trustlog/internal/auth/usecase/mocks"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
)

func setupTokenTestHandler(t *testing.T) (*TokenHandler, *usecaseMocks.MockTokenUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	mockUseCase := &usecaseMocks.MockTokenUseCase{}
	return NewTokenHandler(mockUseCase, discardLogger()), mockUseCase
}

func TestTokenHandler_IssueTokenHandler(t *testing.T) {
	t.Run("Success_ValidCredentials", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)
		expiresAt := time.Now().UTC().Add(time.Hour)

		expectedInput := &authDomain.IssueTokenInput{
			Username: "alice",
			Secret:   "s3cret",
			SourceIP: netip.MustParseAddr("192.0.2.10"),
		}
		mockUseCase.On("Issue", mock.Anything, expectedInput).
			Return(&authDomain.IssueTokenOutput{PlainToken: "tlo_abc", ExpiresAt: expiresAt}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/token",
			dto.IssueTokenRequest{Username: "alice", Secret: "s3cret"})
		handler.IssueTokenHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.IssueTokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "tlo_abc", response.Token)
		assert.Equal(t, expiresAt.Unix(), response.ExpiresAt.Unix())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTokenTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/token", nil)
		c.Request.Body = io.NopCloser(strings.NewReader("{not json"))
		handler.IssueTokenHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_MissingUsername", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/token", dto.IssueTokenRequest{Secret: "x"})
		handler.IssueTokenHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidCredentials", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)
		mockUseCase.On("Issue", mock.Anything, mock.Anything).
			Return(nil, authDomain.ErrInvalidCredentials).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/token",
			dto.IssueTokenRequest{Username: "alice", Secret: "wrong"})
		handler.IssueTokenHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var response httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, apperrors.KindUnauthorized, response.ErrorKind)
	})

	t.Run("Error_Locked", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)
		mockUseCase.On("Issue", mock.Anything, mock.Anything).
			Return(nil, authDomain.ErrOperatorLocked).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/token",
			dto.IssueTokenRequest{Username: "alice", Secret: "wrong"})
		handler.IssueTokenHandler(c)

		assert.Equal(t, http.StatusLocked, w.Code)
	})
}

func TestTokenHandler_RevokeTokenHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTokenTestHandler(t)
		mockUseCase.On("Revoke", mock.Anything, "hash-1").Return(nil).Once()

		c, w := createTestContext(http.MethodDelete, "/v1/token", nil)
		c.Request = c.Request.WithContext(withTokenHash(c.Request.Context(), "hash-1"))
		handler.RevokeTokenHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NoToken", func(t *testing.T) {
		handler, _ := setupTokenTestHandler(t)

		c, w := createTestContext(http.MethodDelete, "/v1/token", nil)
		handler.RevokeTokenHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
