package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

func performError(t *testing.T, err error, acceptLanguage string) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptLanguage != "" {
		c.Request.Header.Set("Accept-Language", acceptLanguage)
	}

	HandleErrorGin(c, err, nil)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		kind       string
	}{
		{"consent missing", apperrors.ErrConsentMissing, http.StatusBadRequest, apperrors.KindConsentMissing},
		{"identity rejected", apperrors.Wrap(apperrors.ErrIdentityRejected, "passport"), http.StatusBadRequest, apperrors.KindIdentityRejected},
		{"tenant unknown", apperrors.ErrTenantUnknown, http.StatusNotFound, apperrors.KindTenantUnknown},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, apperrors.KindNotFound},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, apperrors.KindConflict},
		{"persistence failed", apperrors.ErrPersistenceFailed, http.StatusServiceUnavailable, apperrors.KindPersistenceFailed},
		{"storage full", apperrors.ErrStorageFull, http.StatusInsufficientStorage, apperrors.KindStorageFull},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests, apperrors.KindRateLimited},
		{"policy violation", apperrors.ErrPolicyViolation, http.StatusForbidden, apperrors.KindPolicyViolation},
		{"locked", apperrors.ErrLocked, http.StatusLocked, apperrors.KindLocked},
		{"internal", errors.New("db exploded"), http.StatusInternalServerError, apperrors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := performError(t, tt.err, "")
			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, tt.kind, body.ErrorKind)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestHandleErrorGin_Localized(t *testing.T) {
	_, tr := performError(t, apperrors.ErrConsentMissing, "")
	_, en := performError(t, apperrors.ErrConsentMissing, "en-US,en;q=0.9")

	assert.Equal(t, messages[apperrors.KindConsentMissing][language.Turkish], tr.Message)
	assert.Equal(t, messages[apperrors.KindConsentMissing][language.English], en.Message)
}

func TestHandleErrorGin_InternalDetailsHidden(t *testing.T) {
	_, body := performError(t, errors.New("pq: password authentication failed"), "en")
	assert.NotContains(t, body.Message, "password")
}

func TestHandleValidationErrorGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	HandleValidationErrorGin(c, errors.New("name: cannot be blank."), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.KindValidationFailed, body.ErrorKind)
	assert.Contains(t, body.Message, "name: cannot be blank.")
}

func TestPreferredLanguage(t *testing.T) {
	assert.Equal(t, language.Turkish, PreferredLanguage(""))
	assert.Equal(t, language.Turkish, PreferredLanguage("tr-TR"))
	assert.Equal(t, language.English, PreferredLanguage("en-GB,en;q=0.8"))
	assert.Equal(t, language.Turkish, PreferredLanguage("ja"))
}
