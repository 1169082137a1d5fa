// Package integration drives complete admission, signing, alerting,
// retention and dossier flows through the HTTP API of an in-memory server.
package integration

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertDTO "github.com/allisson/trustlog/internal/alert/http/dto"
	"github.com/allisson/trustlog/internal/app"
	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authDTO "github.com/allisson/trustlog/internal/auth/http/dto"
	"github.com/allisson/trustlog/internal/config"
	dossierDTO "github.com/allisson/trustlog/internal/dossier/http/dto"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
	ingestDTO "github.com/allisson/trustlog/internal/ingest/http/dto"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordDTO "github.com/allisson/trustlog/internal/record/http/dto"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionDTO "github.com/allisson/trustlog/internal/retention/http/dto"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
	signingDTO "github.com/allisson/trustlog/internal/signing/http/dto"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

const (
	tenantSlug      = "acme"
	validNationalID = "10000000146"
)

// scenarioContext holds one in-memory deployment with a single tenant.
type scenarioContext struct {
	container *app.Container
	server    *httptest.Server
	tenantID  uuid.UUID
	token     string
}

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LogLevel:             "error",
		DBDriver:             "memory",
		ServerHost:           "localhost",
		EncryptionKey:        base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)),
		EncryptNationalIDs:   true,
		EncryptIPAddresses:   true,
		EncryptMACSurrogates: true,
		AuthTokenExpiration:  time.Hour,
		TSAIdentity:          "integration-tsa",
		TSATimeout:           time.Second,
		SignerBatchSize:      50,
		SignerInterval:       time.Second,
		SignerMaxAttempts:    3,
		DefaultRetention:     2 * config.Year,
		DefaultArchiveAfter:  30 * config.Day,
		RememberDeviceWindow: 24 * time.Hour,
		DeviceCookieName:     "trustlog_device",
		SyslogWorkers:        1,
		SyslogRingSize:       16,
		SyslogMaxMessageSize: 1024,
		ArchiveStorageURL:    "file://" + dir + "/local",
		ArchiveWORMURL:       "file://" + dir + "/worm",
		ArchiveTapeSpoolDir:  dir + "/tape",
		ArchiveTimeout:       time.Minute,
		DossierStorageURL:    "file://" + dir + "/dossiers",
		AlertDeliveryTimeout: time.Second,
	}
}

// setupScenario starts a server over the memory driver, creates the acme
// tenant and logs in an admin operator.
func setupScenario(t *testing.T, allowForeign bool) *scenarioContext {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	container := app.NewContainer(memoryConfig(t))
	t.Cleanup(func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	})

	tenants, err := container.TenantUseCase()
	require.NoError(t, err)
	tenant, err := tenants.Create(ctx, &tenantDomain.CreateTenantInput{
		Slug:                 tenantSlug,
		DisplayName:          "Acme Hotel",
		ConsentText:          "I accept the terms of use.",
		AllowForeignIdentity: allowForeign,
		Retention:            &tenantDomain.RetentionPeriod{Years: 2},
		RememberDeviceWindow: 24 * time.Hour,
	})
	require.NoError(t, err)

	httpServer, err := container.HTTPServer(ctx)
	require.NoError(t, err)
	server := httptest.NewServer(httpServer.GetHandler())
	t.Cleanup(server.Close)

	sc := &scenarioContext{container: container, server: server, tenantID: tenant.ID}
	sc.token = sc.login(t, "admin")
	return sc
}

// login creates an admin operator of the tenant and issues a token for it.
func (sc *scenarioContext) login(t *testing.T, username string) string {
	t.Helper()

	operators, err := sc.container.OperatorUseCase()
	require.NoError(t, err)
	out, err := operators.Create(context.Background(), &authDomain.CreateOperatorInput{
		Username: username,
		IsActive: true,
		Memberships: []authDomain.Membership{{
			TenantID:    sc.tenantID,
			Role:        authDomain.RoleAdmin,
			Permissions: authDomain.DefaultPermissions(authDomain.RoleAdmin),
		}},
	})
	require.NoError(t, err)

	resp, body := sc.request(t, http.MethodPost, "/v1/token", "", authDTO.IssueTokenRequest{
		Username: username,
		Secret:   out.PlainSecret,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var token authDTO.IssueTokenResponse
	require.NoError(t, json.Unmarshal(body, &token))
	require.NotEmpty(t, token.Token)
	return token.Token
}

func (sc *scenarioContext) request(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, sc.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, respBody
}

func (sc *scenarioContext) tenantPath(format string, args ...any) string {
	return "/v1/tenants/" + sc.tenantID.String() + fmt.Sprintf(format, args...)
}

func (sc *scenarioContext) submit(t *testing.T, req ingestDTO.SubmitRequest) (*http.Response, []byte) {
	t.Helper()
	return sc.request(t, http.MethodPost, "/entry/"+tenantSlug, "", req)
}

func (sc *scenarioContext) admit(t *testing.T, req ingestDTO.SubmitRequest) ingestDTO.ReceiptResponse {
	t.Helper()

	resp, body := sc.submit(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var receipt ingestDTO.ReceiptResponse
	require.NoError(t, json.Unmarshal(body, &receipt))
	require.NotEmpty(t, receipt.RecordID)
	return receipt
}

func (sc *scenarioContext) record(t *testing.T, id string) recordDTO.RecordResponse {
	t.Helper()

	resp, body := sc.request(t, http.MethodGet, sc.tenantPath("/records/%s", id), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var record recordDTO.RecordResponse
	require.NoError(t, json.Unmarshal(body, &record))
	return record
}

func (sc *scenarioContext) records(t *testing.T) []recordDTO.RecordResponse {
	t.Helper()

	resp, body := sc.request(t, http.MethodGet, sc.tenantPath("/records?kind=session"), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var page recordDTO.ListRecordsResponse
	require.NoError(t, json.Unmarshal(body, &page))
	return page.Data
}

func (sc *scenarioContext) signatures(t *testing.T, status string) []signingDTO.SignatureResponse {
	t.Helper()

	resp, body := sc.request(t, http.MethodGet, sc.tenantPath("/signatures?status=%s", status), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var list signingDTO.ListSignaturesResponse
	require.NoError(t, json.Unmarshal(body, &list))
	return list.Data
}

func (sc *scenarioContext) signerTick(t *testing.T) {
	t.Helper()

	signer, err := sc.container.SigningUseCase()
	require.NoError(t, err)
	_, err = signer.ProcessTenant(context.Background(), sc.tenantID)
	require.NoError(t, err)
}

func (sc *scenarioContext) dossierTransition(t *testing.T, token, id, action string) dossierDTO.DossierResponse {
	t.Helper()

	resp, body := sc.request(t, http.MethodPost, sc.tenantPath("/dossiers/%s/%s", id, action), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", action, string(body))

	var dossier dossierDTO.DossierResponse
	require.NoError(t, json.Unmarshal(body, &dossier))
	return dossier
}

func TestValidNationalIDAdmission(t *testing.T) {
	sc := setupScenario(t, false)

	receipt := sc.admit(t, ingestDTO.SubmitRequest{
		IdentityKind:  string(recordDomain.IdentityNationalID),
		IdentityValue: validNationalID,
		DisplayName:   "Ada Lovelace",
		Consent:       true,
		MACSurrogate:  "device-1",
	})
	assert.False(t, receipt.Suspicious)
	assert.False(t, receipt.Remembered)

	records := sc.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, receipt.RecordID, records[0].ID)
	assert.False(t, records[0].Suspicious)
	assert.NotEmpty(t, records[0].ContentHash)

	pending := sc.signatures(t, "pending")
	require.Len(t, pending, 1)
	assert.Equal(t, receipt.RecordID, pending[0].SubjectID)

	sc.signerTick(t)

	assert.Empty(t, sc.signatures(t, "pending"))
	signed := sc.signatures(t, "signed")
	require.Len(t, signed, 1)
	assert.Equal(t, receipt.RecordID, signed[0].SubjectID)
	assert.NotEmpty(t, signed[0].TokenHash)

	resp, body := sc.request(t, http.MethodPost,
		sc.tenantPath("/signatures/%s/verify", signed[0].ID), sc.token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestBadChecksumNationalIDRaisesOneAlert(t *testing.T) {
	sc := setupScenario(t, false)

	resp, body := sc.request(t, http.MethodPost, sc.tenantPath("/alert-rules"), sc.token, alertDTO.CreateRuleRequest{
		Name:       "suspicious sessions",
		Trigger:    "immediate",
		EventKinds: []string{"record.committed"},
		Predicate:  "event.suspicious",
		Channels:   []alertDTO.ChannelRequest{{Kind: "log"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// A clean admission must not match the rule.
	sc.admit(t, ingestDTO.SubmitRequest{
		IdentityKind:  string(recordDomain.IdentityNationalID),
		IdentityValue: validNationalID,
		DisplayName:   "Ada Lovelace",
		Consent:       true,
		MACSurrogate:  "device-1",
	})

	receipt := sc.admit(t, ingestDTO.SubmitRequest{
		IdentityKind:  string(recordDomain.IdentityNationalID),
		IdentityValue: "12345678901",
		DisplayName:   "X",
		Consent:       true,
		MACSurrogate:  "device-2",
	})
	assert.True(t, receipt.Suspicious)
	assert.True(t, sc.record(t, receipt.RecordID).Suspicious)

	resp, body = sc.request(t, http.MethodGet, sc.tenantPath("/alerts"), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var alerts alertDTO.ListAlertsResponse
	require.NoError(t, json.Unmarshal(body, &alerts))
	require.Len(t, alerts.Data, 1)
	assert.Equal(t, receipt.RecordID, alerts.Data[0].RecordID)
	assert.Equal(t, "record.committed", alerts.Data[0].EventKind)
}

func TestForeignIdentityRejected(t *testing.T) {
	sc := setupScenario(t, false)

	resp, body := sc.submit(t, ingestDTO.SubmitRequest{
		IdentityKind:    string(recordDomain.IdentityPassport),
		IdentityValue:   "X1234567",
		PassportCountry: "DE",
		DisplayName:     "Grace Hopper",
		Consent:         true,
		MACSurrogate:    "device-3",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	var errBody httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errBody))
	assert.Equal(t, apperrors.KindIdentityRejected, errBody.ErrorKind)

	assert.Empty(t, sc.records(t))
	assert.Empty(t, sc.signatures(t, "pending"))
}

func TestRememberDeviceWithinWindow(t *testing.T) {
	sc := setupScenario(t, false)

	first := sc.admit(t, ingestDTO.SubmitRequest{
		IdentityKind:  string(recordDomain.IdentityNationalID),
		IdentityValue: validNationalID,
		DisplayName:   "Ada Lovelace",
		Consent:       true,
		MACSurrogate:  "AA-BB",
	})

	second := sc.admit(t, ingestDTO.SubmitRequest{MACSurrogate: "AA-BB"})
	assert.True(t, second.Remembered)
	assert.NotEqual(t, first.RecordID, second.RecordID)
	assert.WithinDuration(t, first.EntryTime, second.LastOriginalLogin, time.Second)

	remaining := time.Duration(second.RemainingSeconds) * time.Second
	assert.InDelta(t, (24 * time.Hour).Seconds(), remaining.Seconds(), time.Minute.Seconds())

	prior := sc.record(t, first.RecordID)
	current := sc.record(t, second.RecordID)
	require.NotNil(t, prior.Session)
	require.NotNil(t, current.Session)
	assert.Equal(t, prior.Session.IdentityKind, current.Session.IdentityKind)
	assert.Equal(t, prior.Session.IdentityValue, current.Session.IdentityValue)
	assert.Equal(t, prior.Session.DisplayName, current.Session.DisplayName)
	require.NotNil(t, current.Session.RememberedFrom)
	assert.Equal(t, first.RecordID, current.Session.RememberedFrom.String())

	// Another device has no chain to continue and must fill in the form.
	resp, body := sc.submit(t, ingestDTO.SubmitRequest{MACSurrogate: "CC-DD"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	assert.Len(t, sc.records(t), 2)
}

func TestTSARoundTrip(t *testing.T) {
	sc := setupScenario(t, false)

	sum := sha256.Sum256([]byte("evidence"))
	hash := hex.EncodeToString(sum[:])

	resp, body := sc.request(t, http.MethodPost, "/tsa/timestamp", "", signingDTO.TimestampRequest{
		Hash:  hash,
		Nonce: "abc",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var stamped signingDTO.TimestampResponse
	require.NoError(t, json.Unmarshal(body, &stamped))
	require.NotEmpty(t, stamped.TimestampToken)
	assert.Equal(t, hash, stamped.Hash)

	verify := func(hash string) signingDTO.VerifyTokenResponse {
		resp, body := sc.request(t, http.MethodPost, "/tsa/verify", "", signingDTO.VerifyTokenRequest{
			TimestampToken: stamped.TimestampToken,
			Hash:           hash,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var result signingDTO.VerifyTokenResponse
		require.NoError(t, json.Unmarshal(body, &result))
		return result
	}

	ok := verify(hash)
	assert.True(t, ok.Valid)
	assert.True(t, ok.HashMatch)
	assert.True(t, ok.TimeValid)

	flipped := []byte(hash)
	if flipped[0] == '0' {
		flipped[0] = '1'
	} else {
		flipped[0] = '0'
	}
	tampered := verify(string(flipped))
	assert.False(t, tampered.Valid)
	assert.False(t, tampered.HashMatch)
}

func TestRetentionBlocksCleanup(t *testing.T) {
	sc := setupScenario(t, false)
	ctx := context.Background()

	receipt := sc.admit(t, ingestDTO.SubmitRequest{
		IdentityKind:  string(recordDomain.IdentityNationalID),
		IdentityValue: validNationalID,
		DisplayName:   "Ada Lovelace",
		Consent:       true,
		MACSurrogate:  "device-1",
	})
	sc.signerTick(t)

	// Archive everything immediately while the two year retention still applies.
	retention, err := sc.container.RetentionUseCase()
	require.NoError(t, err)
	_, err = retention.SetPolicy(ctx, sc.tenantID, &retentionUseCase.PolicyInput{
		Kind:         recordDomain.KindSession,
		ArchiveAfter: time.Microsecond,
		Compress:     true,
		Encrypt:      true,
		Backend:      retentionDomain.BackendLocal,
		Cadence:      retentionDomain.CadenceDaily,
		AutoCleanup:  true,
	})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	resp, body := sc.request(t, http.MethodPost, sc.tenantPath("/archive-runs"), sc.token,
		retentionDTO.RunRequest{Kind: "session"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var job retentionDTO.JobResponse
	require.NoError(t, json.Unmarshal(body, &job))
	assert.Equal(t, string(retentionDomain.JobCompleted), job.Status)
	assert.Equal(t, 1, job.RecordCount)

	resp, body = sc.request(t, http.MethodPost, sc.tenantPath("/cleanup-runs"), sc.token,
		retentionDTO.RunRequest{Kind: "session"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var report retentionDTO.CleanupResponse
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Purged)
	assert.Equal(t, 1, report.Reasons[string(retentionDomain.ReasonRetentionNotElapsed)])

	survivor := sc.record(t, receipt.RecordID)
	assert.NotNil(t, survivor.ArchivedAt)

	resp, body = sc.request(t, http.MethodGet,
		sc.tenantPath("/retention-events?kind=%s", retentionDomain.EventRetentionSkip), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var events retentionDTO.ListEventsResponse
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events.Data, 1)
	assert.Equal(t, receipt.RecordID, events.Data[0].RecordID)
	assert.Equal(t, string(retentionDomain.ReasonRetentionNotElapsed), events.Data[0].Reason)
}

func TestDossierIntegrity(t *testing.T) {
	sc := setupScenario(t, false)
	approver := sc.login(t, "approver")

	t0 := time.Now().UTC().Add(-time.Hour)
	for _, mac := range []string{"device-1", "device-2"} {
		sc.admit(t, ingestDTO.SubmitRequest{
			IdentityKind:  string(recordDomain.IdentityNationalID),
			IdentityValue: validNationalID,
			DisplayName:   "Ada Lovelace",
			Consent:       true,
			MACSurrogate:  mac,
		})
	}
	sc.signerTick(t)
	t1 := time.Now().UTC().Add(time.Hour)

	resp, body := sc.request(t, http.MethodPost, sc.tenantPath("/dossiers"), sc.token, dossierDTO.CreateDossierRequest{
		RequestNumber: "2026/1234",
		Type:          "court_order",
		From:          t0,
		To:            t1,
		Kinds:         []string{"session"},
		Identity:      validNationalID,
		Format:        "json",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created dossierDTO.DossierResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.IdentityFiltered)

	sc.dossierTransition(t, sc.token, created.ID, "submit")

	// The requester cannot approve their own dossier.
	resp, body = sc.request(t, http.MethodPost, sc.tenantPath("/dossiers/%s/approve", created.ID), sc.token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))

	approved := sc.dossierTransition(t, approver, created.ID, "approve")
	assert.NotEmpty(t, approved.ApprovedBy)

	generated := sc.dossierTransition(t, sc.token, created.ID, "generate")
	assert.Equal(t, "generated", generated.Status)
	assert.Equal(t, 2, generated.RecordCount)
	require.NotEmpty(t, generated.SHA256)

	delivered := sc.dossierTransition(t, sc.token, created.ID, "deliver")
	assert.Equal(t, "delivered", delivered.Status)

	again := sc.dossierTransition(t, sc.token, created.ID, "generate")
	assert.Equal(t, "delivered", again.Status)
	assert.Equal(t, generated.SHA256, again.SHA256)

	resp, artifact := sc.request(t, http.MethodGet, sc.tenantPath("/dossiers/%s/artifact", created.ID), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := sha256.Sum256(artifact)
	assert.Equal(t, generated.SHA256, hex.EncodeToString(sum[:]))
	assert.Equal(t, generated.SHA256, resp.Header.Get("X-Dossier-SHA256"))

	resp, body = sc.request(t, http.MethodGet, sc.tenantPath("/dossiers/%s/accesses", created.ID), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var accesses dossierDTO.ListAccessesResponse
	require.NoError(t, json.Unmarshal(body, &accesses))
	require.Len(t, accesses.Data, 1)
	assert.Equal(t, "download", accesses.Data[0].Kind)

	resp, body = sc.request(t, http.MethodPost, sc.tenantPath("/dossiers/%s/verify", created.ID), sc.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, body = sc.request(t, http.MethodGet, sc.tenantPath("/dossiers/%s/audit/verify", created.ID), sc.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var audit dossierDTO.AuditReportResponse
	require.NoError(t, json.Unmarshal(body, &audit))
	assert.Positive(t, audit.Checked)
	assert.Zero(t, audit.Invalid)
}
