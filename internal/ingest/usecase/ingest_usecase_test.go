package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/trustlog/internal/errors"
	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

type fakeTenants struct {
	tenants map[string]*tenantDomain.Tenant
}

func (f *fakeTenants) GetBySlug(_ context.Context, slug string) (*tenantDomain.Tenant, error) {
	t, ok := f.tenants[slug]
	if !ok {
		return nil, tenantDomain.ErrTenantNotFound
	}
	return t, nil
}

// fakeSessions stores appended sessions and answers device lookups from them.
type fakeSessions struct {
	now      func() time.Time
	records  []*recordDomain.Record
	revoked  map[string]time.Time
	appended []*recordDomain.AppendInput
}

func (f *fakeSessions) Append(_ context.Context, in *recordDomain.AppendInput) (*recordDomain.Record, error) {
	f.appended = append(f.appended, in)
	r := &recordDomain.Record{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   in.TenantID,
		Kind:       recordDomain.KindSession,
		EntryTime:  f.now(),
		Suspicious: in.Suspicious,
		Session:    in.Session,
	}
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeSessions) RecentDeviceMatch(
	_ context.Context,
	tenantID uuid.UUID,
	mac string,
	within time.Duration,
) (*recordDomain.Record, error) {
	since := f.now().Add(-within)
	if at, ok := f.revoked[mac]; ok && at.After(since) {
		since = at
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.TenantID == tenantID && r.Session.MACSurrogate == mac && !r.Suspicious && !r.EntryTime.Before(since) {
			return r, nil
		}
	}
	return nil, recordDomain.ErrRecordNotFound
}

func (f *fakeSessions) RevokeDevice(_ context.Context, _ uuid.UUID, mac string) error {
	f.revoked[mac] = f.now()
	return nil
}

type fixture struct {
	uc       *ingestUseCase
	sessions *fakeSessions
	tenant   *tenantDomain.Tenant
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tenant: &tenantDomain.Tenant{
			ID:          uuid.Must(uuid.NewV7()),
			Slug:        "acme",
			DisplayName: "Acme Cafe",
			ConsentText: "I agree",
			Branding:    tenantDomain.Branding{ThemeColor: "#112233"},
		},
		clock: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	f.sessions = &fakeSessions{now: now, revoked: map[string]time.Time{}}

	uc := NewIngestUseCase(
		&fakeTenants{tenants: map[string]*tenantDomain.Tenant{"acme": f.tenant}},
		f.sessions,
		24*time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).(*ingestUseCase)
	uc.now = now
	f.uc = uc
	return f
}

func nationalIDForm(id string) *ingestDomain.Form {
	return &ingestDomain.Form{
		IdentityKind:  recordDomain.IdentityNationalID,
		IdentityValue: id,
		DisplayName:   "Ada Lovelace",
		Consent:       true,
		ClientIP:      "10.0.0.5",
		MACSurrogate:  "AA-BB",
	}
}

func TestIngestUseCase_Landing(t *testing.T) {
	f := newFixture(t)

	landing, err := f.uc.Landing(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Cafe", landing.DisplayName)
	assert.Equal(t, "I agree", landing.ConsentText)
	assert.Equal(t, "#112233", landing.ThemeColor)
	assert.Equal(t, 24*time.Hour, landing.RememberDeviceWindow)

	f.tenant.RememberDeviceWindow = 2 * time.Hour
	landing, err = f.uc.Landing(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, landing.RememberDeviceWindow)

	_, err = f.uc.Landing(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrTenantUnknown)
}

func TestIngestUseCase_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ValidNationalID", func(t *testing.T) {
		f := newFixture(t)

		receipt, err := f.uc.Submit(ctx, "acme", nationalIDForm("10000000146"))
		require.NoError(t, err)
		assert.False(t, receipt.Suspicious)
		assert.False(t, receipt.Remembered)
		assert.Equal(t, 24*time.Hour, receipt.Remaining)
		require.Len(t, f.sessions.appended, 1)
		assert.Equal(t, "10000000146", f.sessions.appended[0].Session.IdentityValue)
	})

	t.Run("Success_BadChecksumIsSuspicious", func(t *testing.T) {
		f := newFixture(t)

		form := nationalIDForm("12345678901")
		form.DisplayName = "X"
		receipt, err := f.uc.Submit(ctx, "acme", form)
		require.NoError(t, err)
		assert.True(t, receipt.Suspicious)
		assert.True(t, f.sessions.appended[0].Suspicious)
	})

	t.Run("Error_ForeignerDisallowed", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Submit(ctx, "acme", &ingestDomain.Form{
			IdentityKind:    recordDomain.IdentityPassport,
			IdentityValue:   "P1234567",
			PassportCountry: "de",
			DisplayName:     "Hans",
			Consent:         true,
			MACSurrogate:    "CC",
		})
		assert.ErrorIs(t, err, apperrors.ErrIdentityRejected)
		assert.Empty(t, f.sessions.appended)
	})

	t.Run("Success_ForeignerAllowed", func(t *testing.T) {
		f := newFixture(t)
		f.tenant.AllowForeignIdentity = true

		_, err := f.uc.Submit(ctx, "acme", &ingestDomain.Form{
			IdentityKind:    recordDomain.IdentityPassport,
			IdentityValue:   "P1234567",
			PassportCountry: "de",
			DisplayName:     "Hans",
			Consent:         true,
			MACSurrogate:    "CC",
		})
		require.NoError(t, err)
		assert.Equal(t, "DE", f.sessions.appended[0].Session.PassportCountry)
	})

	t.Run("Error_ValidationOrder", func(t *testing.T) {
		f := newFixture(t)

		noConsent := nationalIDForm("10000000146")
		noConsent.Consent = false
		_, err := f.uc.Submit(ctx, "acme", noConsent)
		assert.ErrorIs(t, err, apperrors.ErrConsentMissing)

		short := nationalIDForm("123")
		_, err = f.uc.Submit(ctx, "acme", short)
		assert.ErrorIs(t, err, ingestDomain.ErrMalformedNationalID)

		noName := nationalIDForm("10000000146")
		noName.DisplayName = "  "
		_, err = f.uc.Submit(ctx, "acme", noName)
		assert.ErrorIs(t, err, ingestDomain.ErrNameRequired)

		passport := &ingestDomain.Form{IdentityKind: recordDomain.IdentityPassport, IdentityValue: "P1", Consent: true}
		f.tenant.AllowForeignIdentity = true
		_, err = f.uc.Submit(ctx, "acme", passport)
		assert.ErrorIs(t, err, ingestDomain.ErrPassportIncomplete)

		unknown := &ingestDomain.Form{IdentityKind: "driver-license", IdentityValue: "x", Consent: true}
		_, err = f.uc.Submit(ctx, "acme", unknown)
		assert.ErrorIs(t, err, ingestDomain.ErrUnknownIdentityKind)

		assert.Empty(t, f.sessions.appended)
	})

	t.Run("Error_UnknownTenant", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctx, "globex", nationalIDForm("10000000146"))
		assert.ErrorIs(t, err, apperrors.ErrTenantUnknown)
	})
}

func TestIngestUseCase_RememberDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_WithinWindow", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.uc.Submit(ctx, "acme", nationalIDForm("10000000146"))
		require.NoError(t, err)

		f.clock = f.clock.Add(10 * time.Hour)
		receipt, err := f.uc.Submit(ctx, "acme", &ingestDomain.Form{MACSurrogate: "AA-BB", ClientIP: "10.0.0.9"})
		require.NoError(t, err)
		assert.True(t, receipt.Remembered)
		assert.Equal(t, 14*time.Hour, receipt.Remaining)
		assert.Equal(t, first.EntryTime, receipt.LastOriginalLogin)

		require.Len(t, f.sessions.appended, 2)
		prior, next := f.sessions.appended[0].Session, f.sessions.appended[1].Session
		assert.Equal(t, prior.IdentityKind, next.IdentityKind)
		assert.Equal(t, prior.IdentityValue, next.IdentityValue)
		assert.Equal(t, prior.DisplayName, next.DisplayName)
		assert.Equal(t, "10.0.0.9", next.ClientIP)
		require.NotNil(t, next.RememberedFrom)
		assert.Equal(t, first.RecordID, *next.RememberedFrom)
	})

	t.Run("Success_ChainKeepsOriginalLogin", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.uc.Submit(ctx, "acme", nationalIDForm("10000000146"))
		require.NoError(t, err)

		f.clock = f.clock.Add(20 * time.Hour)
		_, err = f.uc.Submit(ctx, "acme", &ingestDomain.Form{MACSurrogate: "AA-BB"})
		require.NoError(t, err)

		f.clock = f.clock.Add(3 * time.Hour)
		receipt, err := f.uc.Submit(ctx, "acme", &ingestDomain.Form{MACSurrogate: "AA-BB"})
		require.NoError(t, err)
		assert.Equal(t, first.EntryTime, receipt.LastOriginalLogin)
		assert.Equal(t, time.Hour, receipt.Remaining)

		// 25 hours after the original form the chain ends
		f.clock = f.clock.Add(2 * time.Hour)
		_, err = f.uc.Submit(ctx, "acme", &ingestDomain.Form{MACSurrogate: "AA-BB"})
		assert.ErrorIs(t, err, apperrors.ErrConsentMissing)
	})

	t.Run("Error_SuspiciousPriorIsNotRemembered", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctx, "acme", nationalIDForm("12345678901"))
		require.NoError(t, err)

		f.clock = f.clock.Add(time.Hour)
		_, err = f.uc.Submit(ctx, "acme", &ingestDomain.Form{MACSurrogate: "AA-BB"})
		assert.ErrorIs(t, err, apperrors.ErrConsentMissing)
	})

	t.Run("Error_LeaveClosesWindow", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctx, "acme", nationalIDForm("10000000146"))
		require.NoError(t, err)

		f.clock = f.clock.Add(time.Hour)
		require.NoError(t, f.uc.Leave(ctx, "acme", "AA-BB"))

		f.clock = f.clock.Add(time.Minute)
		_, err = f.uc.Submit(ctx, "acme", &ingestDomain.Form{MACSurrogate: "AA-BB"})
		assert.ErrorIs(t, err, apperrors.ErrConsentMissing)
	})

	t.Run("Success_ExplicitFormWins", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Submit(ctx, "acme", nationalIDForm("10000000146"))
		require.NoError(t, err)

		f.clock = f.clock.Add(time.Hour)
		form := nationalIDForm("12345678950")
		form.DisplayName = "Grace Hopper"
		receipt, err := f.uc.Submit(ctx, "acme", form)
		require.NoError(t, err)
		assert.False(t, receipt.Remembered)
		assert.Equal(t, "12345678950", f.sessions.appended[1].Session.IdentityValue)
	})

	t.Run("Error_LeaveWithoutDevice", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.uc.Leave(ctx, "acme", ""), ingestDomain.ErrDeviceRequired)
	})
}
