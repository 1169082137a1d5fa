package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/allisson/trustlog/internal/errors"
	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

type ingestUseCase struct {
	tenants       TenantResolver
	sessions      SessionStore
	defaultWindow time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func (i *ingestUseCase) window(tenant *tenantDomain.Tenant) time.Duration {
	if tenant.RememberDeviceWindow > 0 {
		return tenant.RememberDeviceWindow
	}
	return i.defaultWindow
}

// Landing returns the consent text and policy of the tenant.
func (i *ingestUseCase) Landing(ctx context.Context, slug string) (*ingestDomain.Landing, error) {
	tenant, err := i.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &ingestDomain.Landing{
		TenantID:             tenant.ID,
		Slug:                 tenant.Slug,
		DisplayName:          tenant.DisplayName,
		ConsentText:          tenant.ConsentText,
		ThemeColor:           tenant.Branding.ThemeColor,
		LogoURL:              tenant.Branding.LogoURL,
		AllowForeignIdentity: tenant.AllowForeignIdentity,
		RememberDeviceWindow: i.window(tenant),
	}, nil
}

// Submit admits a session.
func (i *ingestUseCase) Submit(
	ctx context.Context,
	slug string,
	form *ingestDomain.Form,
) (*ingestDomain.Receipt, error) {
	tenant, err := i.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	window := i.window(tenant)

	if form.IsBare() {
		receipt, err := i.remember(ctx, tenant, form, window)
		if err == nil || !apperrors.Is(err, recordDomain.ErrRecordNotFound) {
			return receipt, err
		}
		// No usable device session: the full form is required.
	}

	session, suspicious, err := i.validate(tenant, form)
	if err != nil {
		return nil, err
	}

	record, err := i.sessions.Append(ctx, &recordDomain.AppendInput{
		TenantID:       tenant.ID,
		Suspicious:     suspicious,
		IdempotencyKey: form.IdempotencyKey,
		Session:        session,
	})
	if err != nil {
		return nil, err
	}

	if suspicious {
		i.logger.Warn("session admitted with invalid national id checksum",
			slog.String("tenant_id", tenant.ID.String()),
			slog.String("record_id", record.ID.String()),
		)
	}

	return &ingestDomain.Receipt{
		RecordID:          record.ID,
		EntryTime:         record.EntryTime,
		LastOriginalLogin: record.EntryTime,
		Remaining:         window,
		Suspicious:        record.Suspicious,
	}, nil
}

// remember admits a bare submit from a device seen inside the window. It
// returns ErrRecordNotFound when the form is required instead.
func (i *ingestUseCase) remember(
	ctx context.Context,
	tenant *tenantDomain.Tenant,
	form *ingestDomain.Form,
	window time.Duration,
) (*ingestDomain.Receipt, error) {
	if form.MACSurrogate == "" {
		return nil, recordDomain.ErrRecordNotFound
	}

	prior, err := i.sessions.RecentDeviceMatch(ctx, tenant.ID, form.MACSurrogate, window)
	if err != nil {
		return nil, err
	}
	if prior.Session == nil {
		return nil, recordDomain.ErrRecordNotFound
	}

	original := prior.EntryTime
	if prior.Session.OriginalEntryTime != nil {
		original = *prior.Session.OriginalEntryTime
	}
	elapsed := i.now().Sub(original)
	if elapsed >= window {
		return nil, recordDomain.ErrRecordNotFound
	}

	originID := prior.ID
	if prior.Session.RememberedFrom != nil {
		originID = *prior.Session.RememberedFrom
	}

	session := &recordDomain.SessionRecord{
		IdentityKind:      prior.Session.IdentityKind,
		IdentityValue:     prior.Session.IdentityValue,
		PassportCountry:   prior.Session.PassportCountry,
		DisplayName:       prior.Session.DisplayName,
		Phone:             prior.Session.Phone,
		ClientIP:          form.ClientIP,
		MACSurrogate:      form.MACSurrogate,
		NATIP:             form.NATIP,
		NATPort:           form.NATPort,
		Location:          form.Location,
		DeviceName:        form.DeviceName,
		RememberedFrom:    &originID,
		OriginalEntryTime: &original,
	}

	record, err := i.sessions.Append(ctx, &recordDomain.AppendInput{
		TenantID:       tenant.ID,
		IdempotencyKey: form.IdempotencyKey,
		Session:        session,
	})
	if err != nil {
		return nil, err
	}

	return &ingestDomain.Receipt{
		RecordID:          record.ID,
		EntryTime:         record.EntryTime,
		Remembered:        true,
		LastOriginalLogin: original,
		Remaining:         window - elapsed,
		Suspicious:        record.Suspicious,
	}, nil
}

// validate checks the form in the order consent, identity kind, tenant
// admission, fields. It reports suspicious for a national id with a bad checksum.
func (i *ingestUseCase) validate(
	tenant *tenantDomain.Tenant,
	form *ingestDomain.Form,
) (*recordDomain.SessionRecord, bool, error) {
	if !form.Consent {
		return nil, false, ingestDomain.ErrConsentRequired
	}

	value := strings.TrimSpace(form.IdentityValue)
	name := norm.NFC.String(strings.TrimSpace(form.DisplayName))
	country := strings.ToUpper(strings.TrimSpace(form.PassportCountry))
	suspicious := false

	switch form.IdentityKind {
	case recordDomain.IdentityNationalID:
		if !ingestDomain.WellFormedNationalID(value) {
			return nil, false, ingestDomain.ErrMalformedNationalID
		}
		suspicious = !ingestDomain.ValidNationalID(value)
	case recordDomain.IdentityPassport:
		if !tenant.AllowForeignIdentity {
			return nil, false, ingestDomain.ErrForeignIdentityRejected
		}
		if value == "" || country == "" {
			return nil, false, ingestDomain.ErrPassportIncomplete
		}
	default:
		return nil, false, ingestDomain.ErrUnknownIdentityKind
	}

	if name == "" {
		return nil, false, ingestDomain.ErrNameRequired
	}
	if form.MACSurrogate == "" {
		return nil, false, ingestDomain.ErrDeviceRequired
	}

	session := &recordDomain.SessionRecord{
		IdentityKind:  form.IdentityKind,
		IdentityValue: value,
		DisplayName:   name,
		Phone:         strings.TrimSpace(form.Phone),
		ClientIP:      form.ClientIP,
		MACSurrogate:  form.MACSurrogate,
		NATIP:         form.NATIP,
		NATPort:       form.NATPort,
		Location:      form.Location,
		DeviceName:    form.DeviceName,
	}
	if form.IdentityKind == recordDomain.IdentityPassport {
		session.PassportCountry = country
	}
	return session, suspicious, nil
}

// Leave closes the remember-device window of the device.
func (i *ingestUseCase) Leave(ctx context.Context, slug, macSurrogate string) error {
	tenant, err := i.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if macSurrogate == "" {
		return ingestDomain.ErrDeviceRequired
	}
	return i.sessions.RevokeDevice(ctx, tenant.ID, macSurrogate)
}

// NewIngestUseCase creates the captive portal use case. defaultWindow applies
// to tenants without their own remember-device window.
func NewIngestUseCase(
	tenants TenantResolver,
	sessions SessionStore,
	defaultWindow time.Duration,
	logger *slog.Logger,
) IngestUseCase {
	return &ingestUseCase{
		tenants:       tenants,
		sessions:      sessions,
		defaultWindow: defaultWindow,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}
