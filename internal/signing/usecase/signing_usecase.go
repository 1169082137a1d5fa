package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	signingService "github.com/allisson/trustlog/internal/signing/service"
)

// verifyPageSize is the page used when walking a tenant's signatures.
const verifyPageSize = 500

// Options carries the process-wide signer defaults. Tenant signing policies
// override BatchSize and Interval.
type Options struct {
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	Timeout     time.Duration
	// Concurrency bounds how many tenants are processed at once per tick.
	Concurrency int
}

type signingUseCase struct {
	repo     SignatureRepository
	tenants  TenantLookup
	resolver *signingService.Resolver
	alerts   AlertPublisher
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	hashersMu sync.RWMutex
	hashers   map[signingDomain.SubjectKind]SubjectHasher

	// workers holds one mutex per tenant so at most one batch runs per tenant.
	workers sync.Map
	// lastRun holds the start time of the previous batch per tenant.
	lastRun sync.Map
}

func (s *signingUseCase) hasher(kind signingDomain.SubjectKind) (SubjectHasher, error) {
	s.hashersMu.RLock()
	defer s.hashersMu.RUnlock()
	h, ok := s.hashers[kind]
	if !ok {
		return nil, signingDomain.ErrUnknownSubject
	}
	return h, nil
}

// RegisterHasher binds the hasher used for a subject kind.
func (s *signingUseCase) RegisterHasher(kind signingDomain.SubjectKind, hasher SubjectHasher) {
	s.hashersMu.Lock()
	defer s.hashersMu.Unlock()
	s.hashers[kind] = hasher
}

// Enqueue writes a pending signature for the subject.
func (s *signingUseCase) Enqueue(
	ctx context.Context,
	tenantID uuid.UUID,
	kind signingDomain.SubjectKind,
	subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	if !kind.Valid() {
		return nil, signingDomain.ErrUnknownSubject
	}
	sig := signingDomain.NewPending(tenantID, kind, subjectID, s.now())
	if err := s.repo.Create(ctx, sig); err != nil {
		return nil, apperrors.Wrap(err, "failed to enqueue signature")
	}
	return sig, nil
}

func (s *signingUseCase) workerLock(tenantID uuid.UUID) *sync.Mutex {
	m, _ := s.workers.LoadOrStore(tenantID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// ProcessTenant stamps one batch of due signatures of the tenant.
func (s *signingUseCase) ProcessTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	lock := s.workerLock(tenantID)
	if !lock.TryLock() {
		return 0, nil
	}
	defer lock.Unlock()

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	batchSize := s.opts.BatchSize
	if tenant.Signing.BatchSize > 0 {
		batchSize = tenant.Signing.BatchSize
	}
	client := s.resolver.ForURL(tenant.Signing.TSAURL)

	s.lastRun.Store(tenantID, s.now())

	due, err := s.repo.ListDue(ctx, tenantID, s.now(), batchSize)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to list due signatures")
	}

	signed := 0
	for _, sig := range due {
		if err := ctx.Err(); err != nil {
			return signed, err
		}
		ok, err := s.signOne(ctx, client, sig)
		if err != nil {
			return signed, err
		}
		if ok {
			signed++
		}
	}
	return signed, nil
}

// signOne returns an error only when ctx is done or storage fails. TSA
// failures are recorded on the signature.
func (s *signingUseCase) signOne(
	ctx context.Context,
	client signingService.TSAClient,
	sig *signingDomain.Signature,
) (bool, error) {
	hasher, err := s.hasher(sig.SubjectKind)
	if err != nil {
		return false, s.fail(ctx, sig, err.Error())
	}
	hash, err := hasher.ContentHash(ctx, sig.TenantID, sig.SubjectID)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return false, s.fail(ctx, sig, "subject not found")
		}
		return false, s.retryLater(ctx, sig, err)
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	ts, err := client.Timestamp(tctx, hash, sig.ID.String())
	cancel()
	if err != nil {
		// A cancelled worker leaves the signature pending and untouched.
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, s.retryLater(ctx, sig, err)
	}

	now := s.now()
	if err := sig.Transition(signingDomain.StatusSigned, now); err != nil {
		return false, err
	}
	sig.Token = ts.Token
	sig.Serial = ts.Serial
	sig.TokenHash = ts.Hash
	sig.TSA = client.Name()
	sig.LastError = ""
	if err := s.repo.Update(ctx, sig); err != nil {
		return false, apperrors.Wrap(err, "failed to store signed signature")
	}
	return true, nil
}

func (s *signingUseCase) retryLater(ctx context.Context, sig *signingDomain.Signature, cause error) error {
	sig.Attempts++
	if sig.Attempts >= s.opts.MaxAttempts {
		return s.fail(ctx, sig, cause.Error())
	}
	now := s.now()
	sig.LastError = cause.Error()
	sig.NextAttemptAt = now.Add(signingDomain.Backoff(sig.Attempts, s.opts.BackoffBase, s.opts.BackoffCap))
	sig.UpdatedAt = now

	s.logger.Warn("signature attempt failed",
		slog.String("signature_id", sig.ID.String()),
		slog.String("tenant_id", sig.TenantID.String()),
		slog.Int("attempts", sig.Attempts),
		slog.Any("error", cause),
	)
	return apperrors.Wrap(s.repo.Update(ctx, sig), "failed to reschedule signature")
}

func (s *signingUseCase) fail(ctx context.Context, sig *signingDomain.Signature, reason string) error {
	if err := sig.Transition(signingDomain.StatusFailed, s.now()); err != nil {
		return err
	}
	sig.LastError = reason
	if err := s.repo.Update(ctx, sig); err != nil {
		return apperrors.Wrap(err, "failed to mark signature failed")
	}

	s.logger.Error("signature failed",
		slog.String("signature_id", sig.ID.String()),
		slog.String("tenant_id", sig.TenantID.String()),
		slog.String("reason", reason),
	)
	event := alertDomain.NewEvent(
		alertDomain.EventSignatureFailed,
		sig.TenantID,
		alertDomain.SeverityHigh,
		"Timestamp signature failed",
	)
	event.Fields["signature_id"] = sig.ID.String()
	event.Fields["subject_kind"] = string(sig.SubjectKind)
	event.Fields["subject_id"] = sig.SubjectID.String()
	event.Fields["error_kind"] = apperrors.KindSignFailed
	event.Fields["reason"] = reason
	s.alerts.Publish(ctx, event)
	return nil
}

// Tick runs one batch for every tenant with pending work.
func (s *signingUseCase) Tick(ctx context.Context) error {
	tenantIDs, err := s.repo.TenantsWithPending(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to list tenants with pending signatures")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.opts.Concurrency, 1))
	for _, tenantID := range tenantIDs {
		if !s.intervalElapsed(gctx, tenantID) {
			continue
		}
		g.Go(func() error {
			n, err := s.ProcessTenant(gctx, tenantID)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("signer batch failed",
					slog.String("tenant_id", tenantID.String()),
					slog.Any("error", err),
				)
			}
			if n > 0 {
				s.logger.Debug("signer batch done",
					slog.String("tenant_id", tenantID.String()),
					slog.Int("signed", n),
				)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *signingUseCase) intervalElapsed(ctx context.Context, tenantID uuid.UUID) bool {
	last, ok := s.lastRun.Load(tenantID)
	if !ok {
		return true
	}
	interval := s.opts.Interval
	if tenant, err := s.tenants.Get(ctx, tenantID); err == nil && tenant.Signing.Interval > 0 {
		interval = tenant.Signing.Interval
	}
	return s.now().Sub(last.(time.Time)) >= interval
}

func (s *signingUseCase) Get(ctx context.Context, tenantID, signatureID uuid.UUID) (*signingDomain.Signature, error) {
	return s.repo.Get(ctx, tenantID, signatureID)
}

func (s *signingUseCase) LatestForSubject(
	ctx context.Context,
	tenantID, subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	return s.repo.LatestForSubject(ctx, tenantID, subjectID)
}

func (s *signingUseCase) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status signingDomain.Status,
	offset, limit int,
) ([]*signingDomain.Signature, error) {
	return s.repo.ListByStatus(ctx, tenantID, status, offset, limit)
}

// Verify re-hashes the subject and checks the token.
func (s *signingUseCase) Verify(
	ctx context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	sig, err := s.repo.Get(ctx, tenantID, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status == signingDomain.StatusPending || len(sig.Token) == 0 {
		return sig, signingDomain.ErrNotSigned
	}

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	hasher, err := s.hasher(sig.SubjectKind)
	if err != nil {
		return nil, err
	}
	hash, err := hasher.ContentHash(ctx, tenantID, sig.SubjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash signature subject")
	}

	client := s.resolver.ForName(sig.TSA)
	tctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	result, err := client.Verify(tctx, sig.Token, hash)
	cancel()

	var reason string
	switch {
	case apperrors.Is(err, signingDomain.ErrMalformedToken):
		reason = "token is malformed"
	case err != nil:
		return nil, apperrors.Wrap(err, "failed to verify token")
	case hash != sig.TokenHash || !result.HashMatch:
		reason = "subject hash does not match the token"
	case !result.Valid || !result.TimeValid:
		reason = "token did not verify"
	case result.IssuedAt.Before(s.now().Add(-tenant.RetentionDuration())):
		reason = "token issued outside the retention window"
	}

	if reason == "" {
		if sig.Status == signingDomain.StatusSigned {
			if err := sig.Transition(signingDomain.StatusVerified, s.now()); err != nil {
				return nil, err
			}
			if err := s.repo.Update(ctx, sig); err != nil {
				return nil, apperrors.Wrap(err, "failed to store verified signature")
			}
		}
		if sig.Status == signingDomain.StatusFailed {
			return sig, apperrors.Wrap(apperrors.ErrVerifyFailed, sig.LastError)
		}
		return sig, nil
	}

	if sig.Status != signingDomain.StatusFailed {
		if err := sig.Transition(signingDomain.StatusFailed, s.now()); err != nil {
			return nil, err
		}
		sig.LastError = reason
		if err := s.repo.Update(ctx, sig); err != nil {
			return nil, apperrors.Wrap(err, "failed to mark signature failed")
		}
		s.publishIntegrity(ctx, sig, reason)
	}
	return sig, apperrors.Wrap(apperrors.ErrVerifyFailed, reason)
}

func (s *signingUseCase) publishIntegrity(ctx context.Context, sig *signingDomain.Signature, reason string) {
	s.logger.Error("signature verification failed",
		slog.String("signature_id", sig.ID.String()),
		slog.String("tenant_id", sig.TenantID.String()),
		slog.String("reason", reason),
	)
	event := alertDomain.NewEvent(
		alertDomain.EventIntegrityViolated,
		sig.TenantID,
		alertDomain.SeverityCritical,
		"Signature verification failed",
	)
	if sig.SubjectKind.IsRecord() {
		id := sig.SubjectID
		event.RecordID = &id
	}
	event.Fields["signature_id"] = sig.ID.String()
	event.Fields["subject_kind"] = string(sig.SubjectKind)
	event.Fields["subject_id"] = sig.SubjectID.String()
	event.Fields["error_kind"] = apperrors.KindVerifyFailed
	event.Fields["reason"] = reason
	s.alerts.Publish(ctx, event)
}

// VerifyTenant verifies every signed or verified signature of the tenant.
// Ids are collected first because verification moves rows between statuses.
func (s *signingUseCase) VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*VerifyReport, error) {
	var ids []uuid.UUID
	for _, status := range []signingDomain.Status{signingDomain.StatusSigned, signingDomain.StatusVerified} {
		for offset := 0; ; offset += verifyPageSize {
			page, err := s.repo.ListByStatus(ctx, tenantID, status, offset, verifyPageSize)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to list signatures")
			}
			for _, sig := range page {
				ids = append(ids, sig.ID)
			}
			if len(page) < verifyPageSize {
				break
			}
		}
	}

	report := &VerifyReport{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		_, err := s.Verify(ctx, tenantID, id)
		switch {
		case err == nil:
			report.Verified++
		case apperrors.Is(err, apperrors.ErrVerifyFailed):
			report.Failed++
		default:
			report.Errors++
			s.logger.Warn("signature verification error",
				slog.String("signature_id", id.String()),
				slog.Any("error", err),
			)
		}
	}
	return report, nil
}

// NewSigningUseCase creates the signer.
func NewSigningUseCase(
	repo SignatureRepository,
	tenants TenantLookup,
	resolver *signingService.Resolver,
	alerts AlertPublisher,
	opts Options,
	logger *slog.Logger,
) SigningUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 500 * time.Millisecond
	}
	if opts.BackoffCap < opts.BackoffBase {
		opts.BackoffCap = opts.BackoffBase
	}
	return &signingUseCase{
		repo:     repo,
		tenants:  tenants,
		resolver: resolver,
		alerts:   alerts,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		hashers:  make(map[signingDomain.SubjectKind]SubjectHasher),
	}
}
