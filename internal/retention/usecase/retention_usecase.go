package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/metrics"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordUsecase "github.com/allisson/trustlog/internal/record/usecase"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

const (
	defaultPageSize         = 500
	defaultMaxRecordsPerRun = 100000
	markArchivedBatch       = 500
	tenantPageSize          = 100
)

// Options carries the process-wide retention defaults.
type Options struct {
	DefaultRetention    time.Duration
	DefaultArchiveAfter time.Duration
	// RunTimeout bounds one archive or cleanup run and is the lock lease.
	RunTimeout       time.Duration
	PageSize         int
	MaxRecordsPerRun int
	Algorithm        cryptoDomain.Algorithm
}

type retentionUseCase struct {
	policies   PolicyRepository
	jobs       JobRepository
	events     EventRepository
	records    RecordStore
	signatures SignatureLookup
	tenants    TenantLookup
	backends   *retentionService.Backends
	locker     retentionService.Locker
	keys       cryptoService.KeyManager
	aeads      cryptoService.AEADManager
	contentKey *cryptoDomain.ContentKey
	alerts     AlertPublisher
	pipeline   metrics.PipelineMetrics
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

func lockKey(tenantID uuid.UUID) string {
	return "retention:" + tenantID.String()
}

func (u *retentionUseCase) tenantRetention(ctx context.Context, tenantID uuid.UUID) (time.Duration, error) {
	tenant, err := u.tenants.Get(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	retention := tenant.RetentionDuration()
	if retention <= 0 {
		retention = u.opts.DefaultRetention
	}
	return retention, nil
}

func (u *retentionUseCase) GetPolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.Policy, error) {
	if !kind.Valid() {
		return nil, apperrors.Wrapf(retentionDomain.ErrInvalidPolicy, "unknown record kind %q", kind)
	}
	retention, err := u.tenantRetention(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	policy, err := u.policies.Get(ctx, tenantID, kind)
	if errors.Is(err, retentionDomain.ErrPolicyNotFound) {
		return retentionDomain.DefaultPolicy(tenantID, kind, retention, u.opts.DefaultArchiveAfter), nil
	}
	if err != nil {
		return nil, err
	}
	policy.MinRetention = max(policy.MinRetention, retention)
	return policy, nil
}

func (u *retentionUseCase) ListPolicies(ctx context.Context, tenantID uuid.UUID) ([]*retentionDomain.Policy, error) {
	policies := make([]*retentionDomain.Policy, 0, len(retentionDomain.RecordKinds))
	for _, kind := range retentionDomain.RecordKinds {
		policy, err := u.GetPolicy(ctx, tenantID, kind)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

func (u *retentionUseCase) SetPolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	input *PolicyInput,
) (*retentionDomain.Policy, error) {
	if !input.Kind.Valid() {
		return nil, apperrors.Wrapf(retentionDomain.ErrInvalidPolicy, "unknown record kind %q", input.Kind)
	}
	retention, err := u.tenantRetention(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()

	minRetention := input.MinRetention
	if minRetention == 0 {
		minRetention = retention
	}
	if minRetention < retention {
		reason := fmt.Sprintf("min retention %s below tenant retention %s", minRetention, retention)
		u.recordEvent(ctx, retentionDomain.NewEvent(tenantID, retentionDomain.EventPolicyViolation, input.Kind, reason, now))
		return nil, apperrors.Wrap(apperrors.ErrPolicyViolation, reason)
	}

	archiveAfter := input.ArchiveAfter
	if archiveAfter == 0 {
		archiveAfter = u.opts.DefaultArchiveAfter
	}
	if archiveAfter < 0 || archiveAfter >= minRetention {
		return nil, apperrors.Wrap(retentionDomain.ErrInvalidPolicy, "archive_after must be shorter than min retention")
	}

	backend := input.Backend
	if backend == "" {
		backend = retentionDomain.BackendLocal
	}
	if !backend.Valid() {
		return nil, apperrors.Wrapf(retentionDomain.ErrInvalidPolicy, "unknown backend %q", backend)
	}
	if !u.backends.Available(backend) {
		return nil, apperrors.Wrapf(retentionDomain.ErrBackendUnavailable, "%s", backend)
	}

	cadence := input.Cadence
	if cadence == "" {
		cadence = retentionDomain.CadenceDaily
	}
	if !cadence.Valid() {
		return nil, apperrors.Wrapf(retentionDomain.ErrInvalidPolicy, "unknown cadence %q", cadence)
	}

	policy := &retentionDomain.Policy{
		ID:           uuid.Must(uuid.NewV7()),
		TenantID:     tenantID,
		Kind:         input.Kind,
		MinRetention: minRetention,
		ArchiveAfter: archiveAfter,
		Compress:     input.Compress,
		Encrypt:      input.Encrypt,
		Backend:      backend,
		Cadence:      cadence,
		AutoCleanup:  input.AutoCleanup,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing, err := u.policies.Get(ctx, tenantID, input.Kind); err == nil {
		policy.ID = existing.ID
		policy.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, retentionDomain.ErrPolicyNotFound) {
		return nil, err
	}

	if err := u.policies.Upsert(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func (u *retentionUseCase) lock(ctx context.Context, tenantID uuid.UUID) (func(), error) {
	release, ok, err := u.locker.TryLock(ctx, lockKey(tenantID), u.opts.RunTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, retentionDomain.ErrBusy
	}
	return release, nil
}

func (u *retentionUseCase) RunArchive(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.ArchiveJob, error) {
	policy, err := u.GetPolicy(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}
	release, err := u.lock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, u.opts.RunTimeout)
	defer cancel()
	return u.archive(ctx, policy)
}

func (u *retentionUseCase) layersForNewJob(job *retentionDomain.ArchiveJob) (retentionService.Layers, error) {
	layers := retentionService.Layers{Compress: job.Compressed}
	if !job.Encrypted {
		return layers, nil
	}

	dek, key, err := u.keys.CreateDek(u.contentKey, u.opts.Algorithm)
	if err != nil {
		return layers, apperrors.Wrap(err, "failed to create archive key")
	}
	defer cryptoDomain.Zero(key)

	aead, err := u.aeads.CreateCipher(key, dek.Algorithm)
	if err != nil {
		return layers, err
	}
	job.Dek = &dek
	layers.AEAD = aead
	layers.AADPrefix = job.ID[:]
	return layers, nil
}

func (u *retentionUseCase) layersForJob(job *retentionDomain.ArchiveJob) (retentionService.Layers, error) {
	layers := retentionService.Layers{Compress: job.Compressed}
	if !job.Encrypted {
		return layers, nil
	}
	if job.Dek == nil {
		return layers, apperrors.Wrap(retentionDomain.ErrArchiveCorrupt, "encrypted job without data key")
	}

	key, err := u.keys.DecryptDek(*job.Dek, u.contentKey)
	if err != nil {
		return layers, apperrors.Wrap(apperrors.ErrDecryptFailed, "failed to unwrap archive key")
	}
	defer cryptoDomain.Zero(key)

	aead, err := u.aeads.CreateCipher(key, job.Dek.Algorithm)
	if err != nil {
		return layers, err
	}
	layers.AEAD = aead
	layers.AADPrefix = job.ID[:]
	return layers, nil
}

func (u *retentionUseCase) archive(ctx context.Context, policy *retentionDomain.Policy) (*retentionDomain.ArchiveJob, error) {
	now := u.now().UTC()
	notArchived := false
	filter := recordUsecase.RangeFilter{RangeQuery: recordDomain.RangeQuery{
		TenantID: policy.TenantID,
		Kinds:    []recordDomain.Kind{policy.Kind},
		To:       now.Add(-policy.ArchiveAfter),
		Archived: &notArchived,
		Limit:    u.opts.PageSize,
	}}

	page, err := u.records.RangeSealed(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(page.Records) == 0 {
		return nil, nil
	}

	storage, err := u.backends.Get(policy.Backend)
	if err != nil {
		return nil, err
	}

	job := retentionDomain.NewArchiveJob(policy, now)
	layers, err := u.layersForNewJob(job)
	if err != nil {
		return nil, err
	}
	if err := u.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	var (
		ids   []uuid.UUID
		index []retentionDomain.IndexEntry
		size  int64
		sum   string
	)
	err = storage.Put(ctx, job.BlobKey, func(w io.Writer) error {
		aw, err := retentionService.NewArchiveWriter(w, layers)
		if err != nil {
			return err
		}
		for {
			for _, record := range page.Records {
				signature, err := u.signatures.LatestForSubject(ctx, record.TenantID, record.ID)
				if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
					return err
				}
				if err := aw.Write(record, signature); err != nil {
					return err
				}
				job.Include(record.EntryTime)
				ids = append(ids, record.ID)
				index = append(index, retentionDomain.IndexEntry{
					JobID:          job.ID,
					TenantID:       record.TenantID,
					RecordID:       record.ID,
					Kind:           record.Kind,
					EntryTime:      record.EntryTime,
					IdentityDigest: record.IdentityDigest,
				})
			}
			if page.Next == nil || len(ids) >= u.opts.MaxRecordsPerRun {
				break
			}
			filter.After = page.Next
			if page, err = u.records.RangeSealed(ctx, filter); err != nil {
				return err
			}
		}
		if err := aw.Close(); err != nil {
			return err
		}
		size, sum = aw.Size(), aw.SHA256()
		return nil
	})
	if err != nil {
		return job, u.failJob(ctx, job, err)
	}

	if err := u.jobs.AddIndex(ctx, index); err != nil {
		return job, u.failJob(ctx, job, err)
	}
	job.Complete(size, sum, u.now().UTC())
	if err := u.jobs.Update(ctx, job); err != nil {
		return job, err
	}

	for start := 0; start < len(ids); start += markArchivedBatch {
		batch := ids[start:min(start+markArchivedBatch, len(ids))]
		if err := u.records.MarkArchived(ctx, policy.TenantID, batch, job.CompletedAt.UTC()); err != nil {
			return job, apperrors.Wrap(err, "archive stored but records not flagged")
		}
	}

	u.recordEvent(ctx, retentionDomain.NewEvent(policy.TenantID, retentionDomain.EventArchived, policy.Kind,
		fmt.Sprintf("%d records", job.RecordCount), job.CompletedAt.UTC()).ForJob(job.ID))
	u.pipeline.RecordEvent(ctx, "retention", "archived", int64(job.RecordCount))
	u.logger.Info("archive completed",
		slog.String("tenant_id", policy.TenantID.String()),
		slog.String("kind", string(policy.Kind)),
		slog.String("job_id", job.ID.String()),
		slog.Int("records", job.RecordCount),
		slog.Int64("size", job.Size),
		slog.String("backend", string(job.Backend)),
	)
	return job, nil
}

func (u *retentionUseCase) failJob(ctx context.Context, job *retentionDomain.ArchiveJob, cause error) error {
	ctx = context.WithoutCancel(ctx)
	job.Fail(cause, u.now().UTC())
	if err := u.jobs.Update(ctx, job); err != nil {
		u.logger.Error("failed to record archive failure", slog.String("job_id", job.ID.String()), slog.Any("error", err))
	}
	u.pipeline.RecordEvent(ctx, "retention", "archive_failed", 1)
	u.publish(ctx, alertDomain.EventArchiveFailed, job.TenantID, alertDomain.SeverityHigh, "Archive run failed",
		map[string]any{"job_id": job.ID.String(), "kind": string(job.Kind), "error": cause.Error()})
	return apperrors.Wrap(cause, "archive run failed")
}

func (u *retentionUseCase) RunCleanup(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*CleanupReport, error) {
	policy, err := u.GetPolicy(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}
	release, err := u.lock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, u.opts.RunTimeout)
	defer cancel()
	return u.cleanup(ctx, policy)
}

// cleanupRun carries per-run caches.
type cleanupRun struct {
	policy *retentionDomain.Policy
	now    time.Time
	report *CleanupReport
	// blobs caches the blob verification result per job.
	blobs map[uuid.UUID]bool
}

func (u *retentionUseCase) cleanup(ctx context.Context, policy *retentionDomain.Policy) (*CleanupReport, error) {
	run := &cleanupRun{
		policy: policy,
		now:    u.now().UTC(),
		report: &CleanupReport{Reasons: make(map[string]int)},
		blobs:  make(map[uuid.UUID]bool),
	}

	if !policy.AutoCleanup {
		u.skip(ctx, run, nil, retentionDomain.ReasonAutoCleanupDisabled)
		return run.report, nil
	}

	// Every sealed record is walked so that records still inside the
	// retention window get their own RETENTION_SKIP entry.
	filter := recordUsecase.RangeFilter{RangeQuery: recordDomain.RangeQuery{
		TenantID: policy.TenantID,
		Kinds:    []recordDomain.Kind{policy.Kind},
		Limit:    u.opts.PageSize,
	}}
	for {
		page, err := u.records.RangeSealed(ctx, filter)
		if err != nil {
			return run.report, err
		}
		for _, record := range page.Records {
			run.report.Checked++
			if reason := u.deletionBlocker(ctx, run, record); reason != "" {
				u.skip(ctx, run, record, reason)
				continue
			}
			if err := u.purge(ctx, run, record); err != nil {
				return run.report, err
			}
		}
		if page.Next == nil {
			break
		}
		filter.After = page.Next
	}

	u.logger.Info("cleanup completed",
		slog.String("tenant_id", policy.TenantID.String()),
		slog.String("kind", string(policy.Kind)),
		slog.Int("checked", run.report.Checked),
		slog.Int("purged", run.report.Purged),
		slog.Int("skipped", run.report.Skipped),
	)
	return run.report, nil
}

// deletionBlocker returns the first failed deletion check, or "".
func (u *retentionUseCase) deletionBlocker(ctx context.Context, run *cleanupRun, record *recordDomain.Record) string {
	if run.now.Sub(record.EntryTime) < run.policy.MinRetention {
		return retentionDomain.ReasonRetentionNotElapsed
	}
	if record.ArchivedAt == nil {
		return retentionDomain.ReasonNotArchived
	}

	jobs, err := u.jobs.JobsForRecord(ctx, record.TenantID, record.ID)
	if err != nil || len(jobs) == 0 {
		return retentionDomain.ReasonNotArchived
	}
	intact := slices.ContainsFunc(jobs, func(job *retentionDomain.ArchiveJob) bool {
		ok, seen := run.blobs[job.ID]
		if !seen {
			ok = u.blobIntact(ctx, job)
			run.blobs[job.ID] = ok
		}
		return ok
	})
	if !intact {
		return retentionDomain.ReasonArchiveMismatch
	}

	signature, err := u.signatures.LatestForSubject(ctx, record.TenantID, record.ID)
	if err != nil || signature.Status != signingDomain.StatusVerified {
		return retentionDomain.ReasonNotVerified
	}
	return ""
}

func (u *retentionUseCase) purge(ctx context.Context, run *cleanupRun, record *recordDomain.Record) error {
	err := u.records.Purge(ctx, record.TenantID, record.ID, run.policy.MinRetention, run.now)
	if errors.Is(err, recordDomain.ErrRetentionNotElapsed) {
		u.recordEvent(ctx, retentionDomain.NewEvent(record.TenantID, retentionDomain.EventPolicyViolation, record.Kind,
			"record store refused early deletion", run.now).ForRecord(record.ID))
		run.report.Skipped++
		run.report.Reasons[retentionDomain.ReasonRetentionNotElapsed]++
		return nil
	}
	if errors.Is(err, recordDomain.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	run.report.Purged++
	u.recordEvent(ctx, retentionDomain.NewEvent(record.TenantID, retentionDomain.EventPurged, record.Kind, "",
		run.now).ForRecord(record.ID))
	u.pipeline.RecordEvent(ctx, "retention", "purged", 1)
	return nil
}

func (u *retentionUseCase) skip(ctx context.Context, run *cleanupRun, record *recordDomain.Record, reason string) {
	event := retentionDomain.NewEvent(run.policy.TenantID, retentionDomain.EventRetentionSkip, run.policy.Kind, reason,
		run.now)
	fields := map[string]any{"reason": reason, "kind": string(run.policy.Kind)}
	if record != nil {
		event.ForRecord(record.ID)
		fields["record_id"] = record.ID.String()
		run.report.Skipped++
	}
	run.report.Reasons[reason]++
	u.recordEvent(ctx, event)
	u.pipeline.RecordEvent(ctx, "retention", "skipped", 1)

	if reason == retentionDomain.ReasonArchiveMismatch || reason == retentionDomain.ReasonNotVerified {
		u.publish(ctx, alertDomain.EventRetentionSkip, run.policy.TenantID, alertDomain.SeverityMedium,
			"Retention cleanup skipped a record", fields)
	}
}

// blobIntact reports whether the stored blob still hashes to the job's SHA-256.
func (u *retentionUseCase) blobIntact(ctx context.Context, job *retentionDomain.ArchiveJob) bool {
	err := u.verifyBlob(ctx, job)
	if err != nil {
		u.logger.Warn("archive blob failed verification",
			slog.String("job_id", job.ID.String()),
			slog.String("blob_key", job.BlobKey),
			slog.Any("error", err),
		)
	}
	return err == nil
}

func (u *retentionUseCase) verifyBlob(ctx context.Context, job *retentionDomain.ArchiveJob) error {
	storage, err := u.backends.Get(job.Backend)
	if err != nil {
		return err
	}
	r, err := storage.Open(ctx, job.BlobKey)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	sum, size, err := retentionService.HashReader(r)
	if err != nil {
		return apperrors.Wrap(err, "failed to read archive blob")
	}
	if sum != job.SHA256 || size != job.Size {
		return retentionDomain.ErrHashMismatch
	}
	return nil
}

func (u *retentionUseCase) RunDue(ctx context.Context, cadence retentionDomain.Cadence) error {
	var errs []error
	for offset := 0; ; offset += tenantPageSize {
		tenants, err := u.tenants.List(ctx, offset, tenantPageSize)
		if err != nil {
			return err
		}
		for _, tenant := range tenants {
			for _, kind := range retentionDomain.RecordKinds {
				if err := u.runDueKind(ctx, tenant.ID, kind, cadence); err != nil {
					errs = append(errs, apperrors.Wrapf(err, "tenant %s %s", tenant.Slug, kind))
				}
			}
		}
		if len(tenants) < tenantPageSize {
			break
		}
	}
	return errors.Join(errs...)
}

func (u *retentionUseCase) runDueKind(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
	cadence retentionDomain.Cadence,
) error {
	policy, err := u.GetPolicy(ctx, tenantID, kind)
	if err != nil {
		return err
	}
	if policy.Cadence != cadence {
		return nil
	}

	if _, err := u.RunArchive(ctx, tenantID, kind); err != nil {
		if errors.Is(err, retentionDomain.ErrBusy) {
			u.logger.Info("retention run skipped, tenant busy", slog.String("tenant_id", tenantID.String()))
			return nil
		}
		return err
	}
	if !policy.AutoCleanup {
		return nil
	}
	if _, err := u.RunCleanup(ctx, tenantID, kind); err != nil && !errors.Is(err, retentionDomain.ErrBusy) {
		return err
	}
	return nil
}

func (u *retentionUseCase) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error) {
	return u.jobs.Get(ctx, tenantID, jobID)
}

func (u *retentionUseCase) ListJobs(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*retentionDomain.ArchiveJob, error) {
	return u.jobs.List(ctx, tenantID, offset, limit)
}

func (u *retentionUseCase) VerifyJob(ctx context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error) {
	job, err := u.jobs.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != retentionDomain.JobCompleted {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "archive job is %s", job.Status)
	}
	if err := u.verifyBlob(ctx, job); err != nil {
		if errors.Is(err, retentionDomain.ErrHashMismatch) || errors.Is(err, apperrors.ErrNotFound) {
			u.publish(ctx, alertDomain.EventIntegrityViolated, tenantID, alertDomain.SeverityCritical,
				"Archive blob integrity check failed", map[string]any{"job_id": job.ID.String(), "blob_key": job.BlobKey})
			return job, apperrors.Join(retentionDomain.ErrHashMismatch, err)
		}
		return job, err
	}
	return job, nil
}

func (u *retentionUseCase) ListEvents(
	ctx context.Context,
	tenantID uuid.UUID,
	kind retentionDomain.EventKind,
	offset, limit int,
) ([]*retentionDomain.Event, error) {
	return u.events.List(ctx, tenantID, kind, offset, limit)
}

func (u *retentionUseCase) ReadArchived(ctx context.Context, q retentionDomain.IndexQuery) ([]*ArchivedEntry, error) {
	index, err := u.jobs.FindIndex(ctx, q)
	if err != nil {
		return nil, err
	}

	wanted := make(map[uuid.UUID]map[uuid.UUID]struct{})
	order := make([]uuid.UUID, 0)
	for _, e := range index {
		ids, ok := wanted[e.JobID]
		if !ok {
			ids = make(map[uuid.UUID]struct{})
			wanted[e.JobID] = ids
			order = append(order, e.JobID)
		}
		ids[e.RecordID] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{})
	entries := make([]*ArchivedEntry, 0, len(index))
	for _, jobID := range order {
		job, err := u.jobs.Get(ctx, q.TenantID, jobID)
		if err != nil {
			return nil, err
		}
		err = u.readJob(ctx, job, func(entry *ArchivedEntry) {
			if _, ok := wanted[jobID][entry.Record.ID]; !ok {
				return
			}
			if _, dup := seen[entry.Record.ID]; dup {
				return
			}
			seen[entry.Record.ID] = struct{}{}
			entries = append(entries, entry)
		})
		if err != nil {
			return nil, apperrors.Wrapf(err, "archive job %s", jobID)
		}
	}

	slices.SortFunc(entries, func(a, b *ArchivedEntry) int {
		if c := a.Record.EntryTime.Compare(b.Record.EntryTime); c != 0 {
			return c
		}
		return slices.Compare(a.Record.ID[:], b.Record.ID[:])
	})
	return entries, nil
}

// readJob streams every entry of a job's blob to fn, checking the blob hash
// once the stream is exhausted.
func (u *retentionUseCase) readJob(
	ctx context.Context,
	job *retentionDomain.ArchiveJob,
	fn func(entry *ArchivedEntry),
) error {
	storage, err := u.backends.Get(job.Backend)
	if err != nil {
		return err
	}
	layers, err := u.layersForJob(job)
	if err != nil {
		return err
	}
	blob, err := storage.Open(ctx, job.BlobKey)
	if err != nil {
		return err
	}
	defer func() {
		_ = blob.Close()
	}()

	hashed := newHashingReader(blob)
	reader, err := retentionService.NewArchiveReader(hashed, layers)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fn(entry)
	}
	if hashed.finish() != job.SHA256 {
		return retentionDomain.ErrHashMismatch
	}
	return nil
}

func (u *retentionUseCase) recordEvent(ctx context.Context, event *retentionDomain.Event) {
	if err := u.events.Create(context.WithoutCancel(ctx), event); err != nil {
		u.logger.Error("failed to record retention event",
			slog.String("tenant_id", event.TenantID.String()),
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
	}
}

func (u *retentionUseCase) publish(
	ctx context.Context,
	kind string,
	tenantID uuid.UUID,
	severity alertDomain.Severity,
	title string,
	fields map[string]any,
) {
	if u.alerts == nil {
		return
	}
	event := alertDomain.NewEvent(kind, tenantID, severity, title)
	event.Fields = fields
	event.OccurredAt = u.now().UTC()
	u.alerts.Publish(ctx, event)
}

// NewRetentionUseCase creates the retention engine. alerts may be nil.
func NewRetentionUseCase(
	policies PolicyRepository,
	jobs JobRepository,
	events EventRepository,
	records RecordStore,
	signatures SignatureLookup,
	tenants TenantLookup,
	backends *retentionService.Backends,
	locker retentionService.Locker,
	keys cryptoService.KeyManager,
	aeads cryptoService.AEADManager,
	contentKey *cryptoDomain.ContentKey,
	alerts AlertPublisher,
	pipeline metrics.PipelineMetrics,
	opts Options,
	logger *slog.Logger,
) RetentionUseCase {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxRecordsPerRun <= 0 {
		opts.MaxRecordsPerRun = defaultMaxRecordsPerRun
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Minute
	}
	if opts.Algorithm == "" {
		opts.Algorithm = cryptoDomain.AESGCM
	}
	if pipeline == nil {
		pipeline = metrics.NewNoOpPipelineMetrics()
	}
	return &retentionUseCase{
		policies:   policies,
		jobs:       jobs,
		events:     events,
		records:    records,
		signatures: signatures,
		tenants:    tenants,
		backends:   backends,
		locker:     locker,
		keys:       keys,
		aeads:      aeads,
		contentKey: contentKey,
		alerts:     alerts,
		pipeline:   pipeline,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}
