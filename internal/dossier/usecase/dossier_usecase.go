package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	"github.com/allisson/trustlog/internal/database"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	dossierService "github.com/allisson/trustlog/internal/dossier/service"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/metrics"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordUsecase "github.com/allisson/trustlog/internal/record/usecase"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

const (
	defaultPageSize   = 500
	defaultMaxRecords = 100000
	sweepPageSize     = 100
)

var requestNumberPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Options bounds dossier generation.
type Options struct {
	PageSize   int
	MaxRecords int
	// AuditSigner signs audit entries. Entries are written unsigned when nil.
	AuditSigner dossierService.AuditSigner
}

type dossierUseCase struct {
	txManager database.TxManager
	dossiers  DossierRepository
	audit     AuditRepository
	accesses  AccessRepository
	records   RecordSource
	archives  ArchiveReader
	signer    Signer
	digester  Digester
	tenants   TenantLookup
	storage   retentionService.Storage
	alerts    AlertPublisher
	pipeline  metrics.PipelineMetrics
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func (u *dossierUseCase) Create(
	ctx context.Context,
	input *dossierDomain.CreateInput,
) (*dossierDomain.Dossier, error) {
	if !requestNumberPattern.MatchString(input.RequestNumber) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "request number must match [A-Za-z0-9._-]{1,64}")
	}
	if !input.Type.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown dossier type %q", input.Type)
	}
	if !input.Format.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported dossier format %q", input.Format)
	}
	if input.From.IsZero() || !input.From.Before(input.To) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "range start must precede range end")
	}
	if input.RequestedBy == uuid.Nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "requester is required")
	}
	if _, err := u.tenants.Get(ctx, input.TenantID); err != nil {
		return nil, err
	}

	kinds := slices.Clone(input.Kinds)
	if len(kinds) == 0 {
		kinds = []recordDomain.Kind{recordDomain.KindSession, recordDomain.KindSyslog, recordDomain.KindFlow}
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown record kind %q", k)
		}
	}
	slices.Sort(kinds)
	kinds = slices.Compact(kinds)

	filter := dossierDomain.Filter{Kinds: kinds}
	if input.Identity != "" {
		filter.IdentityDigest = u.digester.Digest(input.TenantID, input.Identity)
	}
	if input.SourceIP != "" {
		filter.SourceIPDigest = u.digester.Digest(input.TenantID, input.SourceIP)
	}

	now := u.now().UTC()
	dossier := &dossierDomain.Dossier{
		ID:            uuid.Must(uuid.NewV7()),
		TenantID:      input.TenantID,
		RequestNumber: input.RequestNumber,
		Type:          input.Type,
		RequestedBy:   input.RequestedBy,
		From:          input.From.UTC(),
		To:            input.To.UTC(),
		Filter:        filter,
		Format:        input.Format,
		Status:        dossierDomain.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.dossiers.Create(ctx, dossier); err != nil {
			return err
		}
		return u.audit.Append(ctx, u.auditEntry(dossier, "", input.RequestedBy, "created"))
	})
	if err != nil {
		return nil, err
	}
	return dossier, nil
}

func (u *dossierUseCase) Submit(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error) {
	return u.transition(ctx, input, dossierDomain.StatusPendingApproval, nil)
}

func (u *dossierUseCase) Approve(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error) {
	return u.transition(ctx, input, dossierDomain.StatusApproved, func(_ context.Context, d *dossierDomain.Dossier) error {
		if d.RequestedBy == input.OperatorID {
			return dossierDomain.ErrSelfApproval
		}
		approver := input.OperatorID
		d.ApprovedBy = &approver
		return nil
	})
}

func (u *dossierUseCase) Reject(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error) {
	return u.transition(ctx, input, dossierDomain.StatusRejected, func(_ context.Context, d *dossierDomain.Dossier) error {
		if d.RequestedBy == input.OperatorID {
			return dossierDomain.ErrSelfApproval
		}
		return nil
	})
}

func (u *dossierUseCase) Deliver(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error) {
	return u.transition(ctx, input, dossierDomain.StatusDelivered, func(_ context.Context, d *dossierDomain.Dossier) error {
		at := u.now().UTC()
		d.DeliveredAt = &at
		return nil
	})
}

func (u *dossierUseCase) Generate(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error) {
	dossier, err := u.dossiers.Get(ctx, input.TenantID, input.DossierID)
	if err != nil {
		return nil, err
	}
	if dossier.Frozen() {
		return dossier, nil
	}
	if dossier.Status != dossierDomain.StatusApproved {
		return nil, dossierDomain.ErrInvalidTransition
	}

	doc, err := u.buildDocument(ctx, dossier)
	if err != nil {
		return nil, err
	}
	renderer, err := dossierService.NewRenderer(dossier.Format)
	if err != nil {
		return nil, err
	}
	var artifact bytes.Buffer
	if err := renderer.Render(&artifact, doc); err != nil {
		return nil, apperrors.Wrap(err, "failed to render dossier")
	}
	sum := sha256.Sum256(artifact.Bytes())

	key := dossierDomain.ArtifactKeyFor(dossier.TenantID, dossier.RequestNumber, dossier.Format)
	err = u.storage.Put(ctx, key, func(w io.Writer) error {
		_, err := w.Write(artifact.Bytes())
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to store dossier artifact")
	}

	generated, err := u.transition(
		ctx,
		input,
		dossierDomain.StatusGenerated,
		func(ctx context.Context, d *dossierDomain.Dossier) error {
			signature, err := u.signer.Enqueue(ctx, d.TenantID, signingDomain.SubjectDossier, d.ID)
			if err != nil {
				return err
			}
			at := u.now().UTC()
			d.RecordCount = doc.Dossier.RecordCount
			d.SignatureCount = doc.Dossier.SignatureCount
			d.ArtifactKey = key
			d.ArtifactSize = int64(artifact.Len())
			d.SHA256 = hex.EncodeToString(sum[:])
			d.SignatureID = &signature.ID
			d.GeneratedAt = &at
			return nil
		},
	)
	if err != nil {
		if errors.Is(err, dossierDomain.ErrInvalidTransition) {
			if current, getErr := u.dossiers.Get(ctx, input.TenantID, input.DossierID); getErr == nil && current.Frozen() {
				return current, nil
			}
		}
		return nil, err
	}

	if _, err := u.signer.ProcessTenant(ctx, generated.TenantID); err != nil {
		u.logger.Warn("dossier signature deferred",
			slog.String("dossier_id", generated.ID.String()),
			slog.Any("error", err),
		)
	}
	if _, err := u.bind(ctx, generated); err != nil {
		u.logger.Warn("failed to write dossier signature binding",
			slog.String("dossier_id", generated.ID.String()),
			slog.Any("error", err),
		)
	}

	u.pipeline.RecordEvent(ctx, "dossier", "generated", 1)
	u.logger.Info("dossier generated",
		slog.String("tenant_id", generated.TenantID.String()),
		slog.String("dossier_id", generated.ID.String()),
		slog.String("request_number", generated.RequestNumber),
		slog.Int("records", generated.RecordCount),
		slog.String("sha256", generated.SHA256),
	)
	return generated, nil
}

// transition moves a dossier to status to inside one transaction, applying
// mutate and appending the audit entry.
func (u *dossierUseCase) transition(
	ctx context.Context,
	input *TransitionInput,
	to dossierDomain.Status,
	mutate func(ctx context.Context, d *dossierDomain.Dossier) error,
) (*dossierDomain.Dossier, error) {
	if input.OperatorID == uuid.Nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "operator is required")
	}

	var out *dossierDomain.Dossier
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		dossier, err := u.dossiers.Get(ctx, input.TenantID, input.DossierID)
		if err != nil {
			return err
		}
		from := dossier.Status
		if !dossierDomain.CanTransition(from, to) {
			return dossierDomain.ErrInvalidTransition
		}
		if mutate != nil {
			if err := mutate(ctx, dossier); err != nil {
				return err
			}
		}
		dossier.Status = to
		dossier.UpdatedAt = u.now().UTC()
		if err := u.dossiers.Update(ctx, dossier, from); err != nil {
			return err
		}
		if err := u.audit.Append(ctx, u.auditEntry(dossier, from, input.OperatorID, input.Note)); err != nil {
			return err
		}
		out = dossier
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("dossier transitioned",
		slog.String("dossier_id", out.ID.String()),
		slog.String("status", string(out.Status)),
		slog.String("operator_id", input.OperatorID.String()),
	)
	return out, nil
}

func (u *dossierUseCase) auditEntry(
	dossier *dossierDomain.Dossier,
	from dossierDomain.Status,
	operatorID uuid.UUID,
	note string,
) *dossierDomain.AuditEntry {
	entry := &dossierDomain.AuditEntry{
		ID:         uuid.Must(uuid.NewV7()),
		DossierID:  dossier.ID,
		TenantID:   dossier.TenantID,
		FromStatus: from,
		ToStatus:   dossier.Status,
		OperatorID: operatorID,
		Note:       note,
		At:         u.now().UTC().Truncate(time.Microsecond),
	}
	if u.opts.AuditSigner != nil {
		entry.Signature = u.opts.AuditSigner.Sign(entry)
	}
	return entry
}

// buildDocument collects the records of the dossier from the live store and
// the archives, ordered by (entry_time, id).
func (u *dossierUseCase) buildDocument(
	ctx context.Context,
	dossier *dossierDomain.Dossier,
) (*dossierDomain.Document, error) {
	tenant, err := u.tenants.Get(ctx, dossier.TenantID)
	if err != nil {
		return nil, err
	}

	type item struct {
		record    *recordDomain.Record
		signature *dossierDomain.DocumentSignature
	}
	items := make([]item, 0)
	seen := make(map[uuid.UUID]struct{})
	add := func(record *recordDomain.Record, signature *dossierDomain.DocumentSignature) error {
		if _, dup := seen[record.ID]; dup {
			return nil
		}
		if len(items) >= u.opts.MaxRecords {
			return apperrors.Wrapf(apperrors.ErrInvalidInput, "dossier exceeds %d records", u.opts.MaxRecords)
		}
		seen[record.ID] = struct{}{}
		items = append(items, item{record: u.records.Open(record), signature: signature})
		return nil
	}

	query := recordUsecase.RangeFilter{
		RangeQuery: recordDomain.RangeQuery{
			TenantID:       dossier.TenantID,
			Kinds:          dossier.Filter.Kinds,
			From:           dossier.From,
			To:             dossier.To,
			IdentityDigest: dossier.Filter.IdentityDigest,
			SourceIPDigest: dossier.Filter.SourceIPDigest,
			Limit:          u.opts.PageSize,
		},
	}
	for {
		page, err := u.records.RangeSealed(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, record := range page.Records {
			signature, err := u.liveSignature(ctx, record)
			if err != nil {
				return nil, err
			}
			if err := add(record, signature); err != nil {
				return nil, err
			}
		}
		if page.Next == nil {
			break
		}
		query.After = page.Next
	}

	if u.archives != nil {
		archived, err := u.archives.ReadArchived(ctx, retentionDomain.IndexQuery{
			TenantID:       dossier.TenantID,
			Kinds:          dossier.Filter.Kinds,
			From:           dossier.From,
			To:             dossier.To,
			IdentityDigest: dossier.Filter.IdentityDigest,
		})
		if err != nil {
			return nil, err
		}
		for _, entry := range archived {
			if dossier.Filter.SourceIPDigest != "" && entry.Record.SourceIPDigest != dossier.Filter.SourceIPDigest {
				continue
			}
			if err := add(entry.Record, archivedSignature(entry.Signature)); err != nil {
				return nil, err
			}
		}
	}

	slices.SortFunc(items, func(a, b item) int {
		if c := a.record.EntryTime.Compare(b.record.EntryTime); c != 0 {
			return c
		}
		return slices.Compare(a.record.ID[:], b.record.ID[:])
	})

	kinds := make([]string, len(dossier.Filter.Kinds))
	for i, k := range dossier.Filter.Kinds {
		kinds[i] = string(k)
	}
	doc := &dossierDomain.Document{
		Dossier: dossierDomain.DocumentHeader{
			From:          dossierDomain.FormatTime(dossier.From),
			GeneratedFor:  dossierDomain.FormatTime(dossier.To),
			ID:            dossier.ID.String(),
			Kinds:         kinds,
			RecordCount:   len(items),
			RequestNumber: dossier.RequestNumber,
			TenantID:      dossier.TenantID.String(),
			TenantName:    tenant.DisplayName,
			To:            dossierDomain.FormatTime(dossier.To),
			Type:          string(dossier.Type),
		},
		Records: make([]dossierDomain.DocumentRecord, 0, len(items)),
	}
	for _, it := range items {
		payload, err := payloadMap(it.record)
		if err != nil {
			return nil, err
		}
		if it.signature != nil && it.signature.Serial != "" {
			doc.Dossier.SignatureCount++
		}
		doc.Records = append(doc.Records, dossierDomain.DocumentRecord{
			ContentHash: it.record.ContentHash,
			EntryTime:   dossierDomain.FormatTime(it.record.EntryTime),
			ID:          it.record.ID.String(),
			Kind:        string(it.record.Kind),
			Payload:     payload,
			Signature:   it.signature,
			Suspicious:  it.record.Suspicious,
		})
	}
	return doc, nil
}

func (u *dossierUseCase) liveSignature(
	ctx context.Context,
	record *recordDomain.Record,
) (*dossierDomain.DocumentSignature, error) {
	signature, err := u.signer.LatestForSubject(ctx, record.TenantID, record.ID)
	if err != nil {
		if errors.Is(err, signingDomain.ErrSignatureNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := &dossierDomain.DocumentSignature{
		HashAlgorithm: signature.HashAlgorithm,
		Serial:        signature.Serial,
		Status:        string(signature.Status),
		TSA:           signature.TSA,
		TokenHash:     signature.TokenHash,
	}
	if signature.SignedAt != nil {
		out.SignedAt = dossierDomain.FormatTime(*signature.SignedAt)
	}
	return out, nil
}

func archivedSignature(s *retentionService.ArchivedSignature) *dossierDomain.DocumentSignature {
	if s == nil {
		return nil
	}
	return &dossierDomain.DocumentSignature{
		HashAlgorithm: s.HashAlgorithm,
		Serial:        s.Serial,
		SignedAt:      s.SignedAt,
		Status:        s.Status,
		TSA:           s.TSA,
		TokenHash:     s.TokenHash,
	}
}

// payloadMap turns the typed payload into a generic map so the document
// encodes with sorted keys.
func payloadMap(record *recordDomain.Record) (map[string]any, error) {
	raw, err := record.MarshalPayload()
	if err != nil {
		return nil, apperrors.Wrapf(err, "record %s", record.ID)
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.Wrapf(err, "record %s", record.ID)
	}
	return payload, nil
}

// bind writes the detached signature binding of a frozen dossier and
// returns the signature status it recorded.
func (u *dossierUseCase) bind(ctx context.Context, dossier *dossierDomain.Dossier) (string, error) {
	if dossier.SignatureID == nil {
		return "", nil
	}
	signature, err := u.signer.Get(ctx, dossier.TenantID, *dossier.SignatureID)
	if err != nil {
		return "", err
	}
	binding := dossierDomain.SignatureBinding{
		DossierID:   dossier.ID.String(),
		SHA256:      dossier.SHA256,
		SignatureID: signature.ID.String(),
		Serial:      signature.Serial,
		Status:      string(signature.Status),
		Token:       signature.Token,
	}
	raw, err := json.MarshalIndent(binding, "", "  ")
	if err != nil {
		return "", err
	}
	key := dossierDomain.SignatureKeyFor(dossier.TenantID, dossier.RequestNumber)
	err = u.storage.Put(ctx, key, func(w io.Writer) error {
		_, err := w.Write(raw)
		return err
	})
	if err != nil {
		return "", err
	}
	return binding.Status, nil
}

func (u *dossierUseCase) boundStatus(ctx context.Context, dossier *dossierDomain.Dossier) string {
	rc, err := u.storage.Open(ctx, dossierDomain.SignatureKeyFor(dossier.TenantID, dossier.RequestNumber))
	if err != nil {
		return ""
	}
	defer func() {
		_ = rc.Close()
	}()
	var binding dossierDomain.SignatureBinding
	if err := json.NewDecoder(rc).Decode(&binding); err != nil {
		return ""
	}
	return binding.Status
}

func (u *dossierUseCase) Get(ctx context.Context, tenantID, dossierID uuid.UUID) (*dossierDomain.Dossier, error) {
	return u.dossiers.Get(ctx, tenantID, dossierID)
}

func (u *dossierUseCase) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status dossierDomain.Status,
	offset, limit int,
) ([]*dossierDomain.Dossier, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown dossier status %q", status)
	}
	return u.dossiers.List(ctx, tenantID, status, offset, limit)
}

func (u *dossierUseCase) ListAudit(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) ([]*dossierDomain.AuditEntry, error) {
	if _, err := u.dossiers.Get(ctx, tenantID, dossierID); err != nil {
		return nil, err
	}
	return u.audit.List(ctx, tenantID, dossierID)
}

func (u *dossierUseCase) VerifyAudit(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (*AuditReport, error) {
	if u.opts.AuditSigner == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "audit signing is not configured")
	}

	entries, err := u.ListAudit(ctx, tenantID, dossierID)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{}
	for _, entry := range entries {
		report.Checked++
		if len(entry.Signature) == 0 {
			report.Unsigned++
			continue
		}
		if err := u.opts.AuditSigner.Verify(entry); err != nil {
			report.Invalid++
			u.logger.Error("dossier audit entry signature mismatch",
				slog.String("tenant_id", tenantID.String()),
				slog.String("dossier_id", dossierID.String()),
				slog.String("entry_id", entry.ID.String()),
			)
			continue
		}
		report.Valid++
	}

	if report.Invalid > 0 && u.alerts != nil {
		event := alertDomain.NewEvent(
			alertDomain.EventDossierTampered,
			tenantID,
			alertDomain.SeverityCritical,
			"Dossier audit trail signature mismatch",
		)
		event.Fields["dossier_id"] = dossierID.String()
		event.Fields["invalid_entries"] = report.Invalid
		u.alerts.Publish(context.WithoutCancel(ctx), event)
	}
	return report, nil
}

func (u *dossierUseCase) ListAccesses(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	offset, limit int,
) ([]*dossierDomain.Access, error) {
	if _, err := u.dossiers.Get(ctx, tenantID, dossierID); err != nil {
		return nil, err
	}
	return u.accesses.List(ctx, tenantID, dossierID, offset, limit)
}

func (u *dossierUseCase) RecordAccess(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Access, error) {
	_, access, err := u.access(ctx, tenantID, dossierID, input)
	return access, err
}

func (u *dossierUseCase) Open(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Dossier, io.ReadCloser, error) {
	dossier, _, err := u.access(ctx, tenantID, dossierID, input)
	if err != nil {
		return nil, nil, err
	}
	rc, err := u.storage.Open(ctx, dossier.ArtifactKey)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to open dossier artifact")
	}
	return dossier, rc, nil
}

// access appends the access row of a frozen dossier.
func (u *dossierUseCase) access(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Dossier, *dossierDomain.Access, error) {
	if !input.Kind.Valid() {
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown access kind %q", input.Kind)
	}
	if input.OperatorID == uuid.Nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "operator is required")
	}
	if input.PagesViewed < 0 || input.Duration < 0 {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "pages viewed and duration must not be negative")
	}

	dossier, err := u.dossiers.Get(ctx, tenantID, dossierID)
	if err != nil {
		return nil, nil, err
	}
	if !dossier.Frozen() {
		return nil, nil, dossierDomain.ErrNoArtifact
	}

	access := &dossierDomain.Access{
		ID:          uuid.Must(uuid.NewV7()),
		DossierID:   dossier.ID,
		TenantID:    dossier.TenantID,
		OperatorID:  input.OperatorID,
		Kind:        input.Kind,
		SourceIP:    input.SourceIP,
		SessionID:   input.SessionID,
		PagesViewed: input.PagesViewed,
		Duration:    input.Duration,
		At:          u.now().UTC(),
	}
	if err := u.accesses.Append(ctx, access); err != nil {
		return nil, nil, err
	}
	return dossier, access, nil
}

func (u *dossierUseCase) ContentHash(ctx context.Context, tenantID, dossierID uuid.UUID) (string, error) {
	dossier, err := u.dossiers.Get(ctx, tenantID, dossierID)
	if err != nil {
		return "", err
	}
	if !dossier.Frozen() {
		return "", dossierDomain.ErrNoArtifact
	}
	return u.hashArtifact(ctx, dossier)
}

func (u *dossierUseCase) hashArtifact(ctx context.Context, dossier *dossierDomain.Dossier) (string, error) {
	rc, err := u.storage.Open(ctx, dossier.ArtifactKey)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to open dossier artifact")
	}
	defer func() {
		_ = rc.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", apperrors.Wrap(err, "failed to read dossier artifact")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (u *dossierUseCase) VerifyIntegrity(ctx context.Context, tenantID, dossierID uuid.UUID) error {
	dossier, err := u.dossiers.Get(ctx, tenantID, dossierID)
	if err != nil {
		return err
	}
	if !dossier.Frozen() {
		return dossierDomain.ErrNoArtifact
	}
	return u.verify(ctx, dossier)
}

func (u *dossierUseCase) verify(ctx context.Context, dossier *dossierDomain.Dossier) error {
	actual, err := u.hashArtifact(ctx, dossier)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if err == nil && actual == dossier.SHA256 {
		return nil
	}

	u.logger.Error("dossier artifact tampered",
		slog.String("tenant_id", dossier.TenantID.String()),
		slog.String("dossier_id", dossier.ID.String()),
		slog.String("expected", dossier.SHA256),
		slog.String("actual", actual),
	)
	if u.alerts != nil {
		event := alertDomain.NewEvent(
			alertDomain.EventDossierTampered,
			dossier.TenantID,
			alertDomain.SeverityCritical,
			"Dossier artifact does not match its recorded hash",
		)
		event.Fields["dossier_id"] = dossier.ID.String()
		event.Fields["request_number"] = dossier.RequestNumber
		event.Fields["expected_sha256"] = dossier.SHA256
		event.Fields["actual_sha256"] = actual
		event.OccurredAt = u.now().UTC()
		u.alerts.Publish(context.WithoutCancel(ctx), event)
	}
	return dossierDomain.ErrArtifactTampered
}

func (u *dossierUseCase) SweepIntegrity(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}
	for offset := 0; ; offset += sweepPageSize {
		dossiers, err := u.dossiers.ListFrozen(ctx, offset, sweepPageSize)
		if err != nil {
			return report, err
		}
		for _, dossier := range dossiers {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Checked++
			if err := u.verify(ctx, dossier); err != nil {
				if errors.Is(err, dossierDomain.ErrArtifactTampered) {
					report.Tampered++
				} else {
					report.Errors++
				}
				continue
			}
			if dossier.SignatureID == nil {
				continue
			}
			signature, err := u.signer.Get(ctx, dossier.TenantID, *dossier.SignatureID)
			if err != nil {
				report.Errors++
				continue
			}
			if string(signature.Status) == u.boundStatus(ctx, dossier) {
				continue
			}
			if _, err := u.bind(ctx, dossier); err != nil {
				report.Errors++
				continue
			}
			report.Rebound++
		}
		if len(dossiers) < sweepPageSize {
			break
		}
	}

	u.logger.Info("dossier integrity sweep finished",
		slog.Int("checked", report.Checked),
		slog.Int("tampered", report.Tampered),
		slog.Int("rebound", report.Rebound),
		slog.Int("errors", report.Errors),
	)
	return report, nil
}

// NewDossierUseCase creates the evidence report builder. archives and alerts
// may be nil.
func NewDossierUseCase(
	txManager database.TxManager,
	dossiers DossierRepository,
	audit AuditRepository,
	accesses AccessRepository,
	records RecordSource,
	archives ArchiveReader,
	signer Signer,
	digester Digester,
	tenants TenantLookup,
	storage retentionService.Storage,
	alerts AlertPublisher,
	pipeline metrics.PipelineMetrics,
	opts Options,
	logger *slog.Logger,
) DossierUseCase {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = defaultMaxRecords
	}
	if pipeline == nil {
		pipeline = metrics.NewNoOpPipelineMetrics()
	}
	return &dossierUseCase{
		txManager: txManager,
		dossiers:  dossiers,
		audit:     audit,
		accesses:  accesses,
		records:   records,
		archives:  archives,
		signer:    signer,
		digester:  digester,
		tenants:   tenants,
		storage:   storage,
		alerts:    alerts,
		pipeline:  pipeline,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}
