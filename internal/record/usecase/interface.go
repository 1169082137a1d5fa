// Package usecase implements the append-only record store: per-tenant
// monotonic entry times, field protection, keyed index digests and the
// pending signature written in the same transaction as the record.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// RecordRepository persists sealed records. Records passed in and returned
// carry ciphertext in protected fields.
type RecordRepository interface {
	// Append inserts a record. A duplicate (tenant, idempotency key) yields ErrConflict.
	Append(ctx context.Context, record *recordDomain.Record) error

	// LastEntryTime returns the newest entry time of the tenant, or the zero time.
	LastEntryTime(ctx context.Context, tenantID uuid.UUID) (time.Time, error)

	GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*recordDomain.Record, error)

	Get(ctx context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error)

	// Range returns up to q.Limit records in (entry_time, id) order strictly
	// after q.After. Only the digest filters of q are consulted.
	Range(ctx context.Context, q recordDomain.RangeQuery) ([]*recordDomain.Record, error)

	// LatestDeviceSession returns the newest non-suspicious session record for
	// the device digest with entry_time >= since.
	LatestDeviceSession(
		ctx context.Context,
		tenantID uuid.UUID,
		macDigest string,
		since time.Time,
	) (*recordDomain.Record, error)

	RevokeDevice(ctx context.Context, revocation *recordDomain.DeviceRevocation) error

	// LatestDeviceRevocation returns nil when the device was never revoked.
	LatestDeviceRevocation(ctx context.Context, tenantID uuid.UUID, macDigest string) (*time.Time, error)

	MarkArchived(ctx context.Context, tenantID uuid.UUID, recordIDs []uuid.UUID, at time.Time) error

	Delete(ctx context.Context, tenantID, recordID uuid.UUID) error
}

// TenantLookup resolves tenants for append and retention checks.
type TenantLookup interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)
}

// SignatureEnqueuer creates the pending signature of a new record. It runs
// inside the append transaction.
type SignatureEnqueuer interface {
	EnqueueRecord(ctx context.Context, record *recordDomain.Record) error
}

// Observer is notified after a record is durable. Observers must not block.
type Observer interface {
	RecordCommitted(ctx context.Context, record *recordDomain.Record)
}

// RecordUseCase is the only component allowed to write records.
type RecordUseCase interface {
	// Append assigns id, entry time and content hash, then persists the
	// record together with its pending signature. Returns the plaintext view.
	// Replaying an idempotency key returns the prior record.
	Append(ctx context.Context, input *recordDomain.AppendInput) (*recordDomain.Record, error)

	// Get returns the record with protected fields decrypted.
	Get(ctx context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error)

	// Range returns one page of decrypted records. Identity and source IP
	// filters are given in plaintext and digested here.
	Range(ctx context.Context, q RangeFilter) (*recordDomain.Page, error)

	// RangeSealed is Range without decryption, for archival.
	RangeSealed(ctx context.Context, q RangeFilter) (*recordDomain.Page, error)

	// Open decrypts the protected fields of a sealed record.
	Open(record *recordDomain.Record) *recordDomain.Record

	// RecentDeviceMatch returns the newest non-suspicious session of the
	// device within the window, or ErrRecordNotFound.
	RecentDeviceMatch(
		ctx context.Context,
		tenantID uuid.UUID,
		macSurrogate string,
		within time.Duration,
	) (*recordDomain.Record, error)

	// RevokeDevice closes the remember-device window for the device.
	RevokeDevice(ctx context.Context, tenantID uuid.UUID, macSurrogate string) error

	// ContentHash recomputes the hash from the currently decrypted fields.
	ContentHash(ctx context.Context, tenantID, recordID uuid.UUID) (string, error)

	MarkArchived(ctx context.Context, tenantID uuid.UUID, recordIDs []uuid.UUID, at time.Time) error

	// Purge physically removes a record. It refuses with ErrRetentionNotElapsed
	// while the record is younger than minRetention or the tenant's retention.
	Purge(ctx context.Context, tenantID, recordID uuid.UUID, minRetention time.Duration, now time.Time) error
}

// RangeFilter is a RangeQuery with plaintext identity and source IP.
type RangeFilter struct {
	recordDomain.RangeQuery
	Identity string
	SourceIP string
}
