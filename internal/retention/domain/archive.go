package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// JobStatus is the state of an archive run.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ArchiveJob describes one archive blob. SHA256 is the authoritative
// identifier of the blob content.
type ArchiveJob struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Kind        recordDomain.Kind
	Status      JobStatus
	Backend     BackendKind
	BlobKey     string
	Size        int64
	SHA256      string
	RecordCount int
	FirstEntry  *time.Time
	LastEntry   *time.Time
	Compressed  bool
	Encrypted   bool
	Dek         *cryptoDomain.Dek
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewArchiveJob starts a job for the policy.
func NewArchiveJob(policy *Policy, now time.Time) *ArchiveJob {
	id := uuid.Must(uuid.NewV7())
	return &ArchiveJob{
		ID:         id,
		TenantID:   policy.TenantID,
		Kind:       policy.Kind,
		Status:     JobRunning,
		Backend:    policy.Backend,
		BlobKey:    BlobKey(policy.TenantID, policy.Kind, id, policy.Compress, policy.Encrypt),
		Compressed: policy.Compress,
		Encrypted:  policy.Encrypt,
		StartedAt:  now,
	}
}

// Complete records the finalized blob.
func (j *ArchiveJob) Complete(size int64, sha256 string, now time.Time) {
	j.Status = JobCompleted
	j.Size = size
	j.SHA256 = sha256
	j.CompletedAt = &now
}

// Fail records why the run stopped.
func (j *ArchiveJob) Fail(err error, now time.Time) {
	j.Status = JobFailed
	j.Error = err.Error()
	j.CompletedAt = &now
}

// Include widens the entry-time span of the job by one record.
func (j *ArchiveJob) Include(entryTime time.Time) {
	j.RecordCount++
	if j.FirstEntry == nil {
		at := entryTime
		j.FirstEntry = &at
	}
	at := entryTime
	j.LastEntry = &at
}

// BlobKey is <tenant>/<kind>/<job>.tla with .zst and .enc suffixes for the
// compression and encryption layers.
func BlobKey(tenantID uuid.UUID, kind recordDomain.Kind, jobID uuid.UUID, compressed, encrypted bool) string {
	key := fmt.Sprintf("%s/%s/%s.tla", tenantID, kind, jobID)
	if compressed {
		key += ".zst"
	}
	if encrypted {
		key += ".enc"
	}
	return key
}

// IndexEntry locates a record inside an archive blob.
type IndexEntry struct {
	JobID          uuid.UUID
	TenantID       uuid.UUID
	RecordID       uuid.UUID
	Kind           recordDomain.Kind
	EntryTime      time.Time
	IdentityDigest string
}

// IndexQuery selects index entries of a tenant. Zero fields do not filter.
type IndexQuery struct {
	TenantID       uuid.UUID
	Kinds          []recordDomain.Kind
	From           time.Time
	To             time.Time
	IdentityDigest string
}

// Clone returns a deep copy.
func (j *ArchiveJob) Clone() *ArchiveJob {
	c := *j
	if j.FirstEntry != nil {
		at := *j.FirstEntry
		c.FirstEntry = &at
	}
	if j.LastEntry != nil {
		at := *j.LastEntry
		c.LastEntry = &at
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		c.CompletedAt = &at
	}
	if j.Dek != nil {
		dek := *j.Dek
		dek.EncryptedKey = append([]byte(nil), j.Dek.EncryptedKey...)
		dek.Nonce = append([]byte(nil), j.Dek.Nonce...)
		c.Dek = &dek
	}
	return &c
}
