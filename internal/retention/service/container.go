// Package service implements the archive container codec, the storage
// backends archive blobs are written to and the per-tenant run locks.
package service

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// containerMagic opens every container.
var containerMagic = []byte("TLA1")

// maxFrameSize bounds a single frame on read.
const maxFrameSize = 16 << 20

// ArchivedRecord is the canonical JSON form of a sealed record. Fields are
// declared in key order so the encoding has sorted keys.
type ArchivedRecord struct {
	ContentHash    string          `json:"content_hash"`
	EntryTime      string          `json:"entry_time"`
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	IdentityDigest string          `json:"identity_digest,omitempty"`
	Kind           string          `json:"kind"`
	MACDigest      string          `json:"mac_digest,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	SourceIPDigest string          `json:"source_ip_digest,omitempty"`
	Suspicious     bool            `json:"suspicious"`
	TenantID       string          `json:"tenant_id"`
}

// ArchivedSignature is the canonical JSON form of a record's signature.
type ArchivedSignature struct {
	HashAlgorithm string `json:"hash_algorithm"`
	ID            string `json:"id"`
	Serial        string `json:"serial,omitempty"`
	SignedAt      string `json:"signed_at,omitempty"`
	Status        string `json:"status"`
	Token         []byte `json:"token,omitempty"`
	TokenHash     string `json:"token_hash,omitempty"`
	TSA           string `json:"tsa,omitempty"`
	VerifiedAt    string `json:"verified_at,omitempty"`
}

// Entry is one record of a container with its signature, which is nil when
// the record had none at archive time.
type Entry struct {
	Record    *recordDomain.Record
	Signature *ArchivedSignature
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// NewArchivedRecord converts a sealed record.
func NewArchivedRecord(record *recordDomain.Record) (*ArchivedRecord, error) {
	payload, err := record.MarshalPayload()
	if err != nil {
		return nil, err
	}
	return &ArchivedRecord{
		ContentHash:    record.ContentHash,
		EntryTime:      formatTime(record.EntryTime),
		ID:             record.ID.String(),
		IdempotencyKey: record.IdempotencyKey,
		IdentityDigest: record.IdentityDigest,
		Kind:           string(record.Kind),
		MACDigest:      record.MACDigest,
		Payload:        payload,
		SourceIPDigest: record.SourceIPDigest,
		Suspicious:     record.Suspicious,
		TenantID:       record.TenantID.String(),
	}, nil
}

// Restore rebuilds the sealed record.
func (a *ArchivedRecord) Restore() (*recordDomain.Record, error) {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(a.TenantID)
	if err != nil {
		return nil, err
	}
	entryTime, err := time.Parse(time.RFC3339Nano, a.EntryTime)
	if err != nil {
		return nil, err
	}
	record := &recordDomain.Record{
		ID:             id,
		TenantID:       tenantID,
		Kind:           recordDomain.Kind(a.Kind),
		EntryTime:      entryTime.UTC(),
		ContentHash:    a.ContentHash,
		Suspicious:     a.Suspicious,
		IdempotencyKey: a.IdempotencyKey,
		IdentityDigest: a.IdentityDigest,
		MACDigest:      a.MACDigest,
		SourceIPDigest: a.SourceIPDigest,
	}
	if err := record.UnmarshalPayload(a.Payload); err != nil {
		return nil, err
	}
	return record, nil
}

// NewArchivedSignature converts a signature; nil stays nil.
func NewArchivedSignature(signature *signingDomain.Signature) *ArchivedSignature {
	if signature == nil {
		return nil
	}
	return &ArchivedSignature{
		HashAlgorithm: signature.HashAlgorithm,
		ID:            signature.ID.String(),
		Serial:        signature.Serial,
		SignedAt:      formatOptionalTime(signature.SignedAt),
		Status:        string(signature.Status),
		Token:         signature.Token,
		TokenHash:     signature.TokenHash,
		TSA:           signature.TSA,
		VerifiedAt:    formatOptionalTime(signature.VerifiedAt),
	}
}

// ContainerWriter writes the magic followed by, per record, a length-prefixed
// record frame and a length-prefixed signature frame ("null" when absent).
type ContainerWriter struct {
	w       *bufio.Writer
	started bool
}

// NewContainerWriter wraps w.
func NewContainerWriter(w io.Writer) *ContainerWriter {
	return &ContainerWriter{w: bufio.NewWriter(w)}
}

// Write appends one record and its signature.
func (c *ContainerWriter) Write(record *recordDomain.Record, signature *signingDomain.Signature) error {
	if !c.started {
		if _, err := c.w.Write(containerMagic); err != nil {
			return err
		}
		c.started = true
	}

	archived, err := NewArchivedRecord(record)
	if err != nil {
		return err
	}
	if err := c.writeFrame(archived); err != nil {
		return err
	}
	return c.writeFrame(NewArchivedSignature(signature))
}

func (c *ContainerWriter) writeFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	if _, err := c.w.Write(size[:]); err != nil {
		return err
	}
	_, err = c.w.Write(data)
	return err
}

// Flush writes the magic of an empty container if needed and flushes buffered frames.
func (c *ContainerWriter) Flush() error {
	if !c.started {
		if _, err := c.w.Write(containerMagic); err != nil {
			return err
		}
		c.started = true
	}
	return c.w.Flush()
}

// ContainerReader reads entries written by ContainerWriter.
type ContainerReader struct {
	r       *bufio.Reader
	started bool
}

// NewContainerReader wraps r.
func NewContainerReader(r io.Reader) *ContainerReader {
	return &ContainerReader{r: bufio.NewReader(r)}
}

// Next returns the next entry or io.EOF after the last one.
func (c *ContainerReader) Next() (*Entry, error) {
	if !c.started {
		magic := make([]byte, len(containerMagic))
		if _, err := io.ReadFull(c.r, magic); err != nil {
			return nil, retentionDomain.ErrArchiveCorrupt
		}
		if string(magic) != string(containerMagic) {
			return nil, retentionDomain.ErrArchiveCorrupt
		}
		c.started = true
	}

	var archived ArchivedRecord
	if err := c.readFrame(&archived, true); err != nil {
		return nil, err
	}
	var signature *ArchivedSignature
	if err := c.readFrame(&signature, false); err != nil {
		return nil, err
	}

	record, err := archived.Restore()
	if err != nil {
		return nil, errors.Join(retentionDomain.ErrArchiveCorrupt, err)
	}
	return &Entry{Record: record, Signature: signature}, nil
}

func (c *ContainerReader) readFrame(v any, eofAllowed bool) error {
	var size [4]byte
	if _, err := io.ReadFull(c.r, size[:]); err != nil {
		if errors.Is(err, io.EOF) && eofAllowed {
			return io.EOF
		}
		return retentionDomain.ErrArchiveCorrupt
	}
	n := binary.BigEndian.Uint32(size[:])
	if n > maxFrameSize {
		return retentionDomain.ErrArchiveCorrupt
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(c.r, data); err != nil {
		return retentionDomain.ErrArchiveCorrupt
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(retentionDomain.ErrArchiveCorrupt, err)
	}
	return nil
}
