package service

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

func syslogRecord(tenantID uuid.UUID, at time.Time, message string) *recordDomain.Record {
	record := &recordDomain.Record{
		ID:             uuid.Must(uuid.NewV7()),
		TenantID:       tenantID,
		Kind:           recordDomain.KindSyslog,
		EntryTime:      at,
		SourceIPDigest: "digest-" + message,
		Syslog: &recordDomain.SyslogMessage{
			Facility:    1,
			Severity:    5,
			Timestamp:   at,
			Hostname:    "gw01",
			Message:     message,
			Raw:         "<13>" + message,
			SourceIP:    "c2VhbGVk",
			ThreatLevel: recordDomain.ThreatLow,
		},
	}
	record.ContentHash = record.ComputeHash()
	return record
}

func testAEAD(t *testing.T) cryptoService.AEAD {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	aead, err := cryptoService.NewAESGCM(key)
	require.NoError(t, err)
	return aead
}

func writeArchive(t *testing.T, layers Layers, records []*recordDomain.Record, signatures []*signingDomain.Signature) ([]byte, *ArchiveWriter) {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewArchiveWriter(&buf, layers)
	require.NoError(t, err)
	for i, record := range records {
		require.NoError(t, w.Write(record, signatures[i]))
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w
}

func readAll(t *testing.T, blob []byte, layers Layers) ([]*Entry, error) {
	t.Helper()
	r, err := NewArchiveReader(bytes.NewReader(blob), layers)
	require.NoError(t, err)
	defer r.Close()

	var entries []*Entry
	for {
		entry, err := r.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

func TestArchivePipeline(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	records := make([]*recordDomain.Record, 0, 300)
	signatures := make([]*signingDomain.Signature, 0, 300)
	for i := range 300 {
		record := syslogRecord(tenantID, base.Add(time.Duration(i)*time.Microsecond), fmt.Sprintf("message %d %x", i, make([]byte, 400)))
		records = append(records, record)
		if i%3 == 0 {
			signatures = append(signatures, nil)
			continue
		}
		signature := signingDomain.NewPending(tenantID, signingDomain.SubjectSyslog, record.ID, base)
		signature.Status = signingDomain.StatusVerified
		signature.Serial = fmt.Sprintf("serial-%d", i)
		signature.Token = []byte("token")
		signatures = append(signatures, signature)
	}

	aead := testAEAD(t)
	jobID := uuid.Must(uuid.NewV7())

	cases := map[string]Layers{
		"plain":              {},
		"compressed":         {Compress: true},
		"encrypted":          {AEAD: aead, AADPrefix: jobID[:]},
		"compressed+encrypt": {Compress: true, AEAD: aead, AADPrefix: jobID[:]},
	}
	for name, layers := range cases {
		t.Run(name, func(t *testing.T) {
			blob, w := writeArchive(t, layers, records, signatures)
			assert.Equal(t, int64(len(blob)), w.Size())

			sum, size, err := HashReader(bytes.NewReader(blob))
			require.NoError(t, err)
			assert.Equal(t, w.SHA256(), sum)
			assert.Equal(t, w.Size(), size)

			entries, err := readAll(t, blob, layers)
			require.NoError(t, err)
			require.Len(t, entries, len(records))
			for i, entry := range entries {
				assert.Equal(t, records[i].ID, entry.Record.ID)
				assert.Equal(t, records[i].ContentHash, entry.Record.ComputeHash())
				assert.True(t, records[i].EntryTime.Equal(entry.Record.EntryTime))
				assert.Equal(t, records[i].SourceIPDigest, entry.Record.SourceIPDigest)
				if signatures[i] == nil {
					assert.Nil(t, entry.Signature)
				} else {
					require.NotNil(t, entry.Signature)
					assert.Equal(t, signatures[i].Serial, entry.Signature.Serial)
					assert.Equal(t, "verified", entry.Signature.Status)
				}
			}
		})
	}

	t.Run("compression shrinks repetitive content", func(t *testing.T) {
		plain, _ := writeArchive(t, Layers{}, records, signatures)
		compressed, _ := writeArchive(t, Layers{Compress: true}, records, signatures)
		assert.Less(t, len(compressed), len(plain))
	})

	t.Run("empty archive", func(t *testing.T) {
		layers := Layers{Compress: true, AEAD: aead, AADPrefix: jobID[:]}
		blob, _ := writeArchive(t, layers, nil, nil)
		entries, err := readAll(t, blob, layers)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestArchivePipeline_Tampering(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var (
		records    []*recordDomain.Record
		signatures []*signingDomain.Signature
	)
	for i := range 200 {
		records = append(records, syslogRecord(tenantID, base.Add(time.Duration(i)*time.Second), fmt.Sprintf("%d %x", i, make([]byte, 1024))))
		signatures = append(signatures, nil)
	}

	aead := testAEAD(t)
	jobID := uuid.Must(uuid.NewV7())
	layers := Layers{AEAD: aead, AADPrefix: jobID[:]}
	blob, _ := writeArchive(t, layers, records, signatures)
	require.Greater(t, len(blob), 2*sealChunkSize)

	t.Run("flipped byte", func(t *testing.T) {
		tampered := bytes.Clone(blob)
		tampered[len(tampered)/2] ^= 0x01
		_, err := readAll(t, tampered, layers)
		assert.True(t, apperrors.Is(err, retentionDomain.ErrArchiveCorrupt))
	})

	t.Run("truncated before final chunk", func(t *testing.T) {
		_, err := readAll(t, blob[:sealChunkSize], layers)
		assert.True(t, apperrors.Is(err, retentionDomain.ErrArchiveCorrupt))
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := readAll(t, append(bytes.Clone(blob), 0x00), layers)
		assert.True(t, apperrors.Is(err, retentionDomain.ErrArchiveCorrupt))
	})

	t.Run("other archive prefix", func(t *testing.T) {
		other := uuid.Must(uuid.NewV7())
		_, err := readAll(t, blob, Layers{AEAD: aead, AADPrefix: other[:]})
		assert.True(t, apperrors.Is(err, retentionDomain.ErrArchiveCorrupt))
	})

	t.Run("not a container", func(t *testing.T) {
		_, err := readAll(t, []byte("garbage"), Layers{})
		assert.True(t, apperrors.Is(err, retentionDomain.ErrArchiveCorrupt))
	})
}
