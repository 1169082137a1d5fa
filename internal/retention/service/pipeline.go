package service

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"

	"github.com/klauspost/compress/zstd"

	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// Layers selects the optional stages of an archive blob. AEAD is nil when
// the blob is not encrypted.
type Layers struct {
	Compress bool
	AEAD     cryptoService.AEAD
	// AADPrefix binds encrypted chunks to the archive, usually the job id.
	AADPrefix []byte
}

// countingWriter counts bytes passed through to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ArchiveWriter streams records through container encoding, zstd and
// chunked encryption into a blob, hashing the bytes that reach the blob.
type ArchiveWriter struct {
	container *ContainerWriter
	zstd      *zstd.Encoder
	sealer    io.WriteCloser
	sum       hash.Hash
	counter   *countingWriter
	closed    bool
}

// NewArchiveWriter writes to dst with the given layers.
func NewArchiveWriter(dst io.Writer, layers Layers) (*ArchiveWriter, error) {
	a := &ArchiveWriter{sum: sha256.New()}
	a.counter = &countingWriter{w: io.MultiWriter(dst, a.sum)}

	var w io.Writer = a.counter
	if layers.AEAD != nil {
		a.sealer = NewSealWriter(w, layers.AEAD, layers.AADPrefix)
		w = a.sealer
	}
	if layers.Compress {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		a.zstd = enc
		w = enc
	}
	a.container = NewContainerWriter(w)
	return a, nil
}

// Write appends a sealed record and its signature.
func (a *ArchiveWriter) Write(record *recordDomain.Record, signature *signingDomain.Signature) error {
	return a.container.Write(record, signature)
}

// Close finalizes every layer. Size and SHA256 are valid afterwards.
func (a *ArchiveWriter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.container.Flush(); err != nil {
		return err
	}
	if a.zstd != nil {
		if err := a.zstd.Close(); err != nil {
			return err
		}
	}
	if a.sealer != nil {
		if err := a.sealer.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Size is the number of bytes written to the blob.
func (a *ArchiveWriter) Size() int64 {
	return a.counter.n
}

// SHA256 is the hex digest of the blob.
func (a *ArchiveWriter) SHA256() string {
	return hex.EncodeToString(a.sum.Sum(nil))
}

// ArchiveReader iterates the entries of a blob.
type ArchiveReader struct {
	container *ContainerReader
	zstd      *zstd.Decoder
}

// NewArchiveReader reads from src with the layers the blob was written with.
func NewArchiveReader(src io.Reader, layers Layers) (*ArchiveReader, error) {
	a := &ArchiveReader{}
	r := src
	if layers.AEAD != nil {
		r = NewOpenReader(r, layers.AEAD, layers.AADPrefix)
	}
	if layers.Compress {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		a.zstd = dec
		r = dec
	}
	a.container = NewContainerReader(r)
	return a, nil
}

// Next returns the next entry or io.EOF.
func (a *ArchiveReader) Next() (*Entry, error) {
	return a.container.Next()
}

// Close releases decoder resources.
func (a *ArchiveReader) Close() {
	if a.zstd != nil {
		a.zstd.Close()
	}
}

// HashReader returns the hex SHA-256 of everything in r.
func HashReader(r io.Reader) (string, int64, error) {
	sum := sha256.New()
	n, err := io.Copy(sum, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(sum.Sum(nil)), n, nil
}
