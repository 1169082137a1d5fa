package service

import (
	"encoding/binary"
	"errors"
	"io"

	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

// sealChunkSize is the plaintext size of every chunk but the last.
const sealChunkSize = 64 << 10

const (
	chunkMore  byte = 0
	chunkFinal byte = 1
)

// chunkAAD binds a chunk to its archive, position and finality so chunks
// cannot be reordered, spliced across archives or truncated.
func chunkAAD(prefix []byte, index uint64, flag byte) []byte {
	aad := make([]byte, 0, len(prefix)+9)
	aad = append(aad, prefix...)
	aad = binary.BigEndian.AppendUint64(aad, index)
	return append(aad, flag)
}

// sealWriter encrypts a stream in fixed-size chunks. Each chunk is written as
// flag(1) ‖ len(4) ‖ nonce ‖ ciphertext. Close emits the final chunk, which
// may be empty.
type sealWriter struct {
	aead   cryptoService.AEAD
	dst    io.Writer
	prefix []byte
	buf    []byte
	index  uint64
	closed bool
}

// NewSealWriter returns a writer sealing into dst. prefix is mixed into the
// associated data of every chunk.
func NewSealWriter(dst io.Writer, aead cryptoService.AEAD, prefix []byte) io.WriteCloser {
	return &sealWriter{aead: aead, dst: dst, prefix: prefix, buf: make([]byte, 0, sealChunkSize)}
}

func (s *sealWriter) Write(p []byte) (int, error) {
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	written := 0
	for len(p) > 0 {
		n := min(sealChunkSize-len(s.buf), len(p))
		s.buf = append(s.buf, p[:n]...)
		p = p[n:]
		written += n
		if len(s.buf) == sealChunkSize && len(p) > 0 {
			if err := s.seal(chunkMore); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (s *sealWriter) seal(flag byte) error {
	ciphertext, nonce, err := s.aead.Encrypt(s.buf, chunkAAD(s.prefix, s.index, flag))
	if err != nil {
		return err
	}
	header := make([]byte, 5)
	header[0] = flag
	binary.BigEndian.PutUint32(header[1:], uint32(len(ciphertext)))
	for _, part := range [][]byte{header, nonce, ciphertext} {
		if _, err := s.dst.Write(part); err != nil {
			return err
		}
	}
	s.index++
	s.buf = s.buf[:0]
	return nil
}

func (s *sealWriter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.seal(chunkFinal)
}

// openReader reverses sealWriter. A stream ending before the final chunk, or
// with data after it, is corrupt.
type openReader struct {
	aead   cryptoService.AEAD
	src    io.Reader
	prefix []byte
	plain  []byte
	index  uint64
	done   bool
}

// NewOpenReader returns a reader decrypting a stream written by a seal writer
// with the same prefix.
func NewOpenReader(src io.Reader, aead cryptoService.AEAD, prefix []byte) io.Reader {
	return &openReader{aead: aead, src: src, prefix: prefix}
}

func (o *openReader) Read(p []byte) (int, error) {
	for len(o.plain) == 0 {
		if o.done {
			return 0, io.EOF
		}
		if err := o.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, o.plain)
	o.plain = o.plain[n:]
	return n, nil
}

func (o *openReader) next() error {
	header := make([]byte, 5)
	if _, err := io.ReadFull(o.src, header); err != nil {
		return retentionDomain.ErrArchiveCorrupt
	}
	flag := header[0]
	if flag != chunkMore && flag != chunkFinal {
		return retentionDomain.ErrArchiveCorrupt
	}
	size := binary.BigEndian.Uint32(header[1:])
	if size > sealChunkSize+64 {
		return retentionDomain.ErrArchiveCorrupt
	}

	nonce := make([]byte, o.aead.NonceSize())
	if _, err := io.ReadFull(o.src, nonce); err != nil {
		return retentionDomain.ErrArchiveCorrupt
	}
	ciphertext := make([]byte, size)
	if _, err := io.ReadFull(o.src, ciphertext); err != nil {
		return retentionDomain.ErrArchiveCorrupt
	}

	plain, err := o.aead.Decrypt(ciphertext, nonce, chunkAAD(o.prefix, o.index, flag))
	if err != nil {
		return retentionDomain.ErrArchiveCorrupt
	}
	o.index++
	o.plain = plain

	if flag == chunkFinal {
		o.done = true
		var extra [1]byte
		if n, err := o.src.Read(extra[:]); n > 0 || (err != nil && !errors.Is(err, io.EOF)) {
			return retentionDomain.ErrArchiveCorrupt
		}
	}
	return nil
}
