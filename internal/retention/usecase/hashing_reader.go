package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// hashingReader hashes everything read through it.
type hashingReader struct {
	r   io.Reader
	sum hash.Hash
}

func newHashingReader(r io.Reader) *hashingReader {
	h := sha256.New()
	return &hashingReader{r: io.TeeReader(r, h), sum: h}
}

func (h *hashingReader) Read(p []byte) (int, error) {
	return h.r.Read(p)
}

// finish drains the rest of the stream and returns the hex digest, or ""
// when draining fails.
func (h *hashingReader) finish() string {
	if _, err := io.Copy(io.Discard, h.r); err != nil {
		return ""
	}
	return hex.EncodeToString(h.sum.Sum(nil))
}
