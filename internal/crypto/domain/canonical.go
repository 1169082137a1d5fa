package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Canonical builds the deterministic byte encoding hashed into record
// signatures. Each field is appended as
//
//	len32(name) || name || len32(value) || value
//
// with big-endian lengths. Strings are NFC normalized, integers decimal,
// booleans "true"/"false" and times RFC 3339 UTC truncated to microseconds.
// Absent optional values are encoded as the empty string.
type Canonical struct {
	buf []byte
}

// NewCanonical returns an empty encoder.
func NewCanonical() *Canonical {
	return &Canonical{buf: make([]byte, 0, 256)}
}

func (c *Canonical) append(name string, value []byte) *Canonical {
	c.buf = binary.BigEndian.AppendUint32(c.buf, uint32(len(name)))
	c.buf = append(c.buf, name...)
	c.buf = binary.BigEndian.AppendUint32(c.buf, uint32(len(value)))
	c.buf = append(c.buf, value...)
	return c
}

// String appends an NFC-normalized string field.
func (c *Canonical) String(name, value string) *Canonical {
	return c.append(name, norm.NFC.Bytes([]byte(value)))
}

// Int appends a decimal integer field.
func (c *Canonical) Int(name string, value int64) *Canonical {
	return c.append(name, strconv.AppendInt(nil, value, 10))
}

// OptionalInt appends a decimal integer field, or the empty string for nil.
func (c *Canonical) OptionalInt(name string, value *int64) *Canonical {
	if value == nil {
		return c.append(name, nil)
	}
	return c.Int(name, *value)
}

// Bool appends a boolean field.
func (c *Canonical) Bool(name string, value bool) *Canonical {
	return c.append(name, strconv.AppendBool(nil, value))
}

// Time appends a time field, or the empty string for the zero time.
func (c *Canonical) Time(name string, value time.Time) *Canonical {
	if value.IsZero() {
		return c.append(name, nil)
	}
	return c.append(name, []byte(FormatTime(value)))
}

// Bytes returns the encoding built so far.
func (c *Canonical) Bytes() []byte {
	return c.buf
}

// Sum returns the hex encoded SHA-256 of the encoding.
func (c *Canonical) Sum() string {
	return SHA256Hex(c.buf)
}

// FormatTime renders t as RFC 3339 UTC with microsecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format("2006-01-02T15:04:05.000000Z07:00")
}

// SHA256Hex returns the hex encoded SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
