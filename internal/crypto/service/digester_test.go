package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigester(t *testing.T) {
	secret := randomKey(t)
	d := NewDigester(secret)

	a := d.Digest("tenant-a", "10000000146")
	assert.Len(t, a, 64)
	assert.Equal(t, a, d.Digest("tenant-a", "10000000146"), "deterministic")
	assert.NotEqual(t, a, d.Digest("tenant-b", "10000000146"), "tenant scoped")
	assert.NotEqual(t, a, d.Digest("tenant-a", "10000000147"))
	assert.NotContains(t, a, "10000000146")
	assert.Empty(t, d.Digest("tenant-a", ""))

	assert.Equal(t,
		d.Digest("tenant-a", "\u00c7elik"),
		d.Digest("tenant-a", "C\u0327elik"),
		"NFC normalized",
	)

	assert.NotEqual(t, a, NewDigester(randomKey(t)).Digest("tenant-a", "10000000146"), "keyed")
}

func TestDeriveKey(t *testing.T) {
	secret := randomKey(t)
	a := DeriveKey(secret, "label-a")
	assert.Len(t, a, 32)
	assert.Equal(t, a, DeriveKey(secret, "label-a"))
	assert.NotEqual(t, a, DeriveKey(secret, "label-b"))
}
