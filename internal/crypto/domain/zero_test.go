package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("SeveralKeys", func(t *testing.T) {
		contentKey := bytes.Repeat([]byte{0xab}, 32)
		dek := bytes.Repeat([]byte{0xcd}, 32)

		Zero(contentKey, dek)

		assert.Equal(t, make([]byte, 32), contentKey)
		assert.Equal(t, make([]byte, 32), dek)
	})

	t.Run("NilAndEmpty", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil, []byte{}) })
		assert.NotPanics(t, func() { Zero() })
	})
}
