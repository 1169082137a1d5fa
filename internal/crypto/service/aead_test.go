package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestCipherFactory_CreateCipher(t *testing.T) {
	manager := NewAEADManager()
	key := randomKey(t)

	t.Run("create AES-GCM cipher", func(t *testing.T) {
		aead, err := manager.CreateCipher(key, cryptoDomain.AESGCM)
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.AESGCM, aead.(*Sealer).Algorithm())
		assert.Equal(t, 16, aead.NonceSize())
	})

	t.Run("create XChaCha20-Poly1305 cipher", func(t *testing.T) {
		aead, err := manager.CreateCipher(key, cryptoDomain.ChaCha20)
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.ChaCha20, aead.(*Sealer).Algorithm())
		assert.Equal(t, 24, aead.NonceSize())
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := manager.CreateCipher(key, cryptoDomain.Algorithm("rot13"))
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})

	t.Run("invalid key sizes", func(t *testing.T) {
		for _, size := range []int{0, 16, 31, 33} {
			_, err := manager.CreateCipher(make([]byte, size), cryptoDomain.AESGCM)
			assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize, "size %d", size)
		}
	})
}

func TestAEAD_RoundTrip(t *testing.T) {
	manager := NewAEADManager()

	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte("10000000146"),
		{0x00, 0xff, 0x10, 0x80},
		make([]byte, 64*1024),
	}

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			aead, err := manager.CreateCipher(randomKey(t), alg)
			require.NoError(t, err)

			for _, in := range inputs {
				ct, nonce, err := aead.Encrypt(in, []byte("aad"))
				require.NoError(t, err)
				out, err := aead.Decrypt(ct, nonce, []byte("aad"))
				require.NoError(t, err)
				assert.Equal(t, len(in), len(out))
				if len(in) > 0 {
					assert.Equal(t, in, out)
				}
			}

			ct, nonce, err := aead.Encrypt([]byte("secret"), []byte("aad"))
			require.NoError(t, err)

			_, err = aead.Decrypt(ct, nonce, []byte("other"))
			assert.Error(t, err, "wrong AAD must fail")

			_, err = aead.Decrypt(ct, nonce[:len(nonce)-1], []byte("aad"))
			assert.Error(t, err, "short nonce must fail")

			ct[0] ^= 0x01
			_, err = aead.Decrypt(ct, nonce, []byte("aad"))
			assert.Error(t, err, "tampered ciphertext must fail")
		})
	}
}

func TestAEAD_NonceUniqueness(t *testing.T) {
	aead, err := NewAESGCM(randomKey(t))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for range 1000 {
		_, nonce, err := aead.Encrypt([]byte("x"), nil)
		require.NoError(t, err)
		assert.False(t, seen[string(nonce)])
		seen[string(nonce)] = true
	}
}

func TestSealer_AlgorithmsAreNotInterchangeable(t *testing.T) {
	key := randomKey(t)
	gcm, err := NewAESGCM(key)
	require.NoError(t, err)
	xchacha, err := NewXChaCha20(key)
	require.NoError(t, err)

	ct, nonce, err := xchacha.Encrypt([]byte("archive blob"), nil)
	require.NoError(t, err)
	_, err = gcm.Decrypt(ct, nonce, nil)
	assert.Error(t, err)
}
