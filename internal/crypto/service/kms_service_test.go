package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateLocalSecretsURI generates a base64key:// URI for testing.
func generateLocalSecretsURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	t.Run("Success_LocalSecrets", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, keeper.Close())
		}()

		ciphertext, err := keeper.Encrypt(ctx, []byte("hello"))
		require.NoError(t, err)
		plaintext, err := keeper.Decrypt(ctx, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), plaintext)
	})

	t.Run("Error_InvalidURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "invalid://uri")
		assert.Error(t, err)
		assert.Nil(t, keeper)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})
}

func TestLoadContentKey(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	t.Run("Success_Plain", func(t *testing.T) {
		ck, err := LoadContentKey(ctx, kmsService, base64.StdEncoding.EncodeToString(key), "")
		require.NoError(t, err)
		assert.Equal(t, key, ck.Bytes())
	})

	t.Run("Success_KMSWrapped", func(t *testing.T) {
		keyURI := generateLocalSecretsURI(t)
		keeper, err := kmsService.OpenKeeper(ctx, keyURI)
		require.NoError(t, err)
		wrapped, err := keeper.Encrypt(ctx, key)
		require.NoError(t, err)
		require.NoError(t, keeper.Close())

		ck, err := LoadContentKey(ctx, kmsService, base64.StdEncoding.EncodeToString(wrapped), keyURI)
		require.NoError(t, err)
		assert.Equal(t, key, ck.Bytes())
	})

	t.Run("Error_WrongKMSKey", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		wrapped, err := keeper.Encrypt(ctx, key)
		require.NoError(t, err)
		require.NoError(t, keeper.Close())

		_, err = LoadContentKey(ctx, kmsService, base64.StdEncoding.EncodeToString(wrapped), generateLocalSecretsURI(t))
		assert.Error(t, err)
	})
}
