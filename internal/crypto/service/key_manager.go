package service

import (
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// dekWrapAAD binds wrapped data keys to their purpose.
var dekWrapAAD = []byte("archive-dek-v1")

// KeyManagerService implements envelope encryption for archive blobs: every
// archive run seals its blob with a fresh data key, and only the data key
// wrapped by the content key is persisted.
type KeyManagerService struct {
	aeadManager AEADManager
}

// NewKeyManager creates a new KeyManagerService.
func NewKeyManager(aeadManager AEADManager) *KeyManagerService {
	return &KeyManagerService{aeadManager: aeadManager}
}

// CreateDek generates a random data key for alg and wraps it with AES-GCM under
// the content key.
func (km *KeyManagerService) CreateDek(
	contentKey *cryptoDomain.ContentKey,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.Dek, []byte, error) {
	if _, err := km.aeadManager.CreateCipher(make([]byte, 32), alg); err != nil {
		return cryptoDomain.Dek{}, nil, err
	}

	dekKey := make([]byte, 32)
	if _, err := rand.Read(dekKey); err != nil {
		return cryptoDomain.Dek{}, nil, fmt.Errorf("failed to generate DEK: %w", err)
	}

	wrapper, err := km.aeadManager.CreateCipher(contentKey.Bytes(), cryptoDomain.AESGCM)
	if err != nil {
		return cryptoDomain.Dek{}, nil, err
	}

	encryptedKey, nonce, err := wrapper.Encrypt(dekKey, dekWrapAAD)
	if err != nil {
		return cryptoDomain.Dek{}, nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	return cryptoDomain.Dek{
		Algorithm:    alg,
		EncryptedKey: encryptedKey,
		Nonce:        nonce,
	}, dekKey, nil
}

// DecryptDek unwraps a data key with the content key.
func (km *KeyManagerService) DecryptDek(
	dek cryptoDomain.Dek,
	contentKey *cryptoDomain.ContentKey,
) ([]byte, error) {
	wrapper, err := km.aeadManager.CreateCipher(contentKey.Bytes(), cryptoDomain.AESGCM)
	if err != nil {
		return nil, err
	}

	dekKey, err := wrapper.Decrypt(dek.EncryptedKey, dek.Nonce, dekWrapAAD)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return dekKey, nil
}
