package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	dossierService "github.com/allisson/trustlog/internal/dossier/service"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() cryptoService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = cryptoService.NewKeyManager(c.AEADManager())
	})
	return c.keyManager
}

// ContentKey returns the content-encryption key, unwrapped through the KMS
// when KMS_KEY_URI is set.
func (c *Container) ContentKey() (*cryptoDomain.ContentKey, error) {
	var err error
	c.contentKeyInit.Do(func() {
		c.contentKey, err = c.initContentKey()
		if err != nil {
			c.initErrors["contentKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["contentKey"]; exists {
		return nil, storedErr
	}
	return c.contentKey, nil
}

// Protector returns the field protector shared by the record store and its readers.
func (c *Container) Protector() (*recordUseCase.Protector, error) {
	var err error
	c.protectorInit.Do(func() {
		c.protector, err = c.initProtector()
		if err != nil {
			c.initErrors["protector"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["protector"]; exists {
		return nil, storedErr
	}
	return c.protector, nil
}

// AuditSigner returns the dossier audit trail signer.
func (c *Container) AuditSigner() (dossierService.AuditSigner, error) {
	var err error
	c.auditSignerInit.Do(func() {
		c.auditSigner, err = c.initAuditSigner()
		if err != nil {
			c.initErrors["auditSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditSigner"]; exists {
		return nil, storedErr
	}
	return c.auditSigner, nil
}

func (c *Container) initContentKey() (*cryptoDomain.ContentKey, error) {
	if c.config.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if c.config.KMSKeyURI != "" {
		c.Logger().Info("unwrapping content key through kms")
	}

	key, err := cryptoService.LoadContentKey(
		context.Background(),
		c.KMSService(),
		c.config.EncryptionKey,
		c.config.KMSKeyURI,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load content key: %w", err)
	}
	return key, nil
}

func (c *Container) initProtector() (*recordUseCase.Protector, error) {
	contentKey, err := c.ContentKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get content key for protector: %w", err)
	}

	cipher, err := cryptoService.NewFieldCipher(contentKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create field cipher: %w", err)
	}

	return recordUseCase.NewProtector(
		cipher,
		cryptoService.NewDigester(contentKey.Bytes()),
		recordUseCase.ProtectOptions{
			IdentityValues: c.config.EncryptNationalIDs,
			IPAddresses:    c.config.EncryptIPAddresses,
			MACSurrogates:  c.config.EncryptMACSurrogates,
		},
		c.Logger(),
	), nil
}

func (c *Container) initAuditSigner() (dossierService.AuditSigner, error) {
	contentKey, err := c.ContentKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get content key for audit signer: %w", err)
	}
	return dossierService.NewAuditSigner(contentKey), nil
}
