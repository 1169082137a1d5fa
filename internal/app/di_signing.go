package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	signingHTTP "github.com/allisson/trustlog/internal/signing/http"
	signingRepository "github.com/allisson/trustlog/internal/signing/repository"
	signingService "github.com/allisson/trustlog/internal/signing/service"
	signingUseCase "github.com/allisson/trustlog/internal/signing/usecase"
)

// SignatureRepository returns the signature repository shared by the record
// enqueuer and the signing worker.
func (c *Container) SignatureRepository() (signingUseCase.SignatureRepository, error) {
	var err error
	c.signatureRepoInit.Do(func() {
		c.signatureRepo, err = c.initSignatureRepository()
		if err != nil {
			c.initErrors["signatureRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signatureRepo"]; exists {
		return nil, storedErr
	}
	return c.signatureRepo, nil
}

// LocalTSA returns the built-in timestamp authority.
func (c *Container) LocalTSA() (*signingService.LocalTSA, error) {
	var err error
	c.localTSAInit.Do(func() {
		c.localTSA, err = c.initLocalTSA()
		if err != nil {
			c.initErrors["localTSA"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["localTSA"]; exists {
		return nil, storedErr
	}
	return c.localTSA, nil
}

// TSAResolver returns the per-tenant TSA resolver.
func (c *Container) TSAResolver() (*signingService.Resolver, error) {
	var err error
	c.tsaResolverInit.Do(func() {
		c.tsaResolver, err = c.initTSAResolver()
		if err != nil {
			c.initErrors["tsaResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tsaResolver"]; exists {
		return nil, storedErr
	}
	return c.tsaResolver, nil
}

// SigningUseCase returns the timestamp signing use case.
func (c *Container) SigningUseCase() (signingUseCase.SigningUseCase, error) {
	var err error
	c.signingUseCaseInit.Do(func() {
		c.signingUseCase, err = c.initSigningUseCase()
		if err != nil {
			c.initErrors["signingUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingUseCase"]; exists {
		return nil, storedErr
	}
	return c.signingUseCase, nil
}

// SignatureHandler returns the signature HTTP handler.
func (c *Container) SignatureHandler() (*signingHTTP.SignatureHandler, error) {
	var err error
	c.signatureHandlerInit.Do(func() {
		var uc signingUseCase.SigningUseCase
		uc, err = c.SigningUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get signing use case for signature handler: %w", err)
			c.initErrors["signatureHandler"] = err
			return
		}
		c.signatureHandler = signingHTTP.NewSignatureHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signatureHandler"]; exists {
		return nil, storedErr
	}
	return c.signatureHandler, nil
}

// TSAHandler returns the HTTP handler exposing the built-in TSA.
func (c *Container) TSAHandler() (*signingHTTP.TSAHandler, error) {
	var err error
	c.tsaHandlerInit.Do(func() {
		var tsa *signingService.LocalTSA
		tsa, err = c.LocalTSA()
		if err != nil {
			err = fmt.Errorf("failed to get local tsa for tsa handler: %w", err)
			c.initErrors["tsaHandler"] = err
			return
		}
		c.tsaHandler = signingHTTP.NewTSAHandler(tsa, Version, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tsaHandler"]; exists {
		return nil, storedErr
	}
	return c.tsaHandler, nil
}

func (c *Container) initSignatureRepository() (signingUseCase.SignatureRepository, error) {
	if c.MemoryDriver() {
		return signingRepository.NewMemorySignatureRepository(), nil
	}
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for signature repository: %w", err)
	}
	return signingRepository.NewSQLSignatureRepository(db, c.Dialect()), nil
}

func (c *Container) initLocalTSA() (*signingService.LocalTSA, error) {
	contentKey, err := c.ContentKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get content key for local tsa: %w", err)
	}
	return signingService.NewLocalTSA(contentKey.Bytes(), c.config.TSAIdentity), nil
}

// initTSAResolver uses TSA_URL as the default authority when set and the
// built-in TSA otherwise.
func (c *Container) initTSAResolver() (*signingService.Resolver, error) {
	var fallback signingService.TSAClient
	if c.config.TSAURL != "" {
		fallback = signingService.NewRemoteTSA(c.config.TSAURL, c.config.TSACredential, c.config.TSATimeout, c.Logger())
	} else {
		local, err := c.LocalTSA()
		if err != nil {
			return nil, fmt.Errorf("failed to get local tsa for tsa resolver: %w", err)
		}
		fallback = local
	}
	return signingService.NewResolver(fallback, c.config.TSACredential, c.config.TSATimeout, c.Logger()), nil
}

func (c *Container) initSigningUseCase() (signingUseCase.SigningUseCase, error) {
	signatureRepo, err := c.SignatureRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signature repository for signing use case: %w", err)
	}

	tenants, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for signing use case: %w", err)
	}

	resolver, err := c.TSAResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get tsa resolver for signing use case: %w", err)
	}

	alerts, err := c.AlertUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert use case for signing use case: %w", err)
	}

	records, err := c.RecordUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get record use case for signing use case: %w", err)
	}

	baseUseCase := signingUseCase.NewSigningUseCase(
		signatureRepo,
		tenants,
		resolver,
		alerts,
		signingUseCase.Options{
			BatchSize:   c.config.SignerBatchSize,
			Interval:    c.config.SignerInterval,
			MaxAttempts: c.config.SignerMaxAttempts,
			BackoffBase: c.config.SignerBackoffBase,
			BackoffCap:  c.config.SignerBackoffCap,
			Timeout:     c.config.TSATimeout,
		},
		c.Logger(),
	)

	baseUseCase.RegisterHasher(signingDomain.SubjectSession, records)
	baseUseCase.RegisterHasher(signingDomain.SubjectSyslog, records)
	baseUseCase.RegisterHasher(signingDomain.SubjectFlow, records)
	baseUseCase.RegisterHasher(signingDomain.SubjectDossier, dossierHasher{c: c})

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for signing use case: %w", err)
		}
		return signingUseCase.NewSigningUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// dossierHasher resolves the dossier use case on first use. The dossier use
// case enqueues its own signatures, so it cannot be built before the signer.
type dossierHasher struct {
	c *Container
}

func (h dossierHasher) ContentHash(ctx context.Context, tenantID, dossierID uuid.UUID) (string, error) {
	uc, err := h.c.DossierUseCase()
	if err != nil {
		return "", fmt.Errorf("failed to get dossier use case for signature verification: %w", err)
	}
	return uc.ContentHash(ctx, tenantID, dossierID)
}
