package app

import (
	"context"
	"fmt"

	dossierHTTP "github.com/allisson/trustlog/internal/dossier/http"
	dossierRepository "github.com/allisson/trustlog/internal/dossier/repository"
	dossierUseCase "github.com/allisson/trustlog/internal/dossier/usecase"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
)

// DossierStorage returns the blob storage holding generated dossier artifacts.
func (c *Container) DossierStorage() (retentionService.Storage, error) {
	var err error
	c.dossierStorageInit.Do(func() {
		var storage *retentionService.BlobStorage
		storage, err = retentionService.OpenBlobStorage(context.Background(), c.config.DossierStorageURL)
		if err != nil {
			err = fmt.Errorf("failed to open dossier storage: %w", err)
			c.initErrors["dossierStorage"] = err
			return
		}
		c.dossierStorage = storage
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dossierStorage"]; exists {
		return nil, storedErr
	}
	return c.dossierStorage, nil
}

// DossierUseCase returns the evidence dossier use case.
func (c *Container) DossierUseCase() (dossierUseCase.DossierUseCase, error) {
	var err error
	c.dossierUseCaseInit.Do(func() {
		c.dossierUseCase, err = c.initDossierUseCase()
		if err != nil {
			c.initErrors["dossierUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dossierUseCase"]; exists {
		return nil, storedErr
	}
	return c.dossierUseCase, nil
}

// DossierHandler returns the dossier HTTP handler.
func (c *Container) DossierHandler() (*dossierHTTP.DossierHandler, error) {
	var err error
	c.dossierHandlerInit.Do(func() {
		var uc dossierUseCase.DossierUseCase
		uc, err = c.DossierUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get dossier use case for dossier handler: %w", err)
			c.initErrors["dossierHandler"] = err
			return
		}
		c.dossierHandler = dossierHTTP.NewDossierHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dossierHandler"]; exists {
		return nil, storedErr
	}
	return c.dossierHandler, nil
}

func (c *Container) initDossierUseCase() (dossierUseCase.DossierUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for dossier use case: %w", err)
	}

	var (
		dossierRepo dossierUseCase.DossierRepository
		auditRepo   dossierUseCase.AuditRepository
		accessRepo  dossierUseCase.AccessRepository
	)
	if c.MemoryDriver() {
		dossierRepo = dossierRepository.NewMemoryDossierRepository()
		auditRepo = dossierRepository.NewMemoryAuditRepository()
		accessRepo = dossierRepository.NewMemoryAccessRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for dossier repositories: %w", err)
		}
		dossierRepo = dossierRepository.NewSQLDossierRepository(db, c.Dialect())
		auditRepo = dossierRepository.NewSQLAuditRepository(db, c.Dialect())
		accessRepo = dossierRepository.NewSQLAccessRepository(db, c.Dialect())
	}

	records, err := c.RecordUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get record use case for dossier use case: %w", err)
	}

	archives, err := c.RetentionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get retention use case for dossier use case: %w", err)
	}

	signer, err := c.SigningUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing use case for dossier use case: %w", err)
	}

	protector, err := c.Protector()
	if err != nil {
		return nil, fmt.Errorf("failed to get protector for dossier use case: %w", err)
	}

	tenants, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for dossier use case: %w", err)
	}

	storage, err := c.DossierStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to get dossier storage for dossier use case: %w", err)
	}

	alerts, err := c.AlertUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert use case for dossier use case: %w", err)
	}

	pipeline, err := c.PipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline metrics for dossier use case: %w", err)
	}

	auditSigner, err := c.AuditSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit signer for dossier use case: %w", err)
	}

	baseUseCase := dossierUseCase.NewDossierUseCase(
		txManager,
		dossierRepo,
		auditRepo,
		accessRepo,
		records,
		archives,
		signer,
		protector,
		tenants,
		storage,
		alerts,
		pipeline,
		dossierUseCase.Options{AuditSigner: auditSigner},
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for dossier use case: %w", err)
		}
		return dossierUseCase.NewDossierUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
