package app

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	retentionHTTP "github.com/allisson/trustlog/internal/retention/http"
	retentionRepository "github.com/allisson/trustlog/internal/retention/repository"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
)

const lockPrefix = "trustlog:lock:"

// ArchiveBackends returns the configured archive storages.
func (c *Container) ArchiveBackends() (*retentionService.Backends, error) {
	var err error
	c.backendsInit.Do(func() {
		c.backends, err = retentionService.OpenBackends(context.Background(), retentionService.BackendURLs{
			Local:        c.config.ArchiveStorageURL,
			WORM:         c.config.ArchiveWORMURL,
			Cloud:        c.config.ArchiveCloudURL,
			TapeSpoolDir: c.config.ArchiveTapeSpoolDir,
		})
		if err != nil {
			err = fmt.Errorf("failed to open archive backends: %w", err)
			c.initErrors["backends"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["backends"]; exists {
		return nil, storedErr
	}
	return c.backends, nil
}

// Locker returns the run lock. Redis is used when REDIS_URL is set so that
// several instances never archive the same tenant at once.
func (c *Container) Locker() (retentionService.Locker, error) {
	var err error
	c.lockerInit.Do(func() {
		c.locker, err = c.initLocker()
		if err != nil {
			c.initErrors["locker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["locker"]; exists {
		return nil, storedErr
	}
	return c.locker, nil
}

// RetentionUseCase returns the archive and retention use case.
func (c *Container) RetentionUseCase() (retentionUseCase.RetentionUseCase, error) {
	var err error
	c.retentionUseCaseInit.Do(func() {
		c.retentionUseCase, err = c.initRetentionUseCase()
		if err != nil {
			c.initErrors["retentionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["retentionUseCase"]; exists {
		return nil, storedErr
	}
	return c.retentionUseCase, nil
}

// RetentionHandler returns the retention HTTP handler.
func (c *Container) RetentionHandler() (*retentionHTTP.RetentionHandler, error) {
	var err error
	c.retentionHandlerInit.Do(func() {
		var uc retentionUseCase.RetentionUseCase
		uc, err = c.RetentionUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get retention use case for retention handler: %w", err)
			c.initErrors["retentionHandler"] = err
			return
		}
		c.retentionHandler = retentionHTTP.NewRetentionHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["retentionHandler"]; exists {
		return nil, storedErr
	}
	return c.retentionHandler, nil
}

func (c *Container) initLocker() (retentionService.Locker, error) {
	if c.config.RedisURL == "" {
		return retentionService.NewLocalLocker(), nil
	}
	locker, err := retentionService.OpenRedisLocker(context.Background(), c.config.RedisURL, lockPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to open redis locker: %w", err)
	}
	c.Logger().Info("distributed archive lock enabled", slog.String("prefix", lockPrefix))
	return locker, nil
}

func (c *Container) initRetentionUseCase() (retentionUseCase.RetentionUseCase, error) {
	var (
		policyRepo retentionUseCase.PolicyRepository
		jobRepo    retentionUseCase.JobRepository
		eventRepo  retentionUseCase.EventRepository
	)
	if c.MemoryDriver() {
		policyRepo = retentionRepository.NewMemoryPolicyRepository()
		jobRepo = retentionRepository.NewMemoryJobRepository()
		eventRepo = retentionRepository.NewMemoryEventRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for retention repositories: %w", err)
		}
		policyRepo = retentionRepository.NewSQLPolicyRepository(db, c.Dialect())
		jobRepo = retentionRepository.NewSQLJobRepository(db, c.Dialect())
		eventRepo = retentionRepository.NewSQLEventRepository(db, c.Dialect())
	}

	records, err := c.RecordUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get record use case for retention use case: %w", err)
	}

	signatures, err := c.SigningUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing use case for retention use case: %w", err)
	}

	tenants, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for retention use case: %w", err)
	}

	backends, err := c.ArchiveBackends()
	if err != nil {
		return nil, fmt.Errorf("failed to get archive backends for retention use case: %w", err)
	}

	locker, err := c.Locker()
	if err != nil {
		return nil, fmt.Errorf("failed to get locker for retention use case: %w", err)
	}

	contentKey, err := c.ContentKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get content key for retention use case: %w", err)
	}

	alerts, err := c.AlertUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert use case for retention use case: %w", err)
	}

	pipeline, err := c.PipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline metrics for retention use case: %w", err)
	}

	baseUseCase := retentionUseCase.NewRetentionUseCase(
		policyRepo,
		jobRepo,
		eventRepo,
		records,
		signatures,
		tenants,
		backends,
		locker,
		c.KeyManager(),
		c.AEADManager(),
		contentKey,
		alerts,
		pipeline,
		retentionUseCase.Options{
			DefaultRetention:    c.config.DefaultRetention,
			DefaultArchiveAfter: c.config.DefaultArchiveAfter,
			RunTimeout:          c.config.ArchiveTimeout,
			Algorithm:           cryptoDomain.AESGCM,
		},
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for retention use case: %w", err)
		}
		return retentionUseCase.NewRetentionUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
