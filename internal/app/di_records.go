package app

import (
	"fmt"
	"log/slog"

	flowDomain "github.com/allisson/trustlog/internal/flow/domain"
	flowHTTP "github.com/allisson/trustlog/internal/flow/http"
	flowUseCase "github.com/allisson/trustlog/internal/flow/usecase"
	ingestHTTP "github.com/allisson/trustlog/internal/ingest/http"
	ingestService "github.com/allisson/trustlog/internal/ingest/service"
	ingestUseCase "github.com/allisson/trustlog/internal/ingest/usecase"
	recordHTTP "github.com/allisson/trustlog/internal/record/http"
	recordRepository "github.com/allisson/trustlog/internal/record/repository"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
	signingUseCase "github.com/allisson/trustlog/internal/signing/usecase"
	tenantHTTP "github.com/allisson/trustlog/internal/tenant/http"
	tenantRepository "github.com/allisson/trustlog/internal/tenant/repository"
	tenantUseCase "github.com/allisson/trustlog/internal/tenant/usecase"
)

// TenantUseCase returns the tenant use case.
func (c *Container) TenantUseCase() (tenantUseCase.TenantUseCase, error) {
	var err error
	c.tenantUseCaseInit.Do(func() {
		c.tenantUseCase, err = c.initTenantUseCase()
		if err != nil {
			c.initErrors["tenantUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantUseCase"]; exists {
		return nil, storedErr
	}
	return c.tenantUseCase, nil
}

// TenantHandler returns the tenant HTTP handler.
func (c *Container) TenantHandler() (*tenantHTTP.TenantHandler, error) {
	var err error
	c.tenantHandlerInit.Do(func() {
		var uc tenantUseCase.TenantUseCase
		uc, err = c.TenantUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get tenant use case for tenant handler: %w", err)
			c.initErrors["tenantHandler"] = err
			return
		}
		c.tenantHandler = tenantHTTP.NewTenantHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantHandler"]; exists {
		return nil, storedErr
	}
	return c.tenantHandler, nil
}

// RecordUseCase returns the record store use case.
func (c *Container) RecordUseCase() (recordUseCase.RecordUseCase, error) {
	var err error
	c.recordUseCaseInit.Do(func() {
		c.recordUseCase, err = c.initRecordUseCase()
		if err != nil {
			c.initErrors["recordUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordUseCase"]; exists {
		return nil, storedErr
	}
	return c.recordUseCase, nil
}

// RecordHandler returns the record HTTP handler.
func (c *Container) RecordHandler() (*recordHTTP.RecordHandler, error) {
	var err error
	c.recordHandlerInit.Do(func() {
		var uc recordUseCase.RecordUseCase
		uc, err = c.RecordUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get record use case for record handler: %w", err)
			c.initErrors["recordHandler"] = err
			return
		}
		c.recordHandler = recordHTTP.NewRecordHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordHandler"]; exists {
		return nil, storedErr
	}
	return c.recordHandler, nil
}

// IngestUseCase returns the captive portal admission use case.
func (c *Container) IngestUseCase() (ingestUseCase.IngestUseCase, error) {
	var err error
	c.ingestUseCaseInit.Do(func() {
		c.ingestUseCase, err = c.initIngestUseCase()
		if err != nil {
			c.initErrors["ingestUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ingestUseCase"]; exists {
		return nil, storedErr
	}
	return c.ingestUseCase, nil
}

// PortalHandler returns the captive portal HTTP handler.
func (c *Container) PortalHandler() (*ingestHTTP.PortalHandler, error) {
	var err error
	c.portalHandlerInit.Do(func() {
		c.portalHandler, err = c.initPortalHandler()
		if err != nil {
			c.initErrors["portalHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["portalHandler"]; exists {
		return nil, storedErr
	}
	return c.portalHandler, nil
}

// FlowUseCase returns the flow recorder use case.
func (c *Container) FlowUseCase() (flowUseCase.FlowUseCase, error) {
	var err error
	c.flowUseCaseInit.Do(func() {
		c.flowUseCase, err = c.initFlowUseCase()
		if err != nil {
			c.initErrors["flowUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["flowUseCase"]; exists {
		return nil, storedErr
	}
	return c.flowUseCase, nil
}

// FlowHandler returns the flow HTTP handler.
func (c *Container) FlowHandler() (*flowHTTP.FlowHandler, error) {
	var err error
	c.flowHandlerInit.Do(func() {
		var uc flowUseCase.FlowUseCase
		uc, err = c.FlowUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get flow use case for flow handler: %w", err)
			c.initErrors["flowHandler"] = err
			return
		}
		c.flowHandler = flowHTTP.NewFlowHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["flowHandler"]; exists {
		return nil, storedErr
	}
	return c.flowHandler, nil
}

func (c *Container) initTenantUseCase() (tenantUseCase.TenantUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for tenant use case: %w", err)
	}

	var tenantRepo tenantUseCase.TenantRepository
	if c.MemoryDriver() {
		tenantRepo = tenantRepository.NewMemoryTenantRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tenant repository: %w", err)
		}
		tenantRepo = tenantRepository.NewSQLTenantRepository(db, c.Dialect())
	}

	baseUseCase := tenantUseCase.NewTenantUseCase(txManager, tenantRepo, tenantUseCase.Defaults{
		Retention:             c.config.DefaultRetention,
		RememberDeviceWindow:  c.config.RememberDeviceWindow,
		FlowByteRateThreshold: c.config.FlowByteRateThreshold,
		SignerBatchSize:       c.config.SignerBatchSize,
		SignerInterval:        c.config.SignerInterval,
	})

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for tenant use case: %w", err)
		}
		return tenantUseCase.NewTenantUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRecordUseCase wires the record store. Every append enqueues its
// pending signature in the same transaction and notifies the alert bus.
func (c *Container) initRecordUseCase() (recordUseCase.RecordUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for record use case: %w", err)
	}

	var recordRepo recordUseCase.RecordRepository
	if c.MemoryDriver() {
		recordRepo = recordRepository.NewMemoryRecordRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for record repository: %w", err)
		}
		recordRepo = recordRepository.NewSQLRecordRepository(db, c.Dialect())
	}

	tenants, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for record use case: %w", err)
	}

	signatureRepo, err := c.SignatureRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signature repository for record use case: %w", err)
	}

	protector, err := c.Protector()
	if err != nil {
		return nil, fmt.Errorf("failed to get protector for record use case: %w", err)
	}

	alerts, err := c.AlertUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert use case for record use case: %w", err)
	}

	baseUseCase := recordUseCase.NewRecordUseCase(
		txManager,
		recordRepo,
		tenants,
		signingUseCase.NewRecordEnqueuer(signatureRepo),
		protector,
		c.Logger(),
		alerts,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for record use case: %w", err)
		}
		return recordUseCase.NewRecordUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initIngestUseCase() (ingestUseCase.IngestUseCase, error) {
	tenants, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for ingest use case: %w", err)
	}

	records, err := c.RecordUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get record use case for ingest use case: %w", err)
	}

	baseUseCase := ingestUseCase.NewIngestUseCase(tenants, records, c.config.RememberDeviceWindow, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for ingest use case: %w", err)
		}
		return ingestUseCase.NewIngestUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initPortalHandler() (*ingestHTTP.PortalHandler, error) {
	uc, err := c.IngestUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get ingest use case for portal handler: %w", err)
	}

	contentKey, err := c.ContentKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get content key for portal handler: %w", err)
	}

	devices := ingestService.NewDeviceTokens(contentKey.Bytes())
	return ingestHTTP.NewPortalHandler(uc, devices, c.Logger()).WithCookieName(c.config.DeviceCookieName), nil
}

func (c *Container) initFlowUseCase() (flowUseCase.FlowUseCase, error) {
	records, err := c.RecordUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get record use case for flow use case: %w", err)
	}

	tenants, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for flow use case: %w", err)
	}

	pipeline, err := c.PipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline metrics for flow use case: %w", err)
	}

	scorer, rejected := flowDomain.NewHeuristic(c.config.FlowWatchPorts, c.config.FlowThreatCIDRs)
	for _, entry := range rejected {
		c.Logger().Warn("ignoring invalid threat intel entry", slog.String("entry", entry))
	}

	baseUseCase := flowUseCase.NewFlowUseCase(
		records,
		tenants,
		scorer,
		c.config.FlowByteRateThreshold,
		pipeline,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for flow use case: %w", err)
		}
		return flowUseCase.NewFlowUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
