package app

import (
	"fmt"

	outboxRepository "github.com/allisson/trustlog/internal/outbox/repository"
	outboxUseCase "github.com/allisson/trustlog/internal/outbox/usecase"
	syslogHTTP "github.com/allisson/trustlog/internal/syslog/http"
	syslogRepository "github.com/allisson/trustlog/internal/syslog/repository"
	syslogServer "github.com/allisson/trustlog/internal/syslog/server"
	syslogService "github.com/allisson/trustlog/internal/syslog/service"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
)

// OutboxUseCase returns the event relay that delivers forwarded syslog frames.
func (c *Container) OutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// CollectorUseCase returns the syslog collector use case.
func (c *Container) CollectorUseCase() (syslogUseCase.CollectorUseCase, error) {
	var err error
	c.collectorUseCaseInit.Do(func() {
		c.collectorUseCase, err = c.initCollectorUseCase()
		if err != nil {
			c.initErrors["collectorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["collectorUseCase"]; exists {
		return nil, storedErr
	}
	return c.collectorUseCase, nil
}

// SyslogServer returns the listener server of the collector.
func (c *Container) SyslogServer() (*syslogServer.Server, error) {
	var err error
	c.syslogServerInit.Do(func() {
		var collector syslogUseCase.CollectorUseCase
		collector, err = c.CollectorUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get collector use case for syslog server: %w", err)
			c.initErrors["syslogServer"] = err
			return
		}
		c.syslogServer = syslogServer.NewServer(collector, syslogServer.Options{
			Workers:        c.config.SyslogWorkers,
			RingSize:       c.config.SyslogRingSize,
			MaxMessageSize: c.config.SyslogMaxMessageSize,
		}, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["syslogServer"]; exists {
		return nil, storedErr
	}
	return c.syslogServer, nil
}

// SyslogHandler returns the syslog management HTTP handler. Endpoint changes
// are applied to the running listeners through the syslog server.
func (c *Container) SyslogHandler() (*syslogHTTP.SyslogHandler, error) {
	var err error
	c.syslogHandlerInit.Do(func() {
		c.syslogHandler, err = c.initSyslogHandler()
		if err != nil {
			c.initErrors["syslogHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["syslogHandler"]; exists {
		return nil, storedErr
	}
	return c.syslogHandler, nil
}

func (c *Container) initOutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	var outboxRepo outboxUseCase.OutboxEventRepository
	if c.MemoryDriver() {
		outboxRepo = outboxRepository.NewMemoryOutboxEventRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
		}
		outboxRepo = outboxRepository.NewSQLOutboxEventRepository(db, c.Dialect())
	}

	processors := map[string]outboxUseCase.EventProcessor{
		syslogService.ForwardEventType: syslogService.NewForwarder(c.config.AlertDeliveryTimeout),
	}

	return outboxUseCase.NewOutboxUseCase(
		outboxUseCase.Config{
			Interval:   c.config.OutboxInterval,
			BatchSize:  c.config.OutboxBatchSize,
			MaxRetries: c.config.OutboxMaxRetries,
		},
		txManager,
		outboxRepo,
		processors,
		c.Logger(),
	), nil
}

func (c *Container) initCollectorUseCase() (syslogUseCase.CollectorUseCase, error) {
	var (
		endpointRepo syslogUseCase.EndpointRepository
		filterRepo   syslogUseCase.FilterRepository
		clientRepo   syslogUseCase.ClientRepository
	)
	if c.MemoryDriver() {
		endpointRepo = syslogRepository.NewMemoryEndpointRepository()
		filterRepo = syslogRepository.NewMemoryFilterRepository()
		clientRepo = syslogRepository.NewMemoryClientRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for syslog repositories: %w", err)
		}
		endpointRepo = syslogRepository.NewSQLEndpointRepository(db, c.Dialect())
		filterRepo = syslogRepository.NewSQLFilterRepository(db, c.Dialect())
		clientRepo = syslogRepository.NewSQLClientRepository(db, c.Dialect())
	}

	records, err := c.RecordUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get record use case for collector use case: %w", err)
	}

	alerts, err := c.AlertUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert use case for collector use case: %w", err)
	}

	outbox, err := c.OutboxUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox use case for collector use case: %w", err)
	}

	pipeline, err := c.PipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline metrics for collector use case: %w", err)
	}

	baseUseCase := syslogUseCase.NewCollectorUseCase(
		endpointRepo,
		filterRepo,
		clientRepo,
		records,
		alerts,
		outbox,
		pipeline,
		syslogUseCase.Options{OverflowAlertInterval: c.config.SyslogOverflowAlertInterval},
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for collector use case: %w", err)
		}
		return syslogUseCase.NewCollectorUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initSyslogHandler() (*syslogHTTP.SyslogHandler, error) {
	collector, err := c.CollectorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get collector use case for syslog handler: %w", err)
	}

	server, err := c.SyslogServer()
	if err != nil {
		return nil, fmt.Errorf("failed to get syslog server for syslog handler: %w", err)
	}

	return syslogHTTP.NewSyslogHandler(collector, server, c.Logger()), nil
}
