// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	alertHTTP "github.com/allisson/trustlog/internal/alert/http"
	alertService "github.com/allisson/trustlog/internal/alert/service"
	alertUseCase "github.com/allisson/trustlog/internal/alert/usecase"
	authHTTP "github.com/allisson/trustlog/internal/auth/http"
	authRepository "github.com/allisson/trustlog/internal/auth/repository"
	authService "github.com/allisson/trustlog/internal/auth/service"
	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
	"github.com/allisson/trustlog/internal/config"
	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	"github.com/allisson/trustlog/internal/database"
	dossierHTTP "github.com/allisson/trustlog/internal/dossier/http"
	dossierService "github.com/allisson/trustlog/internal/dossier/service"
	dossierUseCase "github.com/allisson/trustlog/internal/dossier/usecase"
	flowHTTP "github.com/allisson/trustlog/internal/flow/http"
	flowUseCase "github.com/allisson/trustlog/internal/flow/usecase"
	"github.com/allisson/trustlog/internal/http"
	ingestHTTP "github.com/allisson/trustlog/internal/ingest/http"
	ingestUseCase "github.com/allisson/trustlog/internal/ingest/usecase"
	"github.com/allisson/trustlog/internal/metrics"
	outboxUseCase "github.com/allisson/trustlog/internal/outbox/usecase"
	recordHTTP "github.com/allisson/trustlog/internal/record/http"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
	retentionHTTP "github.com/allisson/trustlog/internal/retention/http"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
	"github.com/allisson/trustlog/internal/retry"
	"github.com/allisson/trustlog/internal/scheduler"
	signingHTTP "github.com/allisson/trustlog/internal/signing/http"
	signingService "github.com/allisson/trustlog/internal/signing/service"
	signingUseCase "github.com/allisson/trustlog/internal/signing/usecase"
	syslogHTTP "github.com/allisson/trustlog/internal/syslog/http"
	syslogServer "github.com/allisson/trustlog/internal/syslog/server"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
	tenantHTTP "github.com/allisson/trustlog/internal/tenant/http"
	tenantUseCase "github.com/allisson/trustlog/internal/tenant/usecase"
)

// Version is reported by the TSA status endpoint.
var Version = "dev"

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	pipelineMetrics metrics.PipelineMetrics

	// Crypto
	kmsService  cryptoService.KMSService
	aeadManager cryptoService.AEADManager
	keyManager  cryptoService.KeyManager
	contentKey  *cryptoDomain.ContentKey
	protector   *recordUseCase.Protector
	auditSigner dossierService.AuditSigner

	// Auth
	secretService   authService.SecretService
	memOperators    *authRepository.MemoryOperatorRepository
	tokenService    authService.TokenService
	operatorUseCase authUseCase.OperatorUseCase
	tokenUseCase    authUseCase.TokenUseCase
	tokenHandler    *authHTTP.TokenHandler

	// Tenants and records
	tenantUseCase    tenantUseCase.TenantUseCase
	tenantHandler    *tenantHTTP.TenantHandler
	recordUseCase    recordUseCase.RecordUseCase
	recordHandler    *recordHTTP.RecordHandler
	ingestUseCase    ingestUseCase.IngestUseCase
	portalHandler    *ingestHTTP.PortalHandler
	flowUseCase      flowUseCase.FlowUseCase
	flowHandler      *flowHTTP.FlowHandler
	signatureRepo    signingUseCase.SignatureRepository
	localTSA         *signingService.LocalTSA
	tsaResolver      *signingService.Resolver
	signingUseCase   signingUseCase.SigningUseCase
	signatureHandler *signingHTTP.SignatureHandler
	tsaHandler       *signingHTTP.TSAHandler

	// Collector and alerts
	alertChannels    []alertService.Channel
	alertUseCase     alertUseCase.AlertUseCase
	alertHandler     *alertHTTP.AlertHandler
	outboxUseCase    *outboxUseCase.OutboxUseCase
	collectorUseCase syslogUseCase.CollectorUseCase
	syslogServer     *syslogServer.Server
	syslogHandler    *syslogHTTP.SyslogHandler

	// Retention and dossiers
	backends         *retentionService.Backends
	locker           retentionService.Locker
	retentionUseCase retentionUseCase.RetentionUseCase
	retentionHandler *retentionHTTP.RetentionHandler
	dossierStorage   retentionService.Storage
	dossierUseCase   dossierUseCase.DossierUseCase
	dossierHandler   *dossierHTTP.DossierHandler

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	scheduler     *scheduler.Scheduler

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	txManagerInit        sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	pipelineMetricsInit  sync.Once
	kmsServiceInit       sync.Once
	aeadManagerInit      sync.Once
	keyManagerInit       sync.Once
	contentKeyInit       sync.Once
	protectorInit        sync.Once
	auditSignerInit      sync.Once
	secretServiceInit    sync.Once
	memOperatorsInit     sync.Once
	tokenServiceInit     sync.Once
	operatorUseCaseInit  sync.Once
	tokenUseCaseInit     sync.Once
	tokenHandlerInit     sync.Once
	tenantUseCaseInit    sync.Once
	tenantHandlerInit    sync.Once
	recordUseCaseInit    sync.Once
	recordHandlerInit    sync.Once
	ingestUseCaseInit    sync.Once
	portalHandlerInit    sync.Once
	flowUseCaseInit      sync.Once
	flowHandlerInit      sync.Once
	signatureRepoInit    sync.Once
	localTSAInit         sync.Once
	tsaResolverInit      sync.Once
	signingUseCaseInit   sync.Once
	signatureHandlerInit sync.Once
	tsaHandlerInit       sync.Once
	alertChannelsInit    sync.Once
	alertUseCaseInit     sync.Once
	alertHandlerInit     sync.Once
	outboxUseCaseInit    sync.Once
	collectorUseCaseInit sync.Once
	syslogServerInit     sync.Once
	syslogHandlerInit    sync.Once
	backendsInit         sync.Once
	lockerInit           sync.Once
	retentionUseCaseInit sync.Once
	retentionHandlerInit sync.Once
	dossierStorageInit   sync.Once
	dossierUseCaseInit   sync.Once
	dossierHandlerInit   sync.Once
	httpServerInit       sync.Once
	metricsServerInit    sync.Once
	schedulerInit        sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MemoryDriver reports whether repositories are kept in process memory.
func (c *Container) MemoryDriver() bool {
	return c.config.DBDriver == database.Memory
}

// Dialect returns the SQL dialect of the configured driver.
func (c *Container) Dialect() database.Dialect {
	return database.Dialect(c.config.DBDriver)
}

// DB returns the database connection.
// It creates and configures the database connection on first access. The
// memory driver has no connection and returns nil.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the use case metrics recorder.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// PipelineMetrics returns the ingest and worker metrics recorder.
func (c *Container) PipelineMetrics() (metrics.PipelineMetrics, error) {
	var err error
	c.pipelineMetricsInit.Do(func() {
		c.pipelineMetrics, err = c.initPipelineMetrics()
		if err != nil {
			c.initErrors["pipelineMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pipelineMetrics"]; exists {
		return nil, storedErr
	}
	return c.pipelineMetrics, nil
}

// HTTPServer returns the API server with every route registered.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Scheduler returns the periodic job scheduler with every job registered.
func (c *Container) Scheduler() (*scheduler.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		c.scheduler, err = c.initScheduler()
		if err != nil {
			c.initErrors["scheduler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.scheduler != nil {
		c.scheduler.Stop()
	}

	// Pending alert deliveries finish before their stores close.
	if c.alertUseCase != nil {
		if err := c.alertUseCase.Drain(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("alert drain: %w", err))
		}
	}

	for _, ch := range c.alertChannels {
		if closer, ok := ch.(interface{ Close() }); ok {
			closer.Close()
		}
	}

	if c.backends != nil {
		if err := c.backends.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("archive backends close: %w", err))
		}
	}

	if c.dossierStorage != nil {
		if err := c.dossierStorage.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("dossier storage close: %w", err))
		}
	}

	if closer, ok := c.locker.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("locker close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.contentKey != nil {
		c.contentKey.Close()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	if c.config.DBDriver == database.Memory {
		return nil, nil
	}

	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		ConnectRetry:       retry.Default,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	if c.MemoryDriver() {
		return database.NewMemoryTxManager(), nil
	}
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

func (c *Container) initPipelineMetrics() (metrics.PipelineMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for pipeline metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpPipelineMetrics(), nil
	}
	return metrics.NewPipelineMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the API server and mounts every handler.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	var handlers http.Handlers
	if handlers.Token, err = c.TokenHandler(); err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}
	if handlers.Tenant, err = c.TenantHandler(); err != nil {
		return nil, fmt.Errorf("failed to get tenant handler for http server: %w", err)
	}
	if handlers.Portal, err = c.PortalHandler(); err != nil {
		return nil, fmt.Errorf("failed to get portal handler for http server: %w", err)
	}
	if handlers.Record, err = c.RecordHandler(); err != nil {
		return nil, fmt.Errorf("failed to get record handler for http server: %w", err)
	}
	if handlers.Flow, err = c.FlowHandler(); err != nil {
		return nil, fmt.Errorf("failed to get flow handler for http server: %w", err)
	}
	if handlers.Signature, err = c.SignatureHandler(); err != nil {
		return nil, fmt.Errorf("failed to get signature handler for http server: %w", err)
	}
	if handlers.TSA, err = c.TSAHandler(); err != nil {
		return nil, fmt.Errorf("failed to get tsa handler for http server: %w", err)
	}
	if handlers.Syslog, err = c.SyslogHandler(); err != nil {
		return nil, fmt.Errorf("failed to get syslog handler for http server: %w", err)
	}
	if handlers.Alert, err = c.AlertHandler(); err != nil {
		return nil, fmt.Errorf("failed to get alert handler for http server: %w", err)
	}
	if handlers.Retention, err = c.RetentionHandler(); err != nil {
		return nil, fmt.Errorf("failed to get retention handler for http server: %w", err)
	}
	if handlers.Dossier, err = c.DossierHandler(); err != nil {
		return nil, fmt.Errorf("failed to get dossier handler for http server: %w", err)
	}

	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(
		ctx,
		c.config,
		handlers,
		tokenUseCase,
		c.TokenService(),
		metricsProvider,
		c.MemoryDriver(),
	)
	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// initScheduler registers the signer, alert, retention, dossier and
// housekeeping jobs.
func (c *Container) initScheduler() (*scheduler.Scheduler, error) {
	pipeline, err := c.PipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline metrics for scheduler: %w", err)
	}

	var jobs scheduler.Jobs
	jobs.SignerTick = c.config.SignerInterval

	if jobs.Signer, err = c.SigningUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get signing use case for scheduler: %w", err)
	}
	if jobs.Alerts, err = c.AlertUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get alert use case for scheduler: %w", err)
	}
	if jobs.Retention, err = c.RetentionUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get retention use case for scheduler: %w", err)
	}
	if jobs.Dossiers, err = c.DossierUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get dossier use case for scheduler: %w", err)
	}
	if jobs.Syslog, err = c.CollectorUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get collector use case for scheduler: %w", err)
	}
	if jobs.Outbox, err = c.OutboxUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get outbox use case for scheduler: %w", err)
	}
	if jobs.Tokens, err = c.TokenUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get token use case for scheduler: %w", err)
	}

	s := scheduler.NewScheduler(c.Logger(), pipeline, scheduler.WithTimeout(c.config.ArchiveTimeout))
	if err := scheduler.Register(s, jobs); err != nil {
		return nil, fmt.Errorf("failed to register scheduled jobs: %w", err)
	}
	return s, nil
}
