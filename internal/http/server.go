// Package http assembles the API router and runs the API and metrics servers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	alertHTTP "github.com/allisson/trustlog/internal/alert/http"
	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authHTTP "github.com/allisson/trustlog/internal/auth/http"
	authService "github.com/allisson/trustlog/internal/auth/service"
	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
	"github.com/allisson/trustlog/internal/config"
	dossierHTTP "github.com/allisson/trustlog/internal/dossier/http"
	flowHTTP "github.com/allisson/trustlog/internal/flow/http"
	ingestHTTP "github.com/allisson/trustlog/internal/ingest/http"
	"github.com/allisson/trustlog/internal/metrics"
	recordHTTP "github.com/allisson/trustlog/internal/record/http"
	retentionHTTP "github.com/allisson/trustlog/internal/retention/http"
	signingHTTP "github.com/allisson/trustlog/internal/signing/http"
	syslogHTTP "github.com/allisson/trustlog/internal/syslog/http"
	tenantHTTP "github.com/allisson/trustlog/internal/tenant/http"
)

// Handlers groups the handlers mounted on the API router. A nil handler
// leaves its routes unregistered.
type Handlers struct {
	Token     *authHTTP.TokenHandler
	Tenant    *tenantHTTP.TenantHandler
	Portal    *ingestHTTP.PortalHandler
	Record    *recordHTTP.RecordHandler
	Flow      *flowHTTP.FlowHandler
	Signature *signingHTTP.SignatureHandler
	TSA       *signingHTTP.TSAHandler
	Syslog    *syslogHTTP.SyslogHandler
	Alert     *alertHTTP.AlertHandler
	Retention *retentionHTTP.RetentionHandler
	Dossier   *dossierHTTP.DossierHandler
}

// Server represents the API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new API server. db is pinged by the readiness probe
// and may be nil for the in-memory driver.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every route. ctx bounds the
// background sweeps of the rate limiters.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	tokenUseCase authUseCase.TokenUseCase,
	tokenService authService.TokenService,
	metricsProvider *metrics.Provider,
	memoryDriver bool,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	if memoryDriver {
		router.GET("/ready", s.healthHandler)
	} else {
		router.GET("/ready", s.readinessHandler)
	}

	var entryLimit []gin.HandlerFunc
	if cfg.RateLimitEntryEnabled {
		entryLimit = append(entryLimit, authHTTP.IPRateLimitMiddleware(
			ctx, cfg.RateLimitEntryRequestsPerSec, cfg.RateLimitEntryBurst, s.logger))
	}

	if h := handlers.Portal; h != nil {
		portal := router.Group("", entryLimit...)
		portal.GET("/entry/:tenant_slug", h.LandingHandler)
		portal.POST("/entry/:tenant_slug", h.SubmitHandler)
		portal.POST("/leave/:tenant_slug", h.LeaveHandler)
	}

	if h := handlers.TSA; h != nil {
		tsa := router.Group("/tsa")
		tsa.GET("/timestamp", h.StatusHandler)
		tsa.POST("/timestamp", h.TimestampHandler)
		tsa.POST("/verify", h.VerifyHandler)
	}

	v1 := router.Group("/v1")
	authenticated := []gin.HandlerFunc{authHTTP.AuthenticationMiddleware(tokenUseCase, tokenService, s.logger)}
	if cfg.RateLimitEnabled {
		authenticated = append(authenticated, authHTTP.RateLimitMiddleware(
			ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	if h := handlers.Token; h != nil {
		v1.Group("", entryLimit...).POST("/token", h.IssueTokenHandler)
		v1.Group("", authenticated...).DELETE("/token", h.RevokeTokenHandler)
	}

	tenant := v1.Group("/tenants/:tenant_id", authenticated...)
	s.registerTenantRoutes(tenant, handlers)

	s.router = router
}

func (s *Server) registerTenantRoutes(tenant *gin.RouterGroup, handlers Handlers) {
	perm := func(p authDomain.Permission) gin.HandlerFunc {
		return authHTTP.AuthorizationMiddleware(p, s.logger)
	}

	if h := handlers.Tenant; h != nil {
		tenant.GET("", perm(authDomain.PermViewRecords), h.GetHandler)
		tenant.PUT("/policy", perm(authDomain.PermManageTenant), h.UpdatePolicyHandler)
	}

	if h := handlers.Record; h != nil {
		records := tenant.Group("/records", perm(authDomain.PermViewRecords))
		records.GET("", h.ListHandler)
		records.GET("/:record_id", h.GetHandler)
	}

	if h := handlers.Flow; h != nil {
		tenant.POST("/flows", perm(authDomain.PermIngestFlows), h.IngestHandler)
	}

	if h := handlers.Signature; h != nil {
		signatures := tenant.Group("/signatures")
		signatures.GET("", perm(authDomain.PermViewRecords), h.ListHandler)
		signatures.GET("/:signature_id", perm(authDomain.PermViewRecords), h.GetHandler)
		signatures.POST("/:signature_id/verify", perm(authDomain.PermVerifySignatures), h.VerifyHandler)
	}

	if h := handlers.Syslog; h != nil {
		syslog := tenant.Group("", perm(authDomain.PermManageTenant))
		syslog.POST("/syslog-endpoints", h.CreateEndpointHandler)
		syslog.GET("/syslog-endpoints", h.ListEndpointsHandler)
		syslog.GET("/syslog-endpoints/:endpoint_id", h.GetEndpointHandler)
		syslog.POST("/syslog-endpoints/:endpoint_id/activate", h.ActivateEndpointHandler)
		syslog.POST("/syslog-endpoints/:endpoint_id/deactivate", h.DeactivateEndpointHandler)
		syslog.DELETE("/syslog-endpoints/:endpoint_id", h.DeleteEndpointHandler)
		syslog.POST("/syslog-filters", h.CreateFilterHandler)
		syslog.GET("/syslog-filters", h.ListFiltersHandler)
		syslog.GET("/syslog-filters/:filter_id", h.GetFilterHandler)
		syslog.PUT("/syslog-filters/:filter_id", h.UpdateFilterHandler)
		syslog.DELETE("/syslog-filters/:filter_id", h.DeleteFilterHandler)
		syslog.GET("/syslog-clients", h.ListClientsHandler)
	}

	if h := handlers.Alert; h != nil {
		alerts := tenant.Group("", perm(authDomain.PermManageAlerts))
		alerts.GET("/alerts", h.ListAlertsHandler)
		alerts.GET("/alerts/:alert_id", h.GetAlertHandler)
		alerts.POST("/alerts/:alert_id/ack", h.AcknowledgeHandler)
		alerts.POST("/alerts/:alert_id/resolve", h.ResolveHandler)
		alerts.GET("/alerts/:alert_id/deliveries", h.ListDeliveriesHandler)
		alerts.GET("/alert-rules", h.ListRulesHandler)
		alerts.POST("/alert-rules", h.CreateRuleHandler)
		alerts.GET("/alert-rules/:rule_id", h.GetRuleHandler)
		alerts.POST("/alert-rules/:rule_id/activate", h.ActivateRuleHandler)
		alerts.POST("/alert-rules/:rule_id/deactivate", h.DeactivateRuleHandler)
		alerts.DELETE("/alert-rules/:rule_id", h.DeleteRuleHandler)
		alerts.GET("/alert-suppressions", h.ListSuppressionsHandler)
		alerts.POST("/alert-suppressions", h.CreateSuppressionHandler)
		alerts.DELETE("/alert-suppressions/:suppression_id", h.DeleteSuppressionHandler)
	}

	if h := handlers.Retention; h != nil {
		retention := tenant.Group("", perm(authDomain.PermRunRetention))
		retention.GET("/retention-policies", h.ListPoliciesHandler)
		retention.GET("/retention-policies/:kind", h.GetPolicyHandler)
		retention.PUT("/retention-policies/:kind", h.SetPolicyHandler)
		retention.POST("/archive-runs", h.RunArchiveHandler)
		retention.POST("/cleanup-runs", h.RunCleanupHandler)
		retention.GET("/archive-jobs", h.ListJobsHandler)
		retention.GET("/archive-jobs/:job_id", h.GetJobHandler)
		retention.POST("/archive-jobs/:job_id/verify", h.VerifyJobHandler)
		retention.GET("/retention-events", h.ListEventsHandler)
	}

	if h := handlers.Dossier; h != nil {
		manage := perm(authDomain.PermManageDossiers)
		approve := perm(authDomain.PermApproveDossiers)
		dossiers := tenant.Group("/dossiers")
		dossiers.POST("", manage, h.CreateHandler)
		dossiers.GET("", manage, h.ListHandler)
		dossiers.GET("/:dossier_id", manage, h.GetHandler)
		dossiers.POST("/:dossier_id/submit", manage, h.SubmitHandler)
		dossiers.POST("/:dossier_id/approve", approve, h.ApproveHandler)
		dossiers.POST("/:dossier_id/reject", approve, h.RejectHandler)
		dossiers.POST("/:dossier_id/generate", manage, h.GenerateHandler)
		dossiers.POST("/:dossier_id/deliver", manage, h.DeliverHandler)
		dossiers.GET("/:dossier_id/audit", manage, h.ListAuditHandler)
		dossiers.GET("/:dossier_id/audit/verify", perm(authDomain.PermVerifySignatures), h.VerifyAuditHandler)
		dossiers.GET("/:dossier_id/accesses", manage, h.ListAccessesHandler)
		dossiers.POST("/:dossier_id/accesses", manage, h.RecordAccessHandler)
		dossiers.GET("/:dossier_id/artifact", manage, h.DownloadHandler)
		dossiers.POST("/:dossier_id/verify", perm(authDomain.PermVerifySignatures), h.VerifyHandler)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler pings the database.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
