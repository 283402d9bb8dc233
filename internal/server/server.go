// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ekinalp/suirisk/internal/config"
	"github.com/ekinalp/suirisk/internal/health"
	"github.com/ekinalp/suirisk/internal/identity"
	"github.com/ekinalp/suirisk/internal/idgen"
	"github.com/ekinalp/suirisk/internal/logging"
	"github.com/ekinalp/suirisk/internal/metrics"
	"github.com/ekinalp/suirisk/internal/pools"
	"github.com/ekinalp/suirisk/internal/ratelimit"
	"github.com/ekinalp/suirisk/internal/realtime"
	"github.com/ekinalp/suirisk/internal/retry"
	"github.com/ekinalp/suirisk/internal/security"
	"github.com/ekinalp/suirisk/internal/surflux"
	"github.com/ekinalp/suirisk/internal/traces"
	"github.com/ekinalp/suirisk/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	market      pools.MarketClient
	poolSvc     *pools.Service
	identitySvc *identity.Service
	realtimeHub *realtime.Hub
	healthReg   *health.Registry
	rateLimiter *ratelimit.Limiter
	db          *sql.DB // nil if using in-memory
	router      *gin.Engine
	httpSrv     *http.Server
	logger      *slog.Logger

	cancelRunCtx func()                      // cancels background goroutines started in Run
	tracesStop   func(context.Context) error // flushes the tracer provider on shutdown

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMarketClient sets a custom market data client (for testing)
func WithMarketClient(m pools.MarketClient) Option {
	return func(s *Server) {
		s.market = m
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set market client/logger)
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	if s.market == nil {
		s.market = surflux.NewClient(surflux.Config{
			BaseURL: cfg.SurfluxBaseURL,
			APIKey:  cfg.SurfluxAPIKey,
			Timeout: cfg.SurfluxTimeout,
		})
	}

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	var poolStore pools.Store
	var identityStore identity.Store
	if cfg.DatabaseURL != "" {
		db, err := openDatabase(ctx, cfg, s.logger)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		pgPools := pools.NewPostgresStore(db)
		if err := pgPools.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate pool store", "error", err)
		}
		poolStore = pgPools

		pgIdentity := identity.NewPostgresStore(db)
		if err := pgIdentity.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate identity store", "error", err)
		}
		identityStore = pgIdentity

		metrics.StartDBStatsCollector(ctx, db, 15*time.Second)
	} else {
		s.logger.Info("using in-memory storage (set DATABASE_URL for persistence)")
		poolStore = pools.NewMemoryStore()
		identityStore = identity.NewMemoryStore()
	}

	s.poolSvc = pools.NewService(poolStore, s.market)
	s.identitySvc = identity.NewService(identityStore, identity.MoveTarget{
		PackageID: cfg.SuiRiskPackageID,
		Module:    cfg.SuiRiskModule,
		Function:  cfg.SuiRiskFunctionMint,
	})

	// Real-time streaming
	s.realtimeHub = realtime.NewHub(s.logger)
	s.poolSvc.SetEvents(&metricEventEmitter{s.realtimeHub})
	s.identitySvc.SetEvents(&identityEventEmitter{s.realtimeHub})

	// Subsystem health checks
	s.healthReg = health.NewRegistry()
	if s.db != nil {
		db := s.db
		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			if err := db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	}
	s.healthReg.Register("surflux", func(ctx context.Context) health.Status {
		if cfg.SurfluxAPIKey == "" {
			return health.Status{Name: "surflux", Healthy: false, Detail: "SURFLUX_API_KEY not set"}
		}
		return health.Status{Name: "surflux", Healthy: true}
	})

	// Tracing
	stopTraces, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.tracesStop = stopTraces
	}

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)
	return s, nil
}

// openDatabase opens the connection pool, waiting for the database to come
// up. In containerized deploys the app regularly starts before Postgres
// finishes booting.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = retry.DoFixed(ctx, cfg.DBWaitAttempts, cfg.DBWaitInterval, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Info("waiting for database", "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		// Keep serving; the readiness probe and /db-health surface the
		// missing database while Postgres recovers.
		logger.Error("database not reachable after wait, continuing without it confirmed",
			"attempts", cfg.DBWaitAttempts, "error", err)
	}

	return db, nil
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPM > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	}
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/", s.infoHandler)
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/db-health", s.dbHealthHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})
	s.router.GET("/ws/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.realtimeHub.Stats())
	})

	root := s.router.Group("")
	pools.NewHandler(s.poolSvc).RegisterRoutes(root)
	identity.NewHandler(s.identitySvc).RegisterRoutes(root)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Sui Liquidity Risk Index",
		"description": "Risk scoring for DeepBook liquidity pools and wallet risk identities",
		"version":     "0.1.0",
		"chain":       "sui-testnet",
		"rpc":         s.cfg.SuiRPCURL,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) dbHealthHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"database": "in-memory",
			"status":   "ok",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"database": "postgres",
			"status":   "error",
			"message":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"database": "postgres",
		"status":   "ok",
	})
}

// -----------------------------------------------------------------------------
// Run / Shutdown
// -----------------------------------------------------------------------------

// Run starts the HTTP server and blocks until a shutdown signal arrives or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"env", s.cfg.Env,
			"surflux", s.cfg.SurfluxBaseURL,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.realtimeHub.Run(runCtx)

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, collectors)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Flush any pending spans
	if s.tracesStop != nil {
		if err := s.tracesStop(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Hub returns the realtime hub (started by Run; tests run it themselves).
func (s *Server) Hub() *realtime.Hub {
	return s.realtimeHub
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	return idgen.Hex(16)
}

// -----------------------------------------------------------------------------
// Realtime event adapters
// -----------------------------------------------------------------------------

type metricEventEmitter struct {
	hub *realtime.Hub
}

func (e *metricEventEmitter) MetricCaptured(pool *pools.Pool, m *pools.Metric) {
	e.hub.BroadcastMetric(pool.ID, pool.PoolName, m.RiskScore, m.TVLUSD)
}

type identityEventEmitter struct {
	hub *realtime.Hub
}

func (e *identityEventEmitter) IdentityMinted(rec *identity.RiskIdentity) {
	e.hub.BroadcastIdentity(rec.Address, rec.Score, rec.Level, rec.TxDigest)
}
