package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/qbridge/internal/api/http"
	"github.com/GriffinCanCode/qbridge/internal/api/middleware"
	"github.com/GriffinCanCode/qbridge/internal/api/ws"
	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/session"
	"github.com/GriffinCanCode/qbridge/internal/domain/ui"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/qbridge/internal/providers/node"
	"github.com/GriffinCanCode/qbridge/internal/providers/render"
	"github.com/GriffinCanCode/qbridge/internal/providers/sandbox"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	hub      *ui.Hub
	sandbox  *sandbox.Pool
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a server from cfg. A nil logger builds one from
// cfg.Logging.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		l, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}

	view, err := page.ParseView(cfg.Bridge.View)
	if err != nil {
		return nil, err
	}
	convention, err := dispatch.ParseConvention(cfg.Bridge.Convention)
	if err != nil {
		return nil, err
	}
	domains, err := config.LoadDomainMap(cfg.Bridge.DomainMapFile)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing bridge",
		zap.String("port", cfg.Server.Port),
		zap.String("node", cfg.Node.URL),
		zap.String("view", string(view)),
		zap.String("convention", string(convention)),
		zap.Bool("gateway", cfg.Bridge.Gateway),
		zap.Int("mapped_domains", len(domains)),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("qbridge", logger)

	nodeCfg := node.DefaultConfig()
	nodeCfg.BaseURL = cfg.Node.URL
	nodeCfg.APIKey = cfg.Node.APIKey
	nodeCfg.Timeout = cfg.Node.Timeout
	nodeCfg.RetryMax = cfg.Node.RetryMax
	nodeCfg.RateLimit = cfg.Node.RateLimit
	nodeCfg.Burst = cfg.Node.Burst
	nodeCfg.BreakerCooldown = cfg.Node.BreakerCooldown
	nodeClient := node.New(nodeCfg, logger)
	nodeClient.SetObserver(metrics)

	timeouts := correlator.DefaultTimeouts()
	timeouts.Default = cfg.Bridge.DefaultTimeout

	hub := ui.NewHub(logger)
	sessions := session.NewManager(nodeClient, hub, session.Config{
		Routes:        dispatch.TableFor(convention),
		Timeouts:      timeouts,
		Gateway:       cfg.Bridge.Gateway,
		GatewayNotice: cfg.Bridge.GatewayNotice,
	}, metrics, logger)

	renderer := render.New(nodeClient, render.WithObserver(metrics),
		render.WithTimeouts(timeouts), render.WithLogger(logger))

	var pool *sandbox.Pool
	if cfg.Sandbox.PoolSize > 0 {
		sbCfg := sandbox.DefaultConfig()
		sbCfg.Timeout = cfg.Sandbox.Timeout
		pool, err = sandbox.NewPool(sbCfg, cfg.Sandbox.PoolSize, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
		}
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Sessions: sessions,
		Hub:      hub,
		Renderer: renderer,
		Sandbox:  pool,
		Node:     nodeClient,
		Domains:  domains,
		View:     view,
		Theme:    cfg.Bridge.Theme,
		Gateway:  cfg.Bridge.Gateway,
		Logger:   logger,
	})
	upgrader := ws.NewUpgrader(cfg.Server.AllowedOrigins)
	bridgeHandler := ws.NewBridgeHandler(sessions, view, upgrader, metrics, logger)
	uiHandler := ws.NewUIHandler(hub, upgrader, metrics, logger)

	Routes(router, handlers, bridgeHandler, uiHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		sessions: sessions,
		hub:      hub,
		sandbox:  pool,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Routes registers the bridge endpoints on router.
func Routes(router *gin.Engine, h *apihttp.Handlers, bridge *ws.BridgeHandler, uiLayer *ws.UIHandler) {
	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)
	router.GET("/sessions", h.ListSessions)

	// Sockets
	router.GET("/bridge", bridge.HandleConnection)
	router.GET("/ui", uiLayer.HandleConnection)
	router.GET(render.ScriptPath, h.BridgeScript)

	// Requests
	router.POST("/request", h.Request)
	router.POST("/request/sync", h.RequestSync)
	router.GET("/resource-url", h.ResourceURL)
	router.POST("/resolve", h.Resolve)
	router.POST("/sandbox/run", h.RunScript)
	router.POST("/logs", h.StreamLogs)

	// Rendering
	router.GET("/render/:service/:name/*path", h.Render)
	router.NoRoute(h.Fallback)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down server...")
	// Hijacked sockets are not tracked by Shutdown; end their sessions first.
	s.sessions.CloseAll()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Close releases the server's resources.
func (s *Server) Close() error {
	if s.sandbox != nil {
		if err := s.sandbox.Close(); err != nil {
			s.logger.Error("Failed to close sandbox pool", zap.Error(err))
		}
	}
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
