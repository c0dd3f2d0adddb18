package api

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/streamscout/streamscout/internal/api/handlers"
	apimw "github.com/streamscout/streamscout/internal/api/middleware"
	"github.com/streamscout/streamscout/internal/auth"
	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/gateway"
	"github.com/streamscout/streamscout/internal/health"
	"github.com/streamscout/streamscout/internal/lists"
	"github.com/streamscout/streamscout/internal/metadata"
	"github.com/streamscout/streamscout/internal/recommend"
	"github.com/streamscout/streamscout/internal/scheduler"
	"github.com/streamscout/streamscout/internal/scheduler/tasks"
	"github.com/streamscout/streamscout/internal/scout"
	"github.com/streamscout/streamscout/internal/websocket"
)

// Server handles HTTP requests for the Stream Scout gateway.
type Server struct {
	echo   *echo.Echo
	db     *sql.DB
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config

	logsProvider LogsProvider

	// Services
	authService     *auth.Service
	metadataService *metadata.Service
	healthService   *health.Service
	pipeline        *scout.Pipeline
	mapper          *recommend.Mapper
	listStore       *lists.Store
	listHistory     *lists.History
	scheduler       *scheduler.Scheduler
}

// NewServer creates a new API server instance. A nil db keeps lists in
// memory; a nil hub disables websocket events.
func NewServer(db *sql.DB, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		db:     db,
		hub:    hub,
		logger: logger,
		cfg:    cfg,
	}

	s.authService = auth.NewService(cfg.Auth.JWTSecret)

	// Upstream clients, cache and enrichment
	s.metadataService = metadata.NewService(cfg, logger)
	s.pipeline = scout.NewPipeline(
		s.metadataService.Catalog(),
		s.metadataService.Ratings(),
		scout.PipelineConfig{
			Region:       cfg.Search.Region,
			MaxResults:   cfg.Search.MaxResults,
			ImageBaseURL: s.metadataService.ImageBaseURL(),
		},
		logger,
	)
	completer := recommend.NewOpenAICompleter(cfg.OpenAI, logger)
	s.mapper = recommend.NewMapper(
		completer,
		s.metadataService.Catalog(),
		s.metadataService.Ratings(),
		s.pipeline,
		recommend.Config{Count: cfg.Recommend.Count, HistoryLimit: cfg.Recommend.HistoryLimit},
		logger,
	)

	// Upstream health registry
	s.healthService = health.NewService(logger)
	s.healthService.Register("tmdb", s.metadataService.TMDB())
	if omdbClient := s.metadataService.OMDB(); omdbClient != nil {
		s.healthService.Register("omdb", omdbClient)
	}
	s.healthService.Register("openai", completer)
	if hub != nil {
		s.healthService.SetBroadcaster(hub)
	}

	// List store, backed by SQLite when a database is available
	var kv lists.KV = lists.NewMemoryKV()
	if db != nil {
		kv = lists.NewSQLiteKV(db)
		s.listHistory = lists.NewHistory(db, logger)
	}
	s.listStore = lists.NewStore(kv, logger)
	if s.listHistory != nil {
		s.listStore.AddNotifier(s.listHistory)
	}
	if hub != nil {
		s.listStore.AddNotifier(lists.NotifierFunc(s.broadcastListChange))
	}

	sched, err := scheduler.New(logger)
	if err != nil {
		return nil, err
	}
	if hub != nil {
		sched.SetBroadcaster(hub)
	}
	if err := tasks.RegisterCachePruneTask(sched, s.metadataService, logger); err != nil {
		return nil, err
	}
	if err := tasks.RegisterUpstreamHealthTask(sched, s.healthService, logger); err != nil {
		return nil, err
	}
	if cfg.Lists.RefreshEnabled {
		if err := tasks.RegisterListRefreshTask(sched, s.listStore, s.pipeline, s.metadataService.Catalog(), logger); err != nil {
			return nil, err
		}
	}
	if s.listHistory != nil {
		if err := tasks.RegisterListHistoryCleanupTask(sched, s.listHistory, cfg.Lists.HistoryRetentionDays); err != nil {
			return nil, err
		}
	}
	s.scheduler = sched

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) broadcastListChange(_ context.Context, change lists.Change) {
	if err := s.hub.Broadcast(websocket.EventListsChanged, change); err != nil {
		s.logger.Warn().Err(err).Str("list", change.List).Msg("Failed to broadcast list change")
	}
}

// SetLogsProvider sets the source for the recent-logs endpoint.
func (s *Server) SetLogsProvider(provider LogsProvider) {
	s.logsProvider = provider
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(apimw.SecurityHeaders("/api", "/tmdb_", "/omdb", "/ai_recommend"))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))

	s.echo.Use(apimw.BearerAuth(s.authService, isPublicPath))
}

// isPublicPath reports whether a route is reachable without a token.
func isPublicPath(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/health" || p == "/ws" || strings.HasPrefix(p, "/ws/")
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}

	// Extension-compatible proxy routes
	gatewayHandlers := gateway.NewHandlers(s.metadataService, s.pipeline, s.mapper, s.listStore, s.logger)
	gatewayHandlers.RegisterLegacyRoutes(s.echo.Group(""))

	// API v1 group
	api := s.echo.Group("/api/v1")

	// System routes
	api.GET("/status", s.getStatus)
	NewLogsHandlers(s).RegisterRoutes(api.Group("/system/logs"))

	// Upstream health
	health.NewHandlers(s.healthService).RegisterRoutes(api.Group("/health"))

	// Native search, lookup and detection
	gatewayHandlers.RegisterRoutes(api)

	// Metadata routes
	metadata.NewHandlers(s.metadataService).RegisterRoutes(api.Group("/metadata"))

	// List routes
	lists.NewHandlers(s.listStore, s.listHistory).RegisterRoutes(api.Group("/lists"))

	// Scheduler routes
	handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(api.Group("/tasks"))
}

// Start runs the scheduler and begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown stops the scheduler and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Metadata returns the metadata service.
func (s *Server) Metadata() *metadata.Service {
	return s.metadataService
}

// Health returns the upstream health registry.
func (s *Server) Health() *health.Service {
	return s.healthService
}

// Scheduler returns the task scheduler.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Version         string                    `json:"version"`
	Providers       []metadata.ProviderStatus `json:"providers"`
	CacheItems      int                       `json:"cacheItems"`
	AIConfigured    bool                      `json:"aiConfigured"`
	AuthEnabled     bool                      `json:"authEnabled"`
	PersistentLists bool                      `json:"persistentLists"`
	Clients         int                       `json:"clients"`
	HasIssues       bool                      `json:"hasIssues"`
}

func (s *Server) getStatus(c echo.Context) error {
	st := s.metadataService.Status()
	resp := StatusResponse{
		Version:         config.Version,
		Providers:       st.Providers,
		CacheItems:      st.CacheItems,
		AIConfigured:    s.mapper.IsConfigured(),
		AuthEnabled:     s.authService.Enabled(),
		PersistentLists: s.db != nil,
		HasIssues:       s.healthService.GetAll().HasIssues,
	}
	if s.hub != nil {
		resp.Clients = s.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, resp)
}
