package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soundprediction/lancong"
	"github.com/soundprediction/lancong/pkg/config"
	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/server/handlers"
	"github.com/soundprediction/lancong/pkg/types"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	lancong lancong.Lancong
	server  *http.Server
	logger  *slog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, client lancong.Lancong, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:  cfg,
		lancong: client,
		logger:  logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(metrics.Middleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the configured router. Setup must be called first.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	limits := handlers.DefaultLimits()
	if s.config.Server.MaxK > 0 {
		limits.MaxK = s.config.Server.MaxK
	}
	if s.config.Server.MaxEnrich > 0 {
		limits.MaxEnrich = s.config.Server.MaxEnrich
	}

	var pinger handlers.Pinger
	if s.lancong != nil {
		pinger = s.lancong
	}
	healthHandler := handlers.NewHealthHandler(pinger)

	s.router.GET("/", healthHandler.Root)
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.lancong == nil {
		return
	}

	searchHandler := handlers.NewSearchHandler(s.lancong, limits, s.logger)
	placeHandler := handlers.NewPlaceHandler(s.lancong, s.logger)
	queryHandler := handlers.NewQueryHandler(s.lancong, s.logger)

	search := s.router.Group("/search")
	{
		search.GET("", searchHandler.Lexical)
		search.GET("/vector", searchHandler.Vector)
		search.GET("/rerank", searchHandler.Rerank)
		search.GET("/rerank/advanced", searchHandler.RerankAdvanced)
	}

	s.router.GET("/places/:id", placeHandler.GetPlace)
	s.router.GET("/infobox/:id", placeHandler.GetInfobox)
	s.router.GET("/packages", placeHandler.ListPackages)
	s.router.GET("/packages/:id", placeHandler.GetPackage)
	s.router.GET("/packages/:id/places", placeHandler.GetPackagePlaces)

	s.router.POST("/query", queryHandler.RunQuery)
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextMiddleware assigns a request id and marks the request source.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), types.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"request_id", c.Request.Context().Value(types.ContextKeyRequestID))
	}
}
