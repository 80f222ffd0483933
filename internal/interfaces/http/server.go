// Package http provides the HTTP adapter of the form backend.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/garyjia/travel-support/internal/application/service"
)

// Version is reported by the health check
const Version = "1.0.0"

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics instruments the router and serves the scrape endpoint
type Metrics interface {
	GinMiddleware() gin.HandlerFunc
	Handler() http.Handler
}

// UploadLimits bounds multipart uploads
type UploadLimits struct {
	MaxFileBytes int64
	MaxFiles     int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins empty allows any origin
	AllowedOrigins []string

	// LookupRate limits the directory endpoints per client IP, e.g. "60-M"
	LookupRate string

	Uploads UploadLimits
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LookupRate:      "60-M",
		Uploads:         UploadLimits{MaxFileBytes: 10 << 20, MaxFiles: 10},
	}
}

// Deps are the collaborators the routes are served by. Refresh, Metrics and Health
// are optional.
type Deps struct {
	Forms    service.FormService
	Requests service.RequestService
	Refresh  http.Handler
	Metrics  Metrics
	Health   HealthFunc
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Deps
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Deps, logger Logger) (*Server, error) {
	if deps.Forms == nil || deps.Requests == nil {
		return nil, fmt.Errorf("form and request services are required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if config.Uploads.MaxFileBytes > 0 {
		router.MaxMultipartMemory = config.Uploads.MaxFileBytes
	}

	server := &Server{
		config: config,
		router: router,
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()

	if err := server.setupRoutes(); err != nil {
		return nil, err
	}

	return server, nil
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware(s.config.AllowedOrigins))
	if s.deps.Metrics != nil {
		s.router.Use(s.deps.Metrics.GinMiddleware())
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware answers preflight requests for the portal origins
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowed) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// lookupLimiter limits directory queries per client IP
func lookupLimiter(formatted string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid lookup rate %q: %w", formatted, err)
	}

	return mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, Response{Success: false, Error: "too many lookups, slow down"})
		}),
	), nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() error {
	handlers := NewHandlers(s.deps.Forms, s.deps.Requests, s.deps.Health, s.config.Uploads, s.logger)

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if s.config.LookupRate != "" {
		var err error
		if limit, err = lookupLimiter(s.config.LookupRate); err != nil {
			return err
		}
	}

	s.router.GET("/health", handlers.HealthCheck)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	api := s.router.Group("/api")
	{
		// Forms
		api.GET("/forms", handlers.ListForms)
		api.GET("/forms/:form", handlers.GetForm)
		api.POST("/forms/:form/sessions", handlers.OpenSession)
		api.POST("/forms/:form/submissions", handlers.SubmitOnce)

		// Sessions
		api.GET("/sessions/:id", handlers.GetSession)
		api.DELETE("/sessions/:id", handlers.CloseSession)
		api.POST("/sessions/:id/reset", handlers.ResetSession)
		api.PUT("/sessions/:id/values", handlers.UpdateValues)
		api.POST("/sessions/:id/lookups", limit, handlers.Lookup)
		api.POST("/sessions/:id/attachments", handlers.StageAttachments)
		api.DELETE("/sessions/:id/attachments/:name", handlers.RemoveAttachment)
		api.POST("/sessions/:id/submit", handlers.Submit)

		// Directory
		api.GET("/employees", limit, handlers.FindEmployee)

		// Requests
		api.GET("/requests", handlers.ListRequests)
		api.GET("/requests/export", handlers.ExportRequests)
		if s.deps.Refresh != nil {
			api.GET("/requests/stream", gin.WrapH(s.deps.Refresh))
		}
		api.GET("/requests/:id", handlers.GetRequest)
		api.GET("/requests/:id/attachments", handlers.ListAttachments)
		api.GET("/requests/:id/attachments/:name", handlers.DownloadAttachment)
	}
	return nil
}

// Start starts the HTTP server and blocks until ctx is cancelled or serving fails
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
