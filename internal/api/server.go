package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/middleware"
	"github.com/ascod-toast-classifier/internal/schema"
	"github.com/ascod-toast-classifier/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	analyzer      *service.AnalyzerService
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, analyzer *service.AnalyzerService, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger(logger))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	router.Use(requestIDMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.RequestTimeout(cfg.Server.WriteTimeout))

	server := &Server{
		configManager: configManager,
		analyzer:      analyzer,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/encode", s.handleEncode)
		api.GET("/rulebook", s.handleRulebook)
	}

	s.router.NoRoute(func(c *gin.Context) {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeNotFound, "route not found", c.Request.URL.Path, c.GetString("request_id")))
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"timestamp":            time.Now().UTC(),
		"version":              Version,
		"classifier_available": s.analyzer.ClassifierAvailable(),
		"rulebook_version":     domain.RulebookVersion,
	})
}

// handleAnalyze runs the full classification pipeline for one payload
func (s *Server) handleAnalyze(c *gin.Context) {
	if !s.analyzer.ClassifierAvailable() {
		s.writeError(c, domain.ErrClassifierUnavailable)
		return
	}

	payload, err := s.readPayload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), payload)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.NewAnalyzeResponse(result))
}

// handleEncode renders the narrative for structured fields without
// contacting the classifier
func (s *Server) handleEncode(c *gin.Context) {
	payload, err := s.readPayload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	text, err := s.analyzer.Encode(payload)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.EncodeResponse{
		Success:       true,
		ClinicalText:  text,
		SchemaVersion: schema.MustDefaultRegistry().Version(),
	})
}

// handleRulebook returns the rulebook sent with every request
func (s *Server) handleRulebook(c *gin.Context) {
	c.JSON(http.StatusOK, domain.NewRulebookResponse())
}

// readPayload decodes the body as a JSON object, keeping numbers as
// json.Number so the normalizer sees the caller's exact digits.
func (s *Server) readPayload(c *gin.Context) (map[string]interface{}, error) {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()

	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.NewAPIError(domain.ErrCodePayloadTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), "", c.GetString("request_id"))
		}
		return nil, domain.NewValidationError("", "request body must be a JSON object", nil)
	}
	if payload == nil {
		return nil, domain.NewValidationError("", "request body must be a JSON object", nil)
	}
	return payload, nil
}

// writeError maps pipeline errors to HTTP status codes
func (s *Server) writeError(c *gin.Context, err error) {
	resp := domain.NewErrorResponse(err)
	status := StatusForCode(resp.Code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

// StatusForCode returns the HTTP status for an error code.
func StatusForCode(code string) int {
	switch code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeRequestFailed, domain.ErrCodeDecode:
		return http.StatusBadGateway
	case domain.ErrCodeClassifierUnavailable:
		return http.StatusServiceUnavailable
	case domain.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return uuid.New().String()
}
