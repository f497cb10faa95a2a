package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/service"
)

// Server represents the HTTP server. It is presentation plumbing only:
// all decision logic lives in the analyzer and its collaborators.
type Server struct {
	config   *domain.ServerConfig
	logger   *logrus.Logger
	analyzer *service.AnalyzerService
	store    domain.ResultStore // nil disables archive lookups
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(config *domain.Config, logger *logrus.Logger, analyzer *service.AnalyzerService, store domain.ResultStore) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	server := &Server{
		config:   &config.Server,
		logger:   logger,
		analyzer: analyzer,
		store:    store,
		router:   router,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/drugs", s.handleListDrugs)
		v1.GET("/analyses/:id", s.handleGetAnalysis)
		v1.GET("/patients/:id/analyses", s.handleListPatientAnalyses)
	}
}

// analyzeRequest is the JSON body for POST /api/v1/analyze.
type analyzeRequest struct {
	VCFContent string   `json:"vcf_content" binding:"required"`
	Drugs      []string `json:"drugs" binding:"required,min=1"`
	PatientID  string   `json:"patient_id"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// handleAnalyze runs the pharmacogenomic analysis for one VCF payload and
// drug list. Structural VCF problems are a 422; everything else degrades
// inside the analyzer and still produces well-formed results.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := s.analyzer.AnalyzeVCF(c.Request.Context(), req.VCFContent, req.PatientID, req.Drugs)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrInvalidFormat) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.logger.WithError(err).Error("Analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"requested": len(req.Drugs),
		"analyzed":  len(results),
	})
}

// handleListDrugs returns the supported drug names.
func (s *Server) handleListDrugs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"drugs": s.analyzer.SupportedDrugs()})
}

// handleGetAnalysis retrieves one archived result.
func (s *Server) handleGetAnalysis(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "result archive not configured"})
		return
	}

	result, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.logger.WithError(err).Error("Archive lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive lookup failed"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleListPatientAnalyses lists archived results for one patient.
func (s *Server) handleListPatientAnalyses(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "result archive not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	results, err := s.store.ListByPatient(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.logger.WithError(err).Error("Archive lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analyses": results})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
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
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
