// Package server provides the HTTP API for symptom extraction and review.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/catalog"
	"github.com/rcliao/symptom-catalog/internal/guardrail"
	"github.com/rcliao/symptom-catalog/internal/metrics"
	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/normalizer"
	"github.com/rcliao/symptom-catalog/internal/service"
	"github.com/rcliao/symptom-catalog/internal/store"
)

// maxBodySize caps request bodies; transcripts beyond the extractor's input
// limit are truncated anyway.
const maxBodySize = "1M"

// Server provides HTTP endpoints over a Service.
type Server struct {
	echo    *echo.Echo
	svc     *service.Service
	logger  *zap.Logger
	metrics *metrics.Metrics
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Metrics records request counters. Nil disables them.
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// NewServer creates a new HTTP server.
func NewServer(svc *service.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		svc:     svc,
		logger:  logger,
		metrics: cfg.Metrics,
		config:  cfg,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(s.observe)

	s.registerRoutes()

	return s, nil
}

// observe logs and counts each request. Bodies are never logged since they
// carry patient transcripts.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}

		s.metrics.ObserveHTTP(c.Request().Method, c.Path(), status, duration)
		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)

		return err
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	s.echo.POST("/extract_symptoms", s.handleExtract)
	s.echo.GET("/unknown_symptoms", s.handleUnknowns)
	s.echo.POST("/approve_symptom", s.handleApprove)
	s.echo.GET("/reviews", s.handleReviews)

	s.echo.GET("/catalog/lookup", s.handleLookup)
	s.echo.GET("/catalog/categories", s.handleCategories)
	s.echo.POST("/catalog/reload", s.handleReload)

	if s.config.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// ExtractRequest is the request body for POST /extract_symptoms.
type ExtractRequest struct {
	Transcript string `json:"transcript"`
	Guardrail  bool   `json:"guardrail"`
}

// ExtractResponse is the response body for POST /extract_symptoms.
type ExtractResponse struct {
	model.ExtractionResult
	SymptomCount int    `json:"symptom_count"`
	UnknownCount int    `json:"unknown_count"`
	Guardrail    string `json:"guardrail,omitempty"`
}

// UnknownsResponse is the response body for GET /unknown_symptoms.
type UnknownsResponse struct {
	UnknownMentions []string `json:"unknown_mentions"`
}

// ApproveRequest is the request body for POST /approve_symptom.
type ApproveRequest = service.ApproveParams

// ApproveResponse is the response body for POST /approve_symptom.
type ApproveResponse struct {
	Symptom model.Symptom `json:"symptom"`
}

// ReviewsResponse is the response body for GET /reviews.
type ReviewsResponse struct {
	Reviews []model.ReviewItem `json:"reviews"`
}

// ReloadResponse is the response body for POST /catalog/reload.
type ReloadResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	CatalogEntries int    `json:"catalog_entries"`
	Reviews        bool   `json:"reviews"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		CatalogEntries: s.svc.Catalog().Len(),
		Reviews:        s.svc.ReviewsEnabled(),
	})
}

func (s *Server) handleExtract(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid extract request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.svc.Extract(c.Request().Context(), req.Transcript)
	if err != nil {
		return httpError(err)
	}

	resp := ExtractResponse{
		ExtractionResult: result,
		SymptomCount:     result.SymptomCount(),
		UnknownCount:     result.UnknownCount(),
	}
	if req.Guardrail {
		resp.Guardrail = guardrail.Block(result)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUnknowns(c echo.Context) error {
	unknown := s.svc.PeekLastUnknowns()
	if unknown == nil {
		unknown = []string{}
	}
	return c.JSON(http.StatusOK, UnknownsResponse{UnknownMentions: unknown})
}

func (s *Server) handleApprove(c echo.Context) error {
	var req ApproveRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid approve request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sym, err := s.svc.Approve(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ApproveResponse{Symptom: sym})
}

func (s *Server) handleReviews(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && !model.ValidReviewStatuses[status] {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be pending or approved")
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	items, err := s.svc.Reviews(c.Request().Context(), store.ListParams{Status: status, Limit: limit})
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []model.ReviewItem{}
	}
	return c.JSON(http.StatusOK, ReviewsResponse{Reviews: items})
}

func (s *Server) handleLookup(c echo.Context) error {
	phrase := c.QueryParam("phrase")
	if phrase == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "phrase query parameter is required")
	}
	sym, ok := s.svc.Lookup(phrase)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "phrase is not in the catalog")
	}
	return c.JSON(http.StatusOK, sym)
}

func (s *Server) handleCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Catalog().Categories())
}

func (s *Server) handleReload(c echo.Context) error {
	if err := s.svc.Reload(); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ReloadResponse{Status: "reloaded", Entries: s.svc.Catalog().Len()})
}

// httpError maps service errors to status codes. Messages of server-side
// failures are not echoed to the client.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, normalizer.ErrEmptyInput), errors.Is(err, normalizer.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrDuplicateAlias):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrReviewsDisabled):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrPersistenceWrite):
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist catalog").SetInternal(err)
	case errors.Is(err, service.ErrReviewLog):
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to write review log").SetInternal(err)
	case errors.Is(err, catalog.ErrCatalogLoad):
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load catalog").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
