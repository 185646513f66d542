// Package server exposes glossgen's HTTP surface: health, Prometheus
// metrics and read access to validation reports.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/config"
	"github.com/lexcraftlabs/glossgen/internal/report"
	"github.com/lexcraftlabs/glossgen/internal/review"
)

// Server is the HTTP server for serve mode.
type Server struct {
	cfg     config.ServerConfig
	echo    *echo.Echo
	reports *report.FileStore
	reviews *review.FileSink
	logger  *zap.Logger
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// New creates the server and registers routes.
func New(cfg config.ServerConfig, reports *report.FileStore, reviews *review.FileSink, logger *zap.Logger) (*Server, error) {
	if reports == nil {
		return nil, errors.New("report store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		cfg:     cfg,
		echo:    e,
		reports: reports,
		reviews: reviews,
		logger:  logger,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/reports/:batch", s.handleReport)
	if s.reviews != nil {
		s.echo.GET("/reviews", s.handleReviews)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "glossgen",
	})
}

// handleReport serves the persisted validation report for a batch.
func (s *Server) handleReport(c echo.Context) error {
	batchID := c.Param("batch")
	r, err := s.reports.Load(batchID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("no report for batch %q", batchID),
		})
	}
	return c.JSON(http.StatusOK, r)
}

// handleReviews lists the manual review backlog.
func (s *Server) handleReviews(c echo.Context) error {
	entries, err := s.reviews.ReadEntries()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to read review entries",
		})
	}
	return c.JSON(http.StatusOK, entries)
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully. Returns http.ErrServerClosed on clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	errCh := make(chan error, 1)

	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()
	s.logger.Info("http server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying router for registering extra routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
