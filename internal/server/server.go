// Package server exposes the inspector over an HTTP API.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// Scanner runs inspections on behalf of the API
type Scanner interface {
	Scan(ctx context.Context, domain string) (*inspector.ScanReport, error)
	Rescan(ctx context.Context, domain string) (*inspector.ScanReport, error)
}

// Options configures the HTTP server
type Options struct {
	Listen string
	// RateLimit is requests per second per client; zero disables limiting
	RateLimit float64
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// ErrorResponse is returned when a scan cannot produce a report
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// Server serves scan reports over HTTP
type Server struct {
	echo    *echo.Echo
	scanner Scanner
	logger  *zap.Logger
	opts    Options
}

// New creates a Server and registers its routes
func New(opts Options, scanner Scanner, logger *zap.Logger) *Server {
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		scanner: scanner,
		logger:  logger,
		opts:    opts,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRemoteIP:   true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	if opts.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimit))))
	}

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/scan/:domain", s.scan)

	return s
}

// Handler returns the server as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", zap.String("address", s.opts.Listen))
		if err := s.echo.Start(s.opts.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) logRequest(_ echo.Context, v middleware.RequestLoggerValues) error {
	fields := []zap.Field{
		zap.String("method", v.Method),
		zap.String("uri", v.URI),
		zap.Int("status", v.Status),
		zap.Duration("latency", v.Latency),
		zap.String("remote_ip", v.RemoteIP),
	}
	if v.Error != nil {
		s.logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
		return nil
	}
	s.logger.Debug("request", fields...)
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) scan(c echo.Context) error {
	domain := c.Param("domain")

	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))
	run := s.scanner.Scan
	if refresh {
		run = s.scanner.Rescan
	}

	report, err := run(c.Request().Context(), domain)
	if err != nil {
		return c.JSON(statusFor(err), newErrorResponse(domain, err))
	}
	return c.JSON(http.StatusOK, report)
}

func statusFor(err error) int {
	if errors.Is(err, inspector.ErrInvalidDomain) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func newErrorResponse(domain string, err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Domain: domain}

	var se *inspector.ScanError
	if errors.As(err, &se) {
		resp.Kind = string(se.Kind)
		if se.Domain != "" {
			resp.Domain = se.Domain.String()
		}
	}
	return resp
}
