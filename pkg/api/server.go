// Package api exposes the HTTP surface: the simulate and onboard endpoints,
// a health probe, and Prometheus metrics, all served through echo v5.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/pipeline"
)

// BreakerProbe reports the model gateway's circuit breaker state to the
// health endpoint.
type BreakerProbe interface {
	State() gobreaker.State
}

// Server wires the HTTP routes to the pipeline. The breaker probe and the
// metrics gatherer are optional; their endpoints degrade gracefully when
// they are not set.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   *slog.Logger

	echo       *echo.Echo
	httpServer *http.Server

	srv          *config.ServerConfig
	includeDebug bool

	breaker     BreakerProbe
	promHandler http.Handler
}

// NewServer builds the server and registers all routes and middleware.
// Panics if cfg is nil. pl may be nil; the simulate and onboard endpoints
// then answer 503 and the health endpoint reports unhealthy.
func NewServer(cfg *config.Config, pl *pipeline.Pipeline) *Server {
	if cfg == nil {
		panic("api.NewServer: cfg must not be nil")
	}

	srv := cfg.Server
	if srv == nil {
		srv = config.DefaultServerConfig()
	}
	includeDebug := true
	if cfg.Pipeline != nil {
		includeDebug = cfg.Pipeline.IncludeDebug
	}

	s := &Server{
		cfg:          cfg,
		pipeline:     pl,
		logger:       slog.Default(),
		echo:         echo.New(),
		srv:          srv,
		includeDebug: includeDebug,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetBreakerProbe wires the gateway circuit breaker into the health check.
// Without a probe the llm check always reports healthy.
func (s *Server) SetBreakerProbe(probe BreakerProbe) {
	s.breaker = probe
}

// SetMetricsGatherer wires a Prometheus registry behind GET /metrics.
// Without a gatherer the endpoint answers 503.
func (s *Server) SetMetricsGatherer(g prometheus.Gatherer) {
	s.promHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (s *Server) registerRoutes() {
	e := s.echo

	e.Use(requestLogger(s.logger))
	e.Use(securityHeaders())
	e.Use(corsAllowList(corsOrigins(s.srv)))
	e.Use(bodyLimit(s.srv.MaxBodyBytes))

	e.POST("/api/simulate", s.simulateHandler)
	e.POST("/api/onboard", s.onboardHandler)
	e.GET("/health", s.healthHandler)
	e.GET("/metrics", s.metricsHandler)
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen on %s: %w", addr, err)
	}
	return s.StartWithListener(ln)
}

// StartWithListener serves on an existing listener. Returns nil after a
// graceful Shutdown.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(c *echo.Context) error {
	if s.promHandler == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "metrics not configured")
	}
	s.promHandler.ServeHTTP(c.Response(), c.Request())
	return nil
}
