package api

import (
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/sony/gobreaker"

	"github.com/shopworks/foreman/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
// Only missing wiring makes the service unhealthy. An open circuit breaker
// is merely degraded: every run still completes on the deterministic
// fallbacks, so the orchestrator must not restart the process over an
// unreachable model provider.
func (s *Server) healthHandler(c *echo.Context) error {
	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if s.pipeline == nil {
		status = healthStatusUnhealthy
		checks["pipeline"] = HealthCheck{Status: healthStatusUnhealthy, Message: "pipeline not configured"}
	} else {
		checks["pipeline"] = HealthCheck{Status: healthStatusHealthy}
	}

	if s.breaker != nil && s.breaker.State() != gobreaker.StateClosed {
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
		checks["llm"] = HealthCheck{
			Status:  healthStatusDegraded,
			Message: fmt.Sprintf("circuit breaker %s", s.breaker.State()),
		}
	} else {
		checks["llm"] = HealthCheck{Status: healthStatusHealthy}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	stats := s.cfg.Stats()
	return c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.GitCommit,
		Checks:  checks,
		Configuration: ConfigurationStats{
			LLMProviders: stats.LLMProviders,
			DebugEnabled: stats.DebugEnabled,
		},
	})
}
