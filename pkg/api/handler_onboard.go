package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// onboardHandler handles POST /api/onboard.
// Runs only the onboarding stages and returns the factory that came out of
// them, falling back to the built-in demo factory on failure.
func (s *Server) onboardHandler(c *echo.Context) error {
	if s.pipeline == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "pipeline not configured")
	}

	// 1. Bind HTTP request
	var req OnboardRequest
	if err := c.Bind(&req); err != nil {
		return mapPipelineError(err)
	}

	// 2. Validate key presence and field size
	if err := req.validate(); err != nil {
		return mapPipelineError(err)
	}

	// 3. Run onboarding
	result := s.pipeline.RunOnboarding(c.Request().Context(), *req.FactoryDescription)

	// 4. Return response
	return c.JSON(http.StatusOK, &OnboardResponse{
		Factory: result.Factory,
		Meta:    result.Meta,
	})
}
