package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/shopworks/foreman/pkg/pipeline"
)

// simulateHandler handles POST /api/simulate.
// Runs the full ten-stage pipeline and returns the complete result. The
// pipeline degrades internally rather than failing, so the response is 200
// even when overall_status is PARTIAL or FAILED.
func (s *Server) simulateHandler(c *echo.Context) error {
	if s.pipeline == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "pipeline not configured")
	}

	// 1. Bind HTTP request
	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return mapPipelineError(err)
	}

	// 2. Validate key presence and field sizes
	if err := req.validate(); err != nil {
		return mapPipelineError(err)
	}

	// 3. Run the pipeline
	result := s.pipeline.Run(c.Request().Context(), pipeline.Request{
		FactoryDescription: *req.FactoryDescription,
		SituationText:      *req.SituationText,
	})

	// 4. Return response
	resp := &SimulateResponse{
		Factory:  result.Factory,
		Specs:    result.Specs,
		Metrics:  result.Metrics,
		Briefing: result.Briefing,
		Meta:     result.Meta,
	}
	if s.includeDebug {
		resp.Debug = result.Debug
	}
	return c.JSON(http.StatusOK, resp)
}
