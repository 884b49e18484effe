package api

import (
	"github.com/shopworks/foreman/pkg/models"
)

// SimulateResponse is returned by POST /api/simulate. Specs and Metrics
// always have equal length and Briefing is never empty; Debug is present
// only when instrumentation is enabled.
type SimulateResponse struct {
	Factory  *models.FactoryConfig        `json:"factory"`
	Specs    []models.ScenarioSpec        `json:"specs"`
	Metrics  []models.ScenarioMetrics     `json:"metrics"`
	Briefing string                       `json:"briefing"`
	Meta     models.OnboardingMeta        `json:"meta"`
	Debug    *models.PipelineDebugPayload `json:"debug,omitempty"`
}

// OnboardResponse is returned by POST /api/onboard.
type OnboardResponse struct {
	Factory *models.FactoryConfig `json:"factory"`
	Meta    models.OnboardingMeta `json:"meta"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	Checks        map[string]HealthCheck `json:"checks"`
	Configuration ConfigurationStats     `json:"configuration"`
}

// HealthCheck is the state of one dependency in the health response.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ConfigurationStats contains counts of loaded configuration items.
type ConfigurationStats struct {
	LLMProviders int  `json:"llm_providers"`
	DebugEnabled bool `json:"debug_enabled"`
}
