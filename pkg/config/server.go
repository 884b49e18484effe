package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Listen host (default 0.0.0.0).
	Host string `yaml:"host,omitempty"`

	// Listen port (default 8080).
	Port int `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`

	// Environment variable carrying the comma-separated CORS allow-list.
	CORSOriginsEnv string `yaml:"cors_origins_env,omitempty"`

	// Request body ceiling in bytes; larger simulate/onboard payloads are
	// rejected before the pipeline runs.
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty" validate:"omitempty,min=1024"`

	// Graceful shutdown budget in seconds.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds,omitempty" validate:"omitempty,min=1,max=300"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// PipelineConfig holds pipeline behavior toggles.
type PipelineConfig struct {
	// IncludeDebug controls whether responses carry the per-stage debug
	// payload. The payload is always built; this only controls exposure.
	IncludeDebug bool `yaml:"include_debug"`

	// MaxBriefingTokens caps the D5 briefing generation.
	MaxBriefingTokens int `yaml:"max_briefing_tokens,omitempty" validate:"omitempty,min=1"`
}

// BreakerConfig holds circuit breaker thresholds for the LLM gateway.
type BreakerConfig struct {
	// Consecutive failures before the breaker opens.
	MaxFailures int `yaml:"max_failures,omitempty" validate:"omitempty,min=1"`

	// Seconds the breaker stays open before probing again.
	OpenSeconds int `yaml:"open_seconds,omitempty" validate:"omitempty,min=1"`
}

// OpenTimeout returns the open interval as a duration.
func (c *BreakerConfig) OpenTimeout() time.Duration {
	if c.OpenSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.OpenSeconds) * time.Second
}
