// Package config loads and validates foreman configuration: the HTTP server
// settings, the LLM provider catalog, pipeline toggles, and circuit breaker
// thresholds. Configuration comes from an optional YAML file merged over
// compiled-in defaults, with {{.VAR}} environment expansion.
package config

// Config is the umbrella configuration object returned by Initialize()
// and threaded through the application.
type Config struct {
	configPath string

	Server   *ServerConfig
	Pipeline *PipelineConfig
	Breaker  *BreakerConfig

	// DefaultProvider names the LLMProviderRegistry entry used by the
	// pipeline unless a caller picks another one.
	DefaultProvider string

	LLMProviderRegistry *LLMProviderRegistry
}

// Stats contains statistics about loaded configuration
type Stats struct {
	LLMProviders int
	DebugEnabled bool
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.LLMProviderRegistry != nil {
		s.LLMProviders = c.LLMProviderRegistry.Len()
	}
	if c.Pipeline != nil {
		s.DebugEnabled = c.Pipeline.IncludeDebug
	}
	return s
}

// ConfigPath returns the configuration file path ("" when running on
// compiled-in defaults).
func (c *Config) ConfigPath() string {
	return c.configPath
}

// GetLLMProvider retrieves an LLM provider configuration by name.
// This is a convenience method that wraps LLMProviderRegistry.Get().
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// DefaultLLMProvider returns the provider the pipeline should use.
func (c *Config) DefaultLLMProvider() (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(c.DefaultProvider)
}
