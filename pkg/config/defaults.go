package config

import "time"

const defaultLLMTimeout = 30 * time.Second

// Default provider entries. Any of them can be overridden or replaced from
// YAML; they exist so the binary is useful with nothing but an API key in
// the environment.
func defaultLLMProviders() map[string]*LLMProviderConfig {
	return map[string]*LLMProviderConfig{
		"openai": {
			Type:           ProviderTypeOpenAI,
			Model:          "gpt-5-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 30,
			MaxRetries:     2,
			MaxTokens:      4096,
			Temperature:    0.2,
		},
		"anthropic": {
			Type:           ProviderTypeAnthropic,
			Model:          "claude-sonnet-4-5",
			APIKeyEnv:      "ANTHROPIC_API_KEY",
			TimeoutSeconds: 30,
			MaxRetries:     2,
			MaxTokens:      4096,
			Temperature:    0.2,
		},
		"gemini": {
			Type:           ProviderTypeGemini,
			Model:          "gemini-2.0-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			TimeoutSeconds: 30,
			MaxRetries:     2,
			MaxTokens:      4096,
			Temperature:    0.2,
		},
	}
}

// DefaultServerConfig returns the compiled-in server settings.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:                   "0.0.0.0",
		Port:                   8080,
		CORSOriginsEnv:         "BACKEND_CORS_ORIGINS",
		MaxBodyBytes:           256 * 1024,
		ShutdownTimeoutSeconds: 10,
	}
}

// DefaultPipelineConfig returns the compiled-in pipeline settings.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		IncludeDebug:      true,
		MaxBriefingTokens: 1200,
	}
}

// DefaultBreakerConfig returns the compiled-in circuit breaker settings.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures: 5,
		OpenSeconds: 30,
	}
}

// defaultDefaultProvider is the registry entry the pipeline uses unless the
// YAML picks another.
const defaultDefaultProvider = "openai"
