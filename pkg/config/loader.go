package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// fileConfig represents the complete foreman.yaml file structure
type fileConfig struct {
	Server   *ServerConfig       `yaml:"server"`
	Pipeline *pipelineYAMLConfig `yaml:"pipeline"`
	Breaker  *BreakerConfig      `yaml:"breaker"`
	LLM      *llmYAMLConfig      `yaml:"llm"`
}

// pipelineYAMLConfig mirrors PipelineConfig with a pointer toggle so an
// explicit `false` survives the merge with defaults.
type pipelineYAMLConfig struct {
	IncludeDebug      *bool `yaml:"include_debug,omitempty"`
	MaxBriefingTokens int   `yaml:"max_briefing_tokens,omitempty"`
}

type llmYAMLConfig struct {
	DefaultProvider string                       `yaml:"default_provider,omitempty"`
	Providers       map[string]LLMProviderConfig `yaml:"providers,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Read the YAML file (compiled-in defaults when path is empty)
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user values over compiled-in defaults
//  5. Build the provider registry
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(_ context.Context, configPath string) (*Config, error) {
	log := slog.With("config_path", configPath)
	log.Info("Initializing configuration")

	cfg, err := load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"llm_providers", stats.LLMProviders,
		"default_provider", cfg.DefaultProvider,
		"debug_enabled", stats.DebugEnabled)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(configPath string) (*Config, error) {
	file := &fileConfig{}
	if configPath != "" {
		loaded, err := loadYAMLFile(configPath)
		if err != nil {
			return nil, NewLoadError(configPath, err)
		}
		file = loaded
	}

	// Merge user sections over the compiled-in defaults.
	server := DefaultServerConfig()
	if file.Server != nil {
		if err := mergo.Merge(server, file.Server, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge server config: %w", err)
		}
	}

	breaker := DefaultBreakerConfig()
	if file.Breaker != nil {
		if err := mergo.Merge(breaker, file.Breaker, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge breaker config: %w", err)
		}
	}

	pipeline := DefaultPipelineConfig()
	if file.Pipeline != nil {
		if file.Pipeline.IncludeDebug != nil {
			pipeline.IncludeDebug = *file.Pipeline.IncludeDebug
		}
		if file.Pipeline.MaxBriefingTokens > 0 {
			pipeline.MaxBriefingTokens = file.Pipeline.MaxBriefingTokens
		}
	}

	defaultProvider := defaultDefaultProvider
	var userProviders map[string]LLMProviderConfig
	if file.LLM != nil {
		if file.LLM.DefaultProvider != "" {
			defaultProvider = file.LLM.DefaultProvider
		}
		userProviders = file.LLM.Providers
	}

	providers, err := mergeLLMProviders(defaultLLMProviders(), userProviders)
	if err != nil {
		return nil, err
	}

	return &Config{
		configPath:          configPath,
		Server:              server,
		Pipeline:            pipeline,
		Breaker:             breaker,
		DefaultProvider:     defaultProvider,
		LLMProviderRegistry: NewLLMProviderRegistry(providers),
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

func loadYAMLFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	// Expand environment variables using {{.VAR}} template syntax.
	// ExpandEnv passes through original data on parse/execution errors,
	// letting the YAML parser produce the clearer message.
	data = ExpandEnv(data)

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &file, nil
}
