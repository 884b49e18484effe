package config

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// LLMProviderType identifies which gateway implementation serves a provider.
type LLMProviderType string

const (
	ProviderTypeOpenAI    LLMProviderType = "openai"
	ProviderTypeAnthropic LLMProviderType = "anthropic"
	ProviderTypeGemini    LLMProviderType = "gemini"
)

// IsValid reports whether the provider type is one the gateway can build.
func (t LLMProviderType) IsValid() bool {
	switch t {
	case ProviderTypeOpenAI, ProviderTypeAnthropic, ProviderTypeGemini:
		return true
	}
	return false
}

// LLMProviderConfig defines one LLM provider entry.
type LLMProviderConfig struct {
	// Provider type (required)
	Type LLMProviderType `yaml:"type" validate:"required,oneof=openai anthropic gemini"`

	// Model name (required)
	Model string `yaml:"model" validate:"required"`

	// Environment variable holding the API key. The key itself never
	// appears in YAML.
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`

	// Optional custom endpoint/base URL
	BaseURL string `yaml:"base_url,omitempty"`

	// Per-call timeout in seconds; exceeding it is a transport failure.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=600"`

	// Retries per call on retryable transport failures.
	MaxRetries int `yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`

	// Output token ceiling per call.
	MaxTokens int `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`

	// Sampling temperature. Outputs are schema-validated post-hoc, so this
	// is a cost/quality knob, not a correctness one.
	Temperature float64 `yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
}

// Timeout returns the per-call timeout as a duration.
func (c *LLMProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultLLMTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ModelTag is the provider/model identifier recorded on stage records,
// e.g. "openai/gpt-5-mini".
func (c *LLMProviderConfig) ModelTag() string {
	return fmt.Sprintf("%s/%s", c.Type, c.Model)
}

// LLMProviderRegistry stores LLM provider configurations in memory with
// thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	// Copy to prevent external mutation
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{
		providers: copied,
	}
}

// Get retrieves an LLM provider configuration by name (thread-safe)
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (thread-safe, returns copy)
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Names returns all LLM provider names in sorted order (thread-safe)
func (r *LLMProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if an LLM provider exists in the registry (thread-safe)
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.providers[name]
	return exists
}

// Len returns the number of LLM providers in the registry (thread-safe)
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
