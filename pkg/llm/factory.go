package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopworks/foreman/pkg/config"
)

// NewClient builds the provider implementation selected by cfg.Type.
// Construction never requires credentials: a client whose API key env var
// is unset returns LLM_TRANSPORT from every call, which lets the pipeline
// run on deterministic fallbacks.
func NewClient(ctx context.Context, cfg *config.LLMProviderConfig, logger *slog.Logger) (Client, error) {
	switch cfg.Type {
	case config.ProviderTypeOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	case config.ProviderTypeAnthropic:
		return NewAnthropicClient(cfg, logger), nil
	case config.ProviderTypeGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", cfg.Type)
	}
}
