package config

import (
	"fmt"

	"dario.cat/mergo"
)

// mergeLLMProviders overlays user-defined providers on the compiled-in set.
// A user entry sharing a name with a default entry is merged field-by-field
// (set fields override, unset fields keep the default); new names are added
// as-is.
func mergeLLMProviders(builtin map[string]*LLMProviderConfig, user map[string]LLMProviderConfig) (map[string]*LLMProviderConfig, error) {
	merged := make(map[string]*LLMProviderConfig, len(builtin)+len(user))
	for name, cfg := range builtin {
		copied := *cfg
		merged[name] = &copied
	}

	for name, userCfg := range user {
		userCfg := userCfg
		base, exists := merged[name]
		if !exists {
			merged[name] = &userCfg
			continue
		}
		if err := mergo.Merge(base, &userCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm provider %q: %w", name, err)
		}
	}

	return merged, nil
}
