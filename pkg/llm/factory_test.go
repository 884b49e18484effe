package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/config"
)

func TestNewClientSelectsProvider(t *testing.T) {
	t.Setenv("FOREMAN_TEST_OPENAI_KEY", "")
	t.Setenv("FOREMAN_TEST_ANTHROPIC_KEY", "")
	t.Setenv("FOREMAN_TEST_GEMINI_KEY", "")

	tests := []struct {
		name string
		cfg  *config.LLMProviderConfig
	}{
		{"openai", openAITestConfig("")},
		{"anthropic", anthropicTestConfig("")},
		{"gemini", geminiTestConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg, testLogger())
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.Equal(t, tt.name+"/"+tt.cfg.Model, client.ModelTag())
		})
	}
}

func TestNewClientUnknownType(t *testing.T) {
	cfg := &config.LLMProviderConfig{Type: "cohere", Model: "command-r", APIKeyEnv: "X"}
	_, err := NewClient(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider type")
}

// Clients without credentials still construct and classify every call as a
// transport failure, so the pipeline can fall back deterministically.
func TestNewClientWithoutCredentialsFailsCallsNotConstruction(t *testing.T) {
	t.Setenv("FOREMAN_TEST_OPENAI_KEY", "")

	client, err := NewClient(context.Background(), openAITestConfig(""), testLogger())
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), testGenerateInput())
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}
