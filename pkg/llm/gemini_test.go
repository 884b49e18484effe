package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shopworks/foreman/pkg/config"
)

func geminiTestConfig() *config.LLMProviderConfig {
	return &config.LLMProviderConfig{
		Type:           config.ProviderTypeGemini,
		Model:          "gemini-test",
		APIKeyEnv:      "FOREMAN_TEST_GEMINI_KEY",
		TimeoutSeconds: 5,
		MaxRetries:     1,
	}
}

func TestGeminiMissingAPIKey(t *testing.T) {
	t.Setenv("FOREMAN_TEST_GEMINI_KEY", "")

	client, err := NewGeminiClient(context.Background(), geminiTestConfig(), testLogger())
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), testGenerateInput())
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestGeminiModelTag(t *testing.T) {
	t.Setenv("FOREMAN_TEST_GEMINI_KEY", "")

	client, err := NewGeminiClient(context.Background(), geminiTestConfig(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "gemini/gemini-test", client.ModelTag())
}

func TestConvertToGenaiSchema(t *testing.T) {
	schemaMap := map[string]any{
		"type":        "object",
		"description": "a scenario spec",
		"required":    []string{"scenario_type", "params"},
		"properties": map[string]any{
			"scenario_type": map[string]any{
				"type": "string",
				"enum": []any{"BASELINE", "RUSH_ARRIVES", "M2_SLOWDOWN"},
			},
			"params": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"slowdown_factor": map[string]any{
						"type":    "integer",
						"minimum": 2,
						"maximum": 10,
					},
				},
			},
			"notes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}

	schema, err := convertToGenaiSchema(schemaMap)
	require.NoError(t, err)
	require.NotNil(t, schema)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, "a scenario spec", schema.Description)
	assert.Equal(t, []string{"scenario_type", "params"}, schema.Required)

	st := schema.Properties["scenario_type"]
	require.NotNil(t, st)
	assert.Equal(t, genai.TypeString, st.Type)
	assert.Equal(t, []string{"BASELINE", "RUSH_ARRIVES", "M2_SLOWDOWN"}, st.Enum)

	factor := schema.Properties["params"].Properties["slowdown_factor"]
	require.NotNil(t, factor)
	assert.Equal(t, genai.TypeInteger, factor.Type)
	require.NotNil(t, factor.Minimum)
	assert.Equal(t, 2.0, *factor.Minimum)
	require.NotNil(t, factor.Maximum)
	assert.Equal(t, 10.0, *factor.Maximum)

	notes := schema.Properties["notes"]
	require.NotNil(t, notes)
	assert.Equal(t, genai.TypeArray, notes.Type)
	require.NotNil(t, notes.Items)
	assert.Equal(t, genai.TypeString, notes.Items.Type)
}

func TestConvertToGenaiSchemaEmpty(t *testing.T) {
	schema, err := convertToGenaiSchema(nil)
	require.NoError(t, err)
	assert.Nil(t, schema)

	schema, err = convertToGenaiSchema(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestSchemaNumber(t *testing.T) {
	v, ok := schemaNumber(3)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = schemaNumber(int64(4))
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, ok = schemaNumber(2.5)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = schemaNumber("5")
	assert.False(t, ok)

	_, ok = schemaNumber(nil)
	assert.False(t, ok)
}
