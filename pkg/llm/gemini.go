package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/shopworks/foreman/pkg/config"
)

// GeminiClient generates JSON through the Gemini API using native
// structured output (ResponseSchema + application/json).
type GeminiClient struct {
	cfg    *config.LLMProviderConfig
	client *genai.Client
	logger *slog.Logger
}

// NewGeminiClient builds a client from the provider config. When the API
// key env var is unset the client is still returned; its calls fail as
// LLM_TRANSPORT.
func NewGeminiClient(ctx context.Context, cfg *config.LLMProviderConfig, logger *slog.Logger) (*GeminiClient, error) {
	gc := &GeminiClient{
		cfg:    cfg,
		logger: logger.With("provider", "gemini", "model", cfg.Model),
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return gc, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	gc.client = client
	return gc, nil
}

// ModelTag implements Client.
func (c *GeminiClient) ModelTag() string {
	return c.cfg.ModelTag()
}

// GenerateJSON implements Client.
func (c *GeminiClient) GenerateJSON(ctx context.Context, in *GenerateInput) (json.RawMessage, error) {
	if c.client == nil {
		return nil, transportErr("gemini", "api key not configured ("+c.cfg.APIKeyEnv+" unset)", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(c.cfg.Temperature)),
	}
	if in.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}
	if in.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(in.MaxTokens)
	} else if c.cfg.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}

	schema, err := convertToGenaiSchema(in.Schema)
	if err != nil {
		return nil, parseErr("gemini", "schema conversion failed", err)
	}
	if schema != nil {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.ResponseSchema = schema
	}

	contents := genai.Text(in.User)

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		resp, apiErr = c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, genConfig)
		if apiErr == nil {
			break
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		backoff := sdkBackoff(attempt, apiErr)

		c.logger.WarnContext(ctx, "Gemini request retrying",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"backoff", backoff.String(),
			"error", apiErr.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, transportErr("gemini", "request cancelled", ctx.Err())
		case <-time.After(backoff):
		}
	}
	if apiErr != nil {
		return nil, transportErr("gemini", "generate call failed", apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, refusedErr("gemini", "empty response")
	}

	jsonText := strings.TrimSpace(resp.Text())
	if jsonText == "" {
		return nil, refusedErr("gemini", "empty text in response")
	}
	if !json.Valid([]byte(jsonText)) {
		return nil, parseErr("gemini", "model output is not valid JSON", nil)
	}
	return json.RawMessage(jsonText), nil
}

// convertToGenaiSchema converts a plain-map JSON Schema to the genai.Schema
// structure the SDK enforces server-side.
func convertToGenaiSchema(schemaMap map[string]any) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	if enumVals, ok := schemaMap["enum"].([]any); ok {
		for _, v := range enumVals {
			if s, ok := v.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	} else if enumVals, ok := schemaMap["enum"].([]string); ok {
		schema.Enum = enumVals
	}

	if reqVals, ok := schemaMap["required"].([]any); ok {
		for _, v := range reqVals {
			if s, ok := v.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	} else if reqVals, ok := schemaMap["required"].([]string); ok {
		schema.Required = reqVals
	}

	if minVal, ok := schemaNumber(schemaMap["minimum"]); ok {
		schema.Minimum = &minVal
	}
	if maxVal, ok := schemaNumber(schemaMap["maximum"]); ok {
		schema.Maximum = &maxVal
	}

	if itemsMap, ok := schemaMap["items"].(map[string]any); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for propName, propVal := range propsMap {
			propMap, ok := propVal.(map[string]any)
			if !ok {
				continue
			}
			propSchema, err := convertToGenaiSchema(propMap)
			if err != nil {
				return nil, fmt.Errorf("convert property %q: %w", propName, err)
			}
			schema.Properties[propName] = propSchema
		}
	}

	return schema, nil
}

// schemaNumber coerces the numeric types a schema map may carry.
func schemaNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
