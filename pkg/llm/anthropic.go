package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shopworks/foreman/pkg/config"
)

const defaultSDKMaxTokens = 4096

// AnthropicClient generates JSON through the Anthropic Messages API. The
// API has no strict json_schema mode, so the schema contract rides in the
// system prompt and the output is validated after the fact.
type AnthropicClient struct {
	cfg    *config.LLMProviderConfig
	client anthropic.Client
	apiKey string
	logger *slog.Logger
}

// NewAnthropicClient builds a client from the provider config. A missing
// API key fails calls, not construction.
func NewAnthropicClient(cfg *config.LLMProviderConfig, logger *slog.Logger) *AnthropicClient {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicClient{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
		apiKey: apiKey,
		logger: logger.With("provider", "anthropic", "model", cfg.Model),
	}
}

// ModelTag implements Client.
func (c *AnthropicClient) ModelTag() string {
	return c.cfg.ModelTag()
}

// GenerateJSON implements Client.
func (c *AnthropicClient) GenerateJSON(ctx context.Context, in *GenerateInput) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, transportErr("anthropic", "api key not configured ("+c.cfg.APIKeyEnv+" unset)", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultSDKMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(in.User)),
		},
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}
	params.System = []anthropic.TextBlockParam{
		{Text: jsonSystemPrompt(in.System, in.SchemaName, in.Schema)},
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		resp, apiErr = c.client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		backoff := sdkBackoff(attempt, apiErr)

		c.logger.WarnContext(ctx, "Anthropic request retrying",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"backoff", backoff.String(),
			"error", apiErr.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, transportErr("anthropic", "request cancelled", ctx.Err())
		case <-time.After(backoff):
		}
	}
	if apiErr != nil {
		return nil, transportErr("anthropic", "messages call failed", apiErr)
	}

	if resp.StopReason == "refusal" {
		return nil, refusedErr("anthropic", "model refused the request")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	jsonText := stripJSONFences(text.String())
	if jsonText == "" {
		return nil, refusedErr("anthropic", "empty model output")
	}
	if !json.Valid([]byte(jsonText)) {
		return nil, parseErr("anthropic", "model output is not valid JSON", nil)
	}
	return json.RawMessage(jsonText), nil
}

// jsonSystemPrompt appends the schema contract to the caller's system
// prompt.
func jsonSystemPrompt(system, schemaName string, schema map[string]any) string {
	var b strings.Builder
	b.WriteString(system)
	fmt.Fprintf(&b, "\n\nRespond with a single JSON object conforming to the JSON Schema below (schema name: %q). Output only the JSON, with no prose and no code fences.\n\n", schemaName)
	if schemaJSON, err := json.Marshal(schema); err == nil {
		b.Write(schemaJSON)
	}
	return b.String()
}

var fencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)

// stripJSONFences removes a surrounding markdown code fence when the model
// wraps its JSON despite instructions.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)

	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
