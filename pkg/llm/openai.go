package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopworks/foreman/pkg/config"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	retryAfterCap        = 10 * time.Second
)

// openAIHTTPError carries a non-2xx status so the retry logic can decide
// whether another attempt is worthwhile.
type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// OpenAIClient talks to the OpenAI Responses API over plain HTTP with
// strict json_schema output formatting.
type OpenAIClient struct {
	cfg        *config.LLMProviderConfig
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient builds a client from the provider config. The API key is
// read from the environment variable named by cfg.APIKeyEnv; a missing key
// does not fail construction, it fails every call as LLM_TRANSPORT.
func NewOpenAIClient(cfg *config.LLMProviderConfig, logger *slog.Logger) *OpenAIClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		cfg:        cfg,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger.With("provider", "openai", "model", cfg.Model),
	}
}

// ModelTag implements Client.
func (c *OpenAIClient) ModelTag() string {
	return c.cfg.ModelTag()
}

type responsesMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string `json:"model"`

	Input []responsesMessage `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

// GenerateJSON implements Client via POST /v1/responses.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, in *GenerateInput) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, transportErr("openai", "api key not configured ("+c.cfg.APIKeyEnv+" unset)", nil)
	}
	if in.SchemaName == "" || in.Schema == nil {
		return nil, parseErr("openai", "schema name and schema required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req := responsesRequest{
		Model: c.cfg.Model,
		Input: []responsesMessage{
			{Role: "system", Content: in.System},
			{Role: "user", Content: in.User},
		},
		Temperature: c.cfg.Temperature,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   in.SchemaName,
		"schema": in.Schema,
		"strict": true,
	}
	if in.MaxTokens > 0 {
		req.MaxOutputTokens = in.MaxTokens
	} else if c.cfg.MaxTokens > 0 {
		req.MaxOutputTokens = c.cfg.MaxTokens
	}

	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", req, &resp); err != nil {
		return nil, err
	}

	if resp.Refusal != "" {
		return nil, refusedErr("openai", "model refused: "+resp.Refusal)
	}

	jsonText := strings.TrimSpace(extractOutputText(resp))
	if jsonText == "" {
		return nil, refusedErr("openai", "no output_text in response")
	}
	if !json.Valid([]byte(jsonText)) {
		return nil, parseErr("openai", "model output is not valid JSON", nil)
	}
	return json.RawMessage(jsonText), nil
}

// do runs one request with bounded retries. Retryable failures (408/429/
// 5xx, net timeouts) back off exponentially starting at 1s, honoring
// Retry-After, with jitter. Always returns a *Error on failure.
func (c *OpenAIClient) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return transportErr("openai", "request cancelled", ctx.Err())
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return parseErr("openai", "malformed response envelope", uErr)
			}
			return nil
		}

		if !isRetryableError(err) {
			return transportErr("openai", "request failed", err)
		}
		if attempt == c.cfg.MaxRetries {
			return transportErr("openai", "request failed after retries", err)
		}

		sleepFor := retryAfterDuration(resp, backoff, retryAfterCap)
		sleepFor = jitterSleep(sleepFor)

		c.logger.WarnContext(ctx, "OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return transportErr("openai", "request cancelled", ctx.Err())
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	return transportErr("openai", "unreachable retry loop", nil)
}

func (c *OpenAIClient) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
