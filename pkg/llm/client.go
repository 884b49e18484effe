// Package llm is the model-call gateway. Every LLM interaction in the
// pipeline goes through the Client interface, which returns either valid
// JSON bytes or a typed *Error classifying the failure. Providers are
// selected by configuration; NewClient builds the right one.
package llm

import (
	"context"
	"encoding/json"
)

// GenerateInput describes a single structured-output request.
type GenerateInput struct {
	// System and User are the two prompt halves.
	System string
	User   string

	// SchemaName labels the expected object; Schema is the JSON Schema
	// (as a plain map) the output must satisfy.
	SchemaName string
	Schema     map[string]any

	// MaxTokens caps output tokens for this call; 0 means use the
	// provider's configured ceiling.
	MaxTokens int
}

// Client generates schema-constrained JSON from a model.
type Client interface {
	// GenerateJSON returns raw bytes that parse as a single JSON value,
	// or a *Error. It never returns partial output.
	GenerateJSON(ctx context.Context, in *GenerateInput) (json.RawMessage, error)

	// ModelTag identifies the provider/model pair, e.g. "openai/gpt-5-mini".
	ModelTag() string
}
