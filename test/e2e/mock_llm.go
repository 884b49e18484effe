package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopworks/foreman/pkg/llm"
)

// Schema names the pipeline sends with each gateway call, used as routing
// keys for scripted responses. They pin the wire contract: a renamed schema
// breaks these tests on purpose.
const (
	SchemaCoarse   = "coarse_structure"
	SchemaFine     = "fine_extraction"
	SchemaIntent   = "scenario_intent"
	SchemaFutures  = "futures_expansion"
	SchemaBriefing = "schedule_briefing"
)

// LLMScriptEntry defines a single scripted gateway response.
type LLMScriptEntry struct {
	// Response content (exactly one should be set)
	JSON  string // raw JSON returned from GenerateJSON
	Error error  // returned instead of output

	// Test control
	BlockUntilCancelled bool            // block GenerateJSON until ctx is cancelled
	OnBlock             chan<- struct{} // notified when GenerateJSON enters its blocking path
}

// ScriptedLLMClient implements llm.Client with a dual-dispatch mock:
// per-schema routing for stage-specific responses, plus a sequential
// fallback consumed in call order.
type ScriptedLLMClient struct {
	mu             sync.Mutex
	sequential     []LLMScriptEntry // consumed in order for non-routed calls
	seqIndex       int
	routes         map[string][]LLMScriptEntry // schema name → per-schema script
	routeIndex     map[string]int              // schema name → current index
	capturedInputs []*llm.GenerateInput
}

// NewScriptedLLMClient creates a new ScriptedLLMClient.
func NewScriptedLLMClient() *ScriptedLLMClient {
	return &ScriptedLLMClient{
		routes:     make(map[string][]LLMScriptEntry),
		routeIndex: make(map[string]int),
	}
}

// AddSequential adds an entry consumed in order for calls whose schema has no
// routed script.
func (c *ScriptedLLMClient) AddSequential(entry LLMScriptEntry) {
	c.sequential = append(c.sequential, entry)
}

// AddRouted adds an entry for a specific schema name. Entries routed to the
// same schema are consumed in the order they were added.
func (c *ScriptedLLMClient) AddRouted(schemaName string, entry LLMScriptEntry) {
	c.routes[schemaName] = append(c.routes[schemaName], entry)
}

// GenerateJSON implements llm.Client.
func (c *ScriptedLLMClient) GenerateJSON(ctx context.Context, in *llm.GenerateInput) (json.RawMessage, error) {
	c.mu.Lock()
	c.capturedInputs = append(c.capturedInputs, in)
	entry, err := c.nextEntry(in.SchemaName)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	// Handle BlockUntilCancelled: wait for context cancellation, then fail
	// the way a real provider call does.
	if entry.BlockUntilCancelled {
		if entry.OnBlock != nil {
			entry.OnBlock <- struct{}{}
		}
		<-ctx.Done()
		return nil, &llm.Error{Kind: llm.KindTransport, Provider: "scripted", Message: "call cancelled", Err: ctx.Err()}
	}

	if entry.Error != nil {
		return nil, entry.Error
	}
	return json.RawMessage(entry.JSON), nil
}

// ModelTag implements llm.Client.
func (c *ScriptedLLMClient) ModelTag() string { return "scripted/e2e" }

// CallCount returns the total number of GenerateJSON calls made.
func (c *ScriptedLLMClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.capturedInputs)
}

// CapturedInputs returns a copy of every GenerateInput seen so far, in call
// order.
func (c *ScriptedLLMClient) CapturedInputs() []*llm.GenerateInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*llm.GenerateInput, len(c.capturedInputs))
	copy(out, c.capturedInputs)
	return out
}

// nextEntry selects the next script entry using dual dispatch.
// Must be called with c.mu held.
func (c *ScriptedLLMClient) nextEntry(schemaName string) (*LLMScriptEntry, error) {
	// Try routed dispatch first.
	if entries, ok := c.routes[schemaName]; ok {
		idx := c.routeIndex[schemaName]
		if idx < len(entries) {
			c.routeIndex[schemaName] = idx + 1
			return &entries[idx], nil
		}
	}

	// Fall back to sequential dispatch.
	if c.seqIndex < len(c.sequential) {
		entry := &c.sequential[c.seqIndex]
		c.seqIndex++
		return entry, nil
	}

	return nil, fmt.Errorf("ScriptedLLMClient: no more entries (schema=%q, sequential=%d/%d)",
		schemaName, c.seqIndex, len(c.sequential))
}
