package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipelineConfig() config.PipelineConfig {
	return *config.DefaultPipelineConfig()
}

// scriptedClient routes each gateway call by schema name to a canned output,
// a canned error, or a panic. It records call order and the exact inputs so
// tests can assert on prompts and token caps.
type scriptedClient struct {
	mu      sync.Mutex
	outputs map[string]json.RawMessage
	errs    map[string]error
	panics  map[string]bool
	calls   []string
	inputs  map[string]*llm.GenerateInput

	// delay makes every call block, honoring ctx, so cancellation tests can
	// cut a call off mid-flight.
	delay time.Duration
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		outputs: make(map[string]json.RawMessage),
		errs:    make(map[string]error),
		panics:  make(map[string]bool),
		inputs:  make(map[string]*llm.GenerateInput),
	}
}

func (c *scriptedClient) script(schemaName, raw string) *scriptedClient {
	c.outputs[schemaName] = json.RawMessage(raw)
	return c
}

func (c *scriptedClient) fail(schemaName string, err error) *scriptedClient {
	c.errs[schemaName] = err
	return c
}

func (c *scriptedClient) panicOn(schemaName string) *scriptedClient {
	c.panics[schemaName] = true
	return c
}

func (c *scriptedClient) GenerateJSON(ctx context.Context, in *llm.GenerateInput) (json.RawMessage, error) {
	c.mu.Lock()
	c.calls = append(c.calls, in.SchemaName)
	c.inputs[in.SchemaName] = in
	c.mu.Unlock()

	if c.panics[in.SchemaName] {
		panic("scripted panic for " + in.SchemaName)
	}
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, &llm.Error{Kind: llm.KindTransport, Provider: "scripted", Message: "request cancelled", Err: ctx.Err()}
		case <-time.After(c.delay):
		}
	}
	if err, ok := c.errs[in.SchemaName]; ok {
		return nil, err
	}
	if out, ok := c.outputs[in.SchemaName]; ok {
		return out, nil
	}
	return nil, &llm.Error{Kind: llm.KindTransport, Provider: "scripted", Message: "no scripted output for " + in.SchemaName}
}

func (c *scriptedClient) ModelTag() string {
	return "scripted/model"
}

func (c *scriptedClient) callNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *scriptedClient) inputFor(schemaName string) *llm.GenerateInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs[schemaName]
}

// Canned outputs reproducing the built-in demo factory, so scripted runs land
// on the same numbers the scheduler tests use.

const demoCoarseJSON = `{
	"machines": [
		{"id": "M1", "name": "Assembly Station"},
		{"id": "M2", "name": "Drill Press"},
		{"id": "M3", "name": "Packing Station"}
	],
	"jobs": [
		{"id": "J1", "name": "Widget Order"},
		{"id": "J2", "name": "Bracket Order"},
		{"id": "J3", "name": "Gear Order"}
	]
}`

const demoFineJSON = `{
	"jobs": [
		{
			"id": "J1", "name": "Widget Order",
			"steps": [
				{"machine_id": "M1", "duration_hours": 1},
				{"machine_id": "M2", "duration_hours": 3},
				{"machine_id": "M3", "duration_hours": 1}
			],
			"due_time_hour": 12
		},
		{
			"id": "J2", "name": "Bracket Order",
			"steps": [
				{"machine_id": "M1", "duration_hours": 1},
				{"machine_id": "M2", "duration_hours": 2},
				{"machine_id": "M3", "duration_hours": 1}
			],
			"due_time_hour": 14
		},
		{
			"id": "J3", "name": "Gear Order",
			"steps": [
				{"machine_id": "M2", "duration_hours": 1},
				{"machine_id": "M3", "duration_hours": 2}
			],
			"due_time_hour": 16
		}
	]
}`

const baselineIntentJSON = `{"scenario_type": "BASELINE", "rush_job_id": "", "slowdown_factor": 0, "constraints": ""}`

const baselineFuturesJSON = `{
	"scenarios": [{"scenario_type": "BASELINE", "rush_job_id": "", "slowdown_factor": 0}],
	"justification": "Nothing in the situation changes the shop, so the baseline answers it."
}`

const demoBriefingJSON = `{"briefing": "# Briefing\n\nAll jobs complete on time; M2 is the bottleneck."}`

// demoScriptedClient scripts a fully successful run against the demo factory.
func demoScriptedClient() *scriptedClient {
	return newScriptedClient().
		script(schemaCoarseStructure, demoCoarseJSON).
		script(schemaFineExtraction, demoFineJSON).
		script(schemaIntentClassification, baselineIntentJSON).
		script(schemaFuturesExpansion, baselineFuturesJSON).
		script(schemaBriefing, demoBriefingJSON)
}
