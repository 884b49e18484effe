package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/models"
)

// ────────────────────────────────────────────────────────────
// HTTP Client Helpers
// ────────────────────────────────────────────────────────────

// Simulate posts a simulation request and returns the parsed response.
func (app *TestApp) Simulate(t *testing.T, factoryDescription, situationText string) map[string]any {
	t.Helper()
	body := map[string]any{
		"factory_description": factoryDescription,
		"situation_text":      situationText,
	}
	return app.postJSON(t, "/api/simulate", body, http.StatusOK)
}

// Onboard posts an onboarding request and returns the parsed response.
func (app *TestApp) Onboard(t *testing.T, factoryDescription string) map[string]any {
	t.Helper()
	body := map[string]any{
		"factory_description": factoryDescription,
	}
	return app.postJSON(t, "/api/onboard", body, http.StatusOK)
}

// GetHealth calls GET /health expecting 200.
func (app *TestApp) GetHealth(t *testing.T) map[string]any {
	t.Helper()
	return app.getJSON(t, "/health", http.StatusOK)
}

// GetMetricsText calls GET /metrics and returns the raw exposition text.
func (app *TestApp) GetMetricsText(t *testing.T) string {
	t.Helper()
	body, err := app.metricsText()
	require.NoError(t, err)
	return body
}

// metricsText fetches /metrics without failing the test. Safe to call from
// require.Eventually's polling goroutine.
func (app *TestApp) metricsText() (string, error) {
	resp, err := http.Get(app.BaseURL + "/metrics")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET /metrics: status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (app *TestApp) postJSON(t *testing.T, path string, body any, expectedStatus int) map[string]any {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, app.BaseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, expectedStatus, resp.StatusCode, "POST %s: unexpected status", path)
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func (app *TestApp) getJSON(t *testing.T, path string, expectedStatus int) map[string]any {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, app.BaseURL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, expectedStatus, resp.StatusCode, "GET %s: unexpected status", path)
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// ────────────────────────────────────────────────────────────
// Scripted Gateway Payloads
// ────────────────────────────────────────────────────────────

// demoShopCoarse returns the coarse-extraction payload for the built-in demo
// shop: identity only, no timing.
func demoShopCoarse() string {
	return `{
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
}

// demoShopFine returns the fine-extraction payload for the built-in demo
// shop: per-job steps and due times matching the demo description.
func demoShopFine() string {
	return `{
		"jobs": [
			{
				"id": "J1", "name": "Widget Order", "due_time_hour": 12,
				"steps": [
					{"machine_id": "M1", "duration_hours": 1},
					{"machine_id": "M2", "duration_hours": 3},
					{"machine_id": "M3", "duration_hours": 1}
				]
			},
			{
				"id": "J2", "name": "Bracket Order", "due_time_hour": 14,
				"steps": [
					{"machine_id": "M1", "duration_hours": 1},
					{"machine_id": "M2", "duration_hours": 2},
					{"machine_id": "M3", "duration_hours": 1}
				]
			},
			{
				"id": "J3", "name": "Gear Order", "due_time_hour": 16,
				"steps": [
					{"machine_id": "M2", "duration_hours": 1},
					{"machine_id": "M3", "duration_hours": 2}
				]
			}
		]
	}`
}

// intentJSON builds a scenario-intent payload.
func intentJSON(scenarioType, rushJobID string, slowdownFactor int, constraints string) string {
	out, _ := json.Marshal(map[string]any{
		"scenario_type":   scenarioType,
		"rush_job_id":     rushJobID,
		"slowdown_factor": slowdownFactor,
		"constraints":     constraints,
	})
	return string(out)
}

// futuresJSON builds a futures-expansion payload from validated specs.
func futuresJSON(justification string, scenarios ...models.ScenarioSpec) string {
	list := make([]map[string]any, 0, len(scenarios))
	for _, s := range scenarios {
		list = append(list, map[string]any{
			"scenario_type":   string(s.ScenarioType),
			"rush_job_id":     s.RushJobID,
			"slowdown_factor": s.SlowdownFactor,
		})
	}
	out, _ := json.Marshal(map[string]any{
		"scenarios":     list,
		"justification": justification,
	})
	return string(out)
}

// briefingJSON wraps briefing text in the schedule-briefing payload.
func briefingJSON(text string) string {
	out, _ := json.Marshal(map[string]any{"briefing": text})
	return string(out)
}

// ────────────────────────────────────────────────────────────
// Stage Record Assertions
// ────────────────────────────────────────────────────────────

// stageOrder is the fixed record order every run produces.
var stageOrder = []string{"O0", "O1", "O2", "O3", "O4", "D1", "D2", "D3", "D4", "D5"}

// llmStages marks the stages that call the gateway and therefore carry an
// agent_model in their records.
var llmStages = map[string]bool{"O1": true, "O2": true, "D1": true, "D2": true, "D5": true}

// stagesOf extracts the debug stage records from a simulate response.
func stagesOf(t *testing.T, resp map[string]any) []map[string]any {
	t.Helper()
	debug, ok := resp["debug"].(map[string]any)
	require.True(t, ok, "response has no debug payload")
	rawStages, ok := debug["stages"].([]any)
	require.True(t, ok, "debug payload has no stages")
	stages := make([]map[string]any, len(rawStages))
	for i, raw := range rawStages {
		st, ok := raw.(map[string]any)
		require.True(t, ok, "stage %d is not an object", i)
		stages[i] = st
	}
	return stages
}

// assertStageStatuses checks all ten stage records' ids and statuses in
// order. want maps stage id to expected status.
func assertStageStatuses(t *testing.T, stages []map[string]any, want map[string]string) {
	t.Helper()
	require.Len(t, stages, len(stageOrder))
	for i, id := range stageOrder {
		assert.Equal(t, id, stages[i]["id"], "stage %d id", i)
		assert.Equal(t, want[id], stages[i]["status"], "stage %s status", id)
	}
}
