package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/factory"
	"github.com/shopworks/foreman/pkg/models"
)

// ────────────────────────────────────────────────────────────
// Pipeline test: one full run over HTTP with scripted extraction of the demo
// shop, a slowdown intent, two simulated futures, and a model briefing.
// Every schedule number asserted here is exact; the scheduler is integral
// and deterministic.
// ────────────────────────────────────────────────────────────

func TestE2E_Pipeline(t *testing.T) {
	llmClient := NewScriptedLLMClient()
	llmClient.AddRouted(SchemaCoarse, LLMScriptEntry{JSON: demoShopCoarse()})
	llmClient.AddRouted(SchemaFine, LLMScriptEntry{JSON: demoShopFine()})
	llmClient.AddRouted(SchemaIntent, LLMScriptEntry{
		JSON: intentJSON("M2_SLOWDOWN", "", 2, "all orders must still meet their due hours"),
	})
	llmClient.AddRouted(SchemaFutures, LLMScriptEntry{
		JSON: futuresJSON("compare the slowdown against the baseline",
			models.ScenarioSpec{ScenarioType: models.ScenarioM2Slowdown, SlowdownFactor: 2},
			models.BaselineSpec(),
		),
	})
	llmClient.AddRouted(SchemaBriefing, LLMScriptEntry{
		JSON: briefingJSON("# Drill Press Slowdown\n\nAll jobs still meet their due hours."),
	})

	app := NewTestApp(t, WithLLMClient(llmClient))

	resp := app.Simulate(t, factory.DefaultFactoryDescription(),
		"What if the drill press runs at half speed tomorrow?")

	// The factory comes from the description, not the fallback.
	meta := resp["meta"].(map[string]any)
	assert.Equal(t, false, meta["used_default_factory"])
	assert.Empty(t, meta["onboarding_errors"])
	assert.Empty(t, meta["inferred_assumptions"])

	factoryMap := resp["factory"].(map[string]any)
	assert.Len(t, factoryMap["machines"], 3)
	assert.Len(t, factoryMap["jobs"], 3)

	// Specs in futures order: the slowdown first, the baseline second.
	specs := resp["specs"].([]any)
	require.Len(t, specs, 2)
	spec0 := specs[0].(map[string]any)
	assert.Equal(t, "M2_SLOWDOWN", spec0["scenario_type"])
	assert.Equal(t, float64(2), spec0["slowdown_factor"])
	spec1 := specs[1].(map[string]any)
	assert.Equal(t, "BASELINE", spec1["scenario_type"])

	// Slowdown ×2: M2 work doubles to 12 busy hours, makespan 15.
	metricsList := resp["metrics"].([]any)
	require.Len(t, metricsList, 2)
	slowdown := metricsList[0].(map[string]any)
	assert.Equal(t, float64(15), slowdown["makespan_hour"])
	assert.Equal(t, "M2", slowdown["bottleneck_machine_id"])
	assert.InDelta(t, 0.8, slowdown["bottleneck_utilization"], 1e-9)

	// Baseline: completions J1=5, J2=7, J3=9; M2 carries 6 of 9 hours.
	baseline := metricsList[1].(map[string]any)
	assert.Equal(t, float64(9), baseline["makespan_hour"])
	assert.Equal(t, "M2", baseline["bottleneck_machine_id"])
	assert.InDelta(t, 6.0/9.0, baseline["bottleneck_utilization"], 1e-9)
	lateness := baseline["job_lateness"].(map[string]any)
	for _, id := range []string{"J1", "J2", "J3"} {
		assert.Equal(t, float64(0), lateness[id], "job %s lateness", id)
	}

	// The scripted briefing passes through verbatim.
	assert.Equal(t, "# Drill Press Slowdown\n\nAll jobs still meet their due hours.", resp["briefing"])

	// All ten stages succeed and the gateway stages carry the model tag.
	stages := stagesOf(t, resp)
	assertStageStatuses(t, stages, map[string]string{
		"O0": "SUCCESS", "O1": "SUCCESS", "O2": "SUCCESS", "O3": "SUCCESS", "O4": "SUCCESS",
		"D1": "SUCCESS", "D2": "SUCCESS", "D3": "SUCCESS", "D4": "SUCCESS", "D5": "SUCCESS",
	})
	for i, id := range stageOrder {
		if llmStages[id] {
			assert.Equal(t, "scripted/e2e", stages[i]["agent_model"], "stage %s agent_model", id)
		} else {
			assert.Nil(t, stages[i]["agent_model"], "stage %s agent_model", id)
		}
	}
	debug := resp["debug"].(map[string]any)
	assert.Equal(t, "SUCCESS", debug["overall_status"])

	// Five gateway calls: coarse, fine, intent, futures, briefing.
	require.Equal(t, 5, llmClient.CallCount())

	// The briefing prompt embeds the exact computed numbers.
	inputs := llmClient.CapturedInputs()
	briefingIn := inputs[len(inputs)-1]
	require.Equal(t, SchemaBriefing, briefingIn.SchemaName)
	assert.Contains(t, briefingIn.User, "makespan_hour: 15")
	assert.Contains(t, briefingIn.User, "makespan_hour: 9")
	assert.Contains(t, briefingIn.User, "all orders must still meet their due hours")
}

// ────────────────────────────────────────────────────────────
// Onboarding endpoint: extraction only, no decision stages.
// ────────────────────────────────────────────────────────────

func TestE2E_Onboard(t *testing.T) {
	llmClient := NewScriptedLLMClient()
	llmClient.AddRouted(SchemaCoarse, LLMScriptEntry{JSON: demoShopCoarse()})
	llmClient.AddRouted(SchemaFine, LLMScriptEntry{JSON: demoShopFine()})

	app := NewTestApp(t, WithLLMClient(llmClient))

	resp := app.Onboard(t, factory.DefaultFactoryDescription())

	// The onboarding response carries the factory and meta, nothing else.
	assert.Len(t, resp, 2)
	meta := resp["meta"].(map[string]any)
	assert.Equal(t, false, meta["used_default_factory"])

	factoryMap := resp["factory"].(map[string]any)
	jobs := factoryMap["jobs"].([]any)
	require.Len(t, jobs, 3)
	first := jobs[0].(map[string]any)
	assert.Equal(t, "J1", first["id"])
	assert.Equal(t, float64(12), first["due_time_hour"])
	assert.Len(t, first["steps"], 3)

	// Only the two extraction calls reach the gateway.
	assert.Equal(t, 2, llmClient.CallCount())
}

// ────────────────────────────────────────────────────────────
// Health and metrics: the operational surface under a dead gateway.
// ────────────────────────────────────────────────────────────

func TestE2E_HealthAndMetrics(t *testing.T) {
	// Zero-entry script: every gateway call fails as transport.
	app := NewTestApp(t)

	health := app.GetHealth(t)
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, health["version"])

	checks := health["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["pipeline"].(map[string]any)["status"])
	assert.Equal(t, "healthy", checks["llm"].(map[string]any)["status"])

	configuration := health["configuration"].(map[string]any)
	assert.Equal(t, float64(3), configuration["llm_providers"])
	assert.Equal(t, true, configuration["debug_enabled"])

	// One degraded run, then the counters appear in the exposition.
	app.Simulate(t, "", "")

	body := app.GetMetricsText(t)
	assert.Contains(t, body, `foreman_pipeline_runs_total{status="PARTIAL"} 1`)
	assert.Contains(t, body, `foreman_llm_calls_total{outcome="LLM_TRANSPORT",provider="scripted"} 4`)
	assert.Contains(t, body, `foreman_stage_outcomes_total{stage="O1",status="FAILED"} 1`)
	assert.Contains(t, body, `foreman_stage_outcomes_total{stage="D3",status="SUCCESS"} 1`)
}
