package pipeline

import (
	"context"
	"fmt"

	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/models"
	"github.com/shopworks/foreman/pkg/sim"
)

// maxScenarios caps how many futures the pipeline simulates per run.
const maxScenarios = 3

// stageIntentClassification turns the situation text into a single validated
// scenario spec. The stage never propagates a gateway error: anything the
// model cannot or does not deliver degrades to BASELINE.
func (r *run) stageIntentClassification(ctx context.Context) stageOutcome {
	in := &llm.GenerateInput{
		System:     decisionSystem,
		User:       buildIntentPrompt(r.situation, r.factory),
		SchemaName: schemaIntentClassification,
		Schema:     intentClassificationSchema,
	}
	var out intentClassification
	if err := r.generate(ctx, in, &out); err != nil {
		r.d1Spec = models.BaselineSpec()
		return failure(intentSummary(r.d1Spec, false), llmErrors(ctx, err)...)
	}

	r.constraints = out.Constraints
	candidate := scenarioCandidate{
		ScenarioType:   out.ScenarioType,
		RushJobID:      out.RushJobID,
		SlowdownFactor: out.SlowdownFactor,
	}
	spec, reason, ok := validateCandidate(candidate, r.factory)
	outcome := success(nil)
	if !ok {
		spec = models.BaselineSpec()
		outcome.errors = []string{fmt.Sprintf("INVALID_SCENARIO_SPEC: %s; coerced to BASELINE", reason)}
	}
	r.d1Spec = spec
	outcome.summary = intentSummary(spec, out.Constraints != "")
	return outcome
}

// stageFuturesExpansion asks the model for up to three scenarios worth
// simulating. Invalid candidates are dropped, the list is truncated to
// maxScenarios, duplicates keep their first occurrence, and an empty result
// falls back to the classified intent alone.
func (r *run) stageFuturesExpansion(ctx context.Context) stageOutcome {
	in := &llm.GenerateInput{
		System:     decisionSystem,
		User:       buildFuturesPrompt(r.d1Spec, r.constraints, r.factory),
		SchemaName: schemaFuturesExpansion,
		Schema:     futuresExpansionSchema,
	}
	var out futuresExpansion
	if err := r.generate(ctx, in, &out); err != nil {
		r.specs = []models.ScenarioSpec{r.d1Spec}
		return failure(futuresSummary(r.specs), llmErrors(ctx, err)...)
	}
	r.justification = out.Justification

	var warnings []string
	specs := make([]models.ScenarioSpec, 0, len(out.Scenarios))
	for _, c := range out.Scenarios {
		spec, reason, ok := validateCandidate(c, r.factory)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("INVALID_SCENARIO_SPEC: %s; candidate dropped", reason))
			continue
		}
		specs = append(specs, spec)
	}
	if len(specs) > maxScenarios {
		specs = specs[:maxScenarios]
	}

	deduped := make([]models.ScenarioSpec, 0, len(specs))
	for _, s := range specs {
		dup := false
		for _, kept := range deduped {
			if kept.Equal(s) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, s)
		}
	}
	specs = deduped

	if len(specs) == 0 {
		warnings = append(warnings, "INVALID_SCENARIO_SPEC: no valid candidates remained; falling back to the classified intent")
		specs = []models.ScenarioSpec{r.d1Spec}
	}
	r.specs = specs

	outcome := success(futuresSummary(specs))
	outcome.errors = warnings
	return outcome
}

// stageSimulation schedules every spec in order. Pure; the effective factory
// of each scenario is retained so the metrics stage scores against the dues
// and durations the scenario actually changed.
func (r *run) stageSimulation(_ context.Context) stageOutcome {
	r.effective = make([]*models.FactoryConfig, 0, len(r.specs))
	r.sims = make([]models.SimulationResult, 0, len(r.specs))
	for _, spec := range r.specs {
		applied := sim.ApplyScenario(r.factory, spec)
		r.effective = append(r.effective, applied)
		r.sims = append(r.sims, sim.Simulate(applied))
	}
	return success(map[string]any{"simulations_run": len(r.sims)})
}

// stageMetrics aggregates each simulation result. Pure.
func (r *run) stageMetrics(_ context.Context) stageOutcome {
	r.metrics = make([]models.ScenarioMetrics, 0, len(r.sims))
	for i, result := range r.sims {
		r.metrics = append(r.metrics, sim.ComputeMetrics(r.effective[i], result))
	}
	return success(map[string]any{"metrics_computed": len(r.metrics)})
}

// validateCandidate checks one model-proposed scenario against the factory.
// Invalid candidates come back with ok=false and the reason; the caller
// decides between coercing (intent) and dropping (futures).
func validateCandidate(c scenarioCandidate, f *models.FactoryConfig) (models.ScenarioSpec, string, bool) {
	switch models.ScenarioType(c.ScenarioType) {
	case models.ScenarioBaseline:
		return models.BaselineSpec(), "", true
	case models.ScenarioRushArrives:
		if c.RushJobID == "" || !f.HasJob(c.RushJobID) {
			return models.ScenarioSpec{}, fmt.Sprintf("rush_job_id %q is not a job in the factory", c.RushJobID), false
		}
		return models.ScenarioSpec{ScenarioType: models.ScenarioRushArrives, RushJobID: c.RushJobID}, "", true
	case models.ScenarioM2Slowdown:
		if c.SlowdownFactor < 2 {
			return models.ScenarioSpec{}, fmt.Sprintf("slowdown_factor %d is below the minimum of 2", c.SlowdownFactor), false
		}
		return models.ScenarioSpec{ScenarioType: models.ScenarioM2Slowdown, SlowdownFactor: c.SlowdownFactor}, "", true
	default:
		return models.ScenarioSpec{}, fmt.Sprintf("unknown scenario_type %q", c.ScenarioType), false
	}
}

func intentSummary(spec models.ScenarioSpec, hasConstraints bool) map[string]any {
	return map[string]any{
		"scenario_type":   string(spec.ScenarioType),
		"rush_job_id":     spec.RushJobID,
		"has_constraints": hasConstraints,
	}
}

func futuresSummary(specs []models.ScenarioSpec) map[string]any {
	types := make([]string, 0, len(specs))
	for _, s := range specs {
		types = append(types, string(s.ScenarioType))
	}
	return map[string]any{
		"scenario_count": len(specs),
		"scenario_types": types,
	}
}
