package models

// StageStatus is the terminal status of one pipeline stage.
type StageStatus string

const (
	StageSuccess StageStatus = "SUCCESS"
	StageFailed  StageStatus = "FAILED"
	StageSkipped StageStatus = "SKIPPED"
)

// StageKind distinguishes the onboarding stages (O0..O4) from the decision
// stages (D1..D5).
type StageKind string

const (
	KindOnboarding StageKind = "ONBOARDING"
	KindDecision   StageKind = "DECISION"
)

// OverallStatus summarizes a whole pipeline run.
type OverallStatus string

const (
	// OverallSuccess means every one of the ten stages succeeded.
	OverallSuccess OverallStatus = "SUCCESS"
	// OverallPartial means some stage failed but the pipeline degraded
	// gracefully: every decision stage ran and a non-empty briefing exists.
	OverallPartial OverallStatus = "PARTIAL"
	// OverallFailed means the run was cancelled or degraded past the point
	// of a usable result.
	OverallFailed OverallStatus = "FAILED"
)

// StageRecord is the per-stage diagnostic entry. Every run produces exactly
// one record per stage, including skipped ones. AgentModel is nil for
// deterministic stages and "provider/model" for LLM stages. Summary keys are
// fixed per stage; Errors entries are capped at 200 characters.
type StageRecord struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       StageKind      `json:"kind"`
	Status     StageStatus    `json:"status"`
	AgentModel *string        `json:"agent_model"`
	Summary    map[string]any `json:"summary"`
	Errors     []string       `json:"errors"`
}

// InputStats carries the length and a bounded preview of one input text.
// Previews are capped at 200 characters.
type InputStats struct {
	Chars   int    `json:"chars"`
	Preview string `json:"preview"`
}

// PipelineInputs describes both request texts without echoing them in full.
type PipelineInputs struct {
	FactoryDescription InputStats `json:"factory_description"`
	SituationText      InputStats `json:"situation_text"`
}

// PipelineDebugPayload is the full diagnostic view of a run: exactly ten
// stage records in the fixed order O0..O4, D1..D5.
type PipelineDebugPayload struct {
	Inputs        PipelineInputs `json:"inputs"`
	OverallStatus OverallStatus  `json:"overall_status"`
	Stages        []StageRecord  `json:"stages"`
}

// OnboardingMeta records how the factory was obtained. UsedDefaultFactory is
// true iff onboarding failed and the fallback factory was substituted.
// InferredAssumptions lists the repairs normalization applied to the model's
// raw output.
type OnboardingMeta struct {
	UsedDefaultFactory  bool     `json:"used_default_factory"`
	OnboardingErrors    []string `json:"onboarding_errors"`
	InferredAssumptions []string `json:"inferred_assumptions"`
}
