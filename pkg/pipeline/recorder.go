package pipeline

import (
	"unicode/utf8"

	"github.com/shopworks/foreman/pkg/models"
)

// maxFieldChars bounds error strings and input previews on the debug payload.
const maxFieldChars = 200

// stageDef identifies one pipeline stage: its wire id, its name, which phase
// it belongs to, and whether its body calls the model.
type stageDef struct {
	id   string
	name string
	kind models.StageKind
	llm  bool
}

var (
	defExplicitIDs = stageDef{"O0", "explicit_ids", models.KindOnboarding, false}
	defCoarse      = stageDef{"O1", "coarse_structure", models.KindOnboarding, true}
	defFine        = stageDef{"O2", "fine_extraction", models.KindOnboarding, true}
	defNormalize   = stageDef{"O3", "normalize_validate", models.KindOnboarding, false}
	defCoverage    = stageDef{"O4", "coverage_assessment", models.KindOnboarding, false}
	defIntent      = stageDef{"D1", "intent_classification", models.KindDecision, true}
	defFutures     = stageDef{"D2", "futures_expansion", models.KindDecision, true}
	defSimulation  = stageDef{"D3", "simulation", models.KindDecision, false}
	defMetrics     = stageDef{"D4", "metrics", models.KindDecision, false}
	defBriefing    = stageDef{"D5", "briefing", models.KindDecision, true}
)

// totalStageCount and onboardingStageCount size every run: a full run emits
// exactly one record per stage, an onboarding-only run the first five.
const (
	totalStageCount      = 10
	onboardingStageCount = 5
)

// stageOutcome is what a stage body reports back to the orchestrator.
// errors may be non-empty on SUCCESS: coercion and drop warnings are
// recorded without failing the stage.
type stageOutcome struct {
	status  models.StageStatus
	summary map[string]any
	errors  []string
}

func success(summary map[string]any) stageOutcome {
	return stageOutcome{status: models.StageSuccess, summary: summary}
}

func failure(summary map[string]any, errs ...string) stageOutcome {
	return stageOutcome{status: models.StageFailed, summary: summary, errors: errs}
}

// recorder accumulates stage records in execution order and enforces the
// payload bounds: summaries and error lists are never nil, and every error
// string is capped at maxFieldChars.
type recorder struct {
	stages []models.StageRecord
}

func newRecorder(capacity int) *recorder {
	return &recorder{stages: make([]models.StageRecord, 0, capacity)}
}

func (r *recorder) add(def stageDef, out stageOutcome, agentModel *string) {
	summary := out.summary
	if summary == nil {
		summary = map[string]any{}
	}
	errs := make([]string, 0, len(out.errors))
	for _, e := range out.errors {
		errs = append(errs, truncateChars(e, maxFieldChars))
	}
	r.stages = append(r.stages, models.StageRecord{
		ID:         def.id,
		Name:       def.name,
		Kind:       def.kind,
		Status:     out.status,
		AgentModel: agentModel,
		Summary:    summary,
		Errors:     errs,
	})
}

func (r *recorder) records() []models.StageRecord {
	return r.stages
}

func (r *recorder) allSuccess() bool {
	for _, s := range r.stages {
		if s.Status != models.StageSuccess {
			return false
		}
	}
	return true
}

func (r *recorder) anyDecisionSkipped() bool {
	for _, s := range r.stages {
		if s.Kind == models.KindDecision && s.Status == models.StageSkipped {
			return true
		}
	}
	return false
}

// truncateChars cuts s to at most limit characters. Counts runes, not bytes,
// so multi-byte input is never split mid-character.
func truncateChars(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func inputStats(text string) models.InputStats {
	return models.InputStats{
		Chars:   utf8.RuneCountInString(text),
		Preview: truncateChars(text, maxFieldChars),
	}
}
