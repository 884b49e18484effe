package pipeline

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/shopworks/foreman/pkg/llm"
)

// Schema names sent with every gateway call. Providers that support strict
// structured output use them to label the response format.
const (
	schemaCoarseStructure      = "coarse_structure"
	schemaFineExtraction       = "fine_extraction"
	schemaIntentClassification = "scenario_intent"
	schemaFuturesExpansion     = "futures_expansion"
	schemaBriefing             = "schedule_briefing"
)

// validate checks decoded model output against the struct tags below.
// A single instance is safe for concurrent use.
var validate = validator.New()

// decodeStrict unmarshals gateway output into out and validates it. Any
// violation is reported as an LLM_PARSE gateway error so stages handle
// malformed output and transport failures through the same path.
func decodeStrict(raw json.RawMessage, provider string, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &llm.Error{Kind: llm.KindParse, Provider: provider, Message: "model output does not match the schema", Err: err}
	}
	if err := validate.Struct(out); err != nil {
		return &llm.Error{Kind: llm.KindParse, Provider: provider, Message: "model output does not match the schema", Err: err}
	}
	return nil
}

// coarseEntity is one machine or job as enumerated by the coarse pass:
// identity only, no timing.
type coarseEntity struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// coarseStructure is the raw coarse-extraction output: every machine and
// job the description mentions, before any step or due-time detail.
type coarseStructure struct {
	Machines []coarseEntity `json:"machines" validate:"required,min=1,dive"`
	Jobs     []coarseEntity `json:"jobs" validate:"required,min=1,dive"`
}

// fineStep is a raw step. The duration stays a pointer until normalization:
// the model may omit it or report a fraction.
type fineStep struct {
	MachineID     string   `json:"machine_id" validate:"required"`
	DurationHours *float64 `json:"duration_hours"`
}

// fineJob is a raw job from the fine pass. A job may come back with no
// steps; normalization drops it with a warning rather than failing here.
type fineJob struct {
	ID          string     `json:"id" validate:"required"`
	Name        string     `json:"name"`
	Steps       []fineStep `json:"steps" validate:"required,dive"`
	DueTimeHour *float64   `json:"due_time_hour"`
}

// fineExtraction is the raw fine-extraction output.
type fineExtraction struct {
	Jobs []fineJob `json:"jobs" validate:"required,dive"`
}

// intentClassification is the raw intent output. Unknown scenario types and
// invalid parameters are coerced downstream, not rejected at decode time, so
// the only hard requirement is that a type was named at all.
type intentClassification struct {
	ScenarioType   string `json:"scenario_type" validate:"required"`
	RushJobID      string `json:"rush_job_id"`
	SlowdownFactor int    `json:"slowdown_factor"`
	Constraints    string `json:"constraints"`
}

// scenarioCandidate is one proposed scenario from the futures pass, before
// validation against the factory.
type scenarioCandidate struct {
	ScenarioType   string `json:"scenario_type" validate:"required"`
	RushJobID      string `json:"rush_job_id"`
	SlowdownFactor int    `json:"slowdown_factor"`
}

// futuresExpansion is the raw futures output: candidate scenarios plus the
// model's reasoning, which feeds the briefing stage.
type futuresExpansion struct {
	Scenarios     []scenarioCandidate `json:"scenarios" validate:"required,min=1,dive"`
	Justification string              `json:"justification"`
}

// briefingOutput wraps the briefing text so every stage speaks JSON.
type briefingOutput struct {
	Briefing string `json:"briefing" validate:"required"`
}

// JSON Schemas sent to the gateway. Every object closes additionalProperties
// and lists all properties as required: the strictest provider mode demands
// both, and the laxer providers ignore them.

var coarseEntitySchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"id", "name"},
	"properties": map[string]any{
		"id":   map[string]any{"type": "string", "description": "Short identifier from the description, e.g. M1 or J2."},
		"name": map[string]any{"type": "string", "description": "Display name; empty when the description gives none."},
	},
}

var coarseStructureSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"machines", "jobs"},
	"properties": map[string]any{
		"machines": map[string]any{"type": "array", "minItems": 1, "items": coarseEntitySchema},
		"jobs":     map[string]any{"type": "array", "minItems": 1, "items": coarseEntitySchema},
	},
}

var fineStepSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"machine_id", "duration_hours"},
	"properties": map[string]any{
		"machine_id":     map[string]any{"type": "string"},
		"duration_hours": map[string]any{"type": "number", "description": "Duration in hours as the description states it."},
	},
}

var fineJobSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"id", "name", "steps", "due_time_hour"},
	"properties": map[string]any{
		"id":            map[string]any{"type": "string"},
		"name":          map[string]any{"type": "string"},
		"steps":         map[string]any{"type": "array", "items": fineStepSchema, "description": "Steps in execution order."},
		"due_time_hour": map[string]any{"type": "number", "description": "Due time in hours from the start of the horizon."},
	},
}

var fineExtractionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"jobs"},
	"properties": map[string]any{
		"jobs": map[string]any{"type": "array", "items": fineJobSchema},
	},
}

var intentClassificationSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"scenario_type", "rush_job_id", "slowdown_factor", "constraints"},
	"properties": map[string]any{
		"scenario_type":   map[string]any{"type": "string", "enum": []string{"BASELINE", "RUSH_ARRIVES", "M2_SLOWDOWN"}},
		"rush_job_id":     map[string]any{"type": "string", "description": "Job id for RUSH_ARRIVES; empty otherwise."},
		"slowdown_factor": map[string]any{"type": "integer", "description": "Integer factor >= 2 for M2_SLOWDOWN; 0 otherwise."},
		"constraints":     map[string]any{"type": "string", "description": "Hard requirements the operator states; empty when none."},
	},
}

var scenarioCandidateSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"scenario_type", "rush_job_id", "slowdown_factor"},
	"properties": map[string]any{
		"scenario_type":   map[string]any{"type": "string", "enum": []string{"BASELINE", "RUSH_ARRIVES", "M2_SLOWDOWN"}},
		"rush_job_id":     map[string]any{"type": "string", "description": "Job id for RUSH_ARRIVES; empty otherwise."},
		"slowdown_factor": map[string]any{"type": "integer", "description": "Integer factor >= 2 for M2_SLOWDOWN; 0 otherwise."},
	},
}

var futuresExpansionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"scenarios", "justification"},
	"properties": map[string]any{
		"scenarios":     map[string]any{"type": "array", "minItems": 1, "maxItems": 3, "items": scenarioCandidateSchema},
		"justification": map[string]any{"type": "string", "description": "Why these scenarios are the ones worth simulating."},
	},
}

var briefingSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"briefing"},
	"properties": map[string]any{
		"briefing": map[string]any{"type": "string", "description": "The full Markdown briefing text."},
	},
}
