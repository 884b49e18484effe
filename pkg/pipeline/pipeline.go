// Package pipeline runs the ten-stage orchestration that turns a factory
// description and a situation text into a validated factory model, what-if
// scenario specs, deterministic schedule metrics, and a briefing.
//
// Stage order is fixed: O0..O4 onboard the factory, D1..D5 make the decision.
// Run never returns an error. Onboarding failures swap in the demo factory
// and the decision stages still execute; model failures in the decision
// stages degrade to BASELINE, the classified intent, or the deterministic
// briefing template. Every run emits exactly one record per stage.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/factory"
	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/metrics"
	"github.com/shopworks/foreman/pkg/models"
)

// Request carries the two input texts. Both may be empty; the stages handle
// emptiness, the pipeline does not reject it.
type Request struct {
	FactoryDescription string
	SituationText      string
}

// Result is the complete outcome of a run. Factory is never nil, Briefing is
// never empty, and Specs and Metrics always have equal length.
type Result struct {
	Factory  *models.FactoryConfig
	Specs    []models.ScenarioSpec
	Metrics  []models.ScenarioMetrics
	Briefing string
	Meta     models.OnboardingMeta
	Debug    *models.PipelineDebugPayload
}

// OnboardingResult is the outcome of the onboarding-only entry point:
// the factory (the fallback when onboarding failed), how it was obtained,
// and the five onboarding stage records.
type OnboardingResult struct {
	Factory *models.FactoryConfig
	Meta    models.OnboardingMeta
	Stages  []models.StageRecord
}

// Pipeline executes runs against one configured model client. Safe for
// concurrent use; all per-request state lives on a private run value.
type Pipeline struct {
	client   llm.Client
	cfg      config.PipelineConfig
	logger   *slog.Logger
	monitor  *metrics.Monitor
	modelTag string
	provider string
}

// NewPipeline builds a pipeline around the given model client. logger may be
// nil (slog.Default is used) and monitor may be nil (no instrumentation).
// Panics if client is nil.
func NewPipeline(client llm.Client, cfg config.PipelineConfig, logger *slog.Logger, monitor *metrics.Monitor) *Pipeline {
	if client == nil {
		panic("pipeline.NewPipeline: client must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tag := client.ModelTag()
	provider := tag
	if i := strings.IndexByte(tag, '/'); i > 0 {
		provider = tag[:i]
	}
	return &Pipeline{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		monitor:  monitor,
		modelTag: tag,
		provider: provider,
	}
}

// Run executes all ten stages and always returns a complete Result.
func (p *Pipeline) Run(ctx context.Context, req Request) *Result {
	start := time.Now()
	r := p.newRun(req.FactoryDescription, req.SituationText)
	p.execute(ctx, r, r.stageExecs())

	// The briefing stage normally guarantees non-empty text. When the run
	// was cut off before it could, the template fills in.
	if r.briefing == "" {
		r.briefing = deterministicBriefing(r.specs, r.metrics, r.meta, r.constraints)
	}
	specs, scenarioMetrics := r.specs, r.metrics
	if len(specs) != len(scenarioMetrics) {
		n := min(len(specs), len(scenarioMetrics))
		specs, scenarioMetrics = specs[:n], scenarioMetrics[:n]
	}
	if specs == nil {
		specs = []models.ScenarioSpec{}
	}
	if scenarioMetrics == nil {
		scenarioMetrics = []models.ScenarioMetrics{}
	}

	overall := p.overallStatus(r, len(specs), len(scenarioMetrics))
	elapsed := time.Since(start)
	p.monitor.ObserveRun(overall, elapsed)
	p.logger.InfoContext(ctx, "pipeline run complete",
		"overall_status", overall,
		"duration_ms", elapsed.Milliseconds(),
		"scenarios", len(specs),
		"used_default_factory", r.meta.UsedDefaultFactory)

	return &Result{
		Factory:  r.factory,
		Specs:    specs,
		Metrics:  scenarioMetrics,
		Briefing: r.briefing,
		Meta:     r.meta,
		Debug: &models.PipelineDebugPayload{
			Inputs: models.PipelineInputs{
				FactoryDescription: inputStats(req.FactoryDescription),
				SituationText:      inputStats(req.SituationText),
			},
			OverallStatus: overall,
			Stages:        r.rec.records(),
		},
	}
}

// RunOnboarding executes only the onboarding stages, with the same fallback
// policy as a full run: a failed onboarding still yields the demo factory.
func (p *Pipeline) RunOnboarding(ctx context.Context, description string) *OnboardingResult {
	r := p.newRun(description, "")
	p.execute(ctx, r, r.stageExecs()[:onboardingStageCount])
	p.logger.InfoContext(ctx, "onboarding run complete",
		"used_default_factory", r.meta.UsedDefaultFactory,
		"machines", len(r.factory.Machines),
		"jobs", len(r.factory.Jobs))
	return &OnboardingResult{Factory: r.factory, Meta: r.meta, Stages: r.rec.records()}
}

// run is the per-request state threaded through the stages.
type run struct {
	p   *Pipeline
	rec *recorder

	description string
	situation   string

	// Onboarding state.
	explicit models.ExplicitIDs
	coarse   *coarseStructure
	raw      models.RawFactory
	factory  *models.FactoryConfig
	meta     models.OnboardingMeta

	onboardingFailed bool
	aborted          bool

	// Decision state.
	d1Spec        models.ScenarioSpec
	constraints   string
	justification string
	specs         []models.ScenarioSpec
	effective     []*models.FactoryConfig
	sims          []models.SimulationResult
	metrics       []models.ScenarioMetrics
	briefing      string
}

func (p *Pipeline) newRun(description, situation string) *run {
	return &run{
		p:           p,
		rec:         newRecorder(totalStageCount),
		description: description,
		situation:   situation,
		meta: models.OnboardingMeta{
			OnboardingErrors:    []string{},
			InferredAssumptions: []string{},
		},
	}
}

// stageExec binds a stage definition to its body on this run.
type stageExec struct {
	def stageDef
	fn  func(context.Context) stageOutcome
}

func (r *run) stageExecs() []stageExec {
	return []stageExec{
		{defExplicitIDs, r.stageExplicitIDs},
		{defCoarse, r.stageCoarseStructure},
		{defFine, r.stageFineExtraction},
		{defNormalize, r.stageNormalizeValidate},
		{defCoverage, r.stageCoverageAssessment},
		{defIntent, r.stageIntentClassification},
		{defFutures, r.stageFuturesExpansion},
		{defSimulation, r.stageSimulation},
		{defMetrics, r.stageMetrics},
		{defBriefing, r.stageBriefing},
	}
}

// execute walks the stages in order, producing exactly one record each.
// An onboarding failure skips the rest of the onboarding phase and swaps in
// the fallback factory; cancellation and panics abort everything downstream.
func (p *Pipeline) execute(ctx context.Context, r *run, execs []stageExec) {
	for _, ex := range execs {
		var out stageOutcome
		var agentModel *string

		switch {
		case r.aborted, r.onboardingFailed && ex.def.kind == models.KindOnboarding:
			out = stageOutcome{status: models.StageSkipped}
		case ctx.Err() != nil:
			r.aborted = true
			out = failure(nil, fmt.Sprintf("CANCELLED: %v", ctx.Err()))
		default:
			var panicked bool
			out, panicked = p.invoke(ctx, ex.def, ex.fn)
			if ex.def.llm {
				tag := p.modelTag
				agentModel = &tag
			}
			if panicked || ctx.Err() != nil {
				r.aborted = true
			}
		}

		r.rec.add(ex.def, out, agentModel)
		p.monitor.ObserveStage(ex.def.id, out.status)

		if out.status == models.StageFailed {
			p.logger.WarnContext(ctx, "stage failed",
				"stage", ex.def.id, "name", ex.def.name, "errors", out.errors)
			if ex.def.kind == models.KindOnboarding {
				r.failOnboarding(out.errors)
			}
		} else {
			p.logger.DebugContext(ctx, "stage done",
				"stage", ex.def.id, "name", ex.def.name, "status", out.status)
		}
	}
}

// invoke runs one stage body, containing panics. A panicking stage records
// FAILED with an INTERNAL error and reports panicked so the orchestrator
// aborts the rest of the run.
func (p *Pipeline) invoke(ctx context.Context, def stageDef, fn func(context.Context) stageOutcome) (out stageOutcome, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.ErrorContext(ctx, "stage panicked", "stage", def.id, "panic", rec)
			out = failure(nil, fmt.Sprintf("INTERNAL: %v", rec))
			panicked = true
		}
	}()
	return fn(ctx), false
}

// failOnboarding records the failing stage's errors and swaps in the demo
// factory. The decision phase runs against the fallback.
func (r *run) failOnboarding(errs []string) {
	r.meta.OnboardingErrors = append(r.meta.OnboardingErrors, errs...)
	if r.onboardingFailed {
		return
	}
	r.onboardingFailed = true
	r.factory = factory.DefaultFactory()
	r.meta.UsedDefaultFactory = true
}

// overallStatus reduces the ten records to one verdict. SUCCESS means every
// stage succeeded. FAILED means the run was aborted or degraded past a
// usable result. PARTIAL covers everything between: some stage failed but
// every decision stage ran and the briefing exists.
func (p *Pipeline) overallStatus(r *run, nSpecs, nMetrics int) models.OverallStatus {
	if r.rec.allSuccess() {
		return models.OverallSuccess
	}
	if r.aborted || r.rec.anyDecisionSkipped() || r.briefing == "" || nMetrics == 0 || nMetrics != nSpecs {
		return models.OverallFailed
	}
	return models.OverallPartial
}

// generate calls the model and strictly decodes its output into out. One
// gateway observation is recorded per call, parse failures included.
func (r *run) generate(ctx context.Context, in *llm.GenerateInput, out any) error {
	start := time.Now()
	raw, err := r.p.client.GenerateJSON(ctx, in)
	if err == nil {
		err = decodeStrict(raw, r.p.provider, out)
	}
	r.p.monitor.ObserveLLMCall(r.p.provider, err, time.Since(start))
	return err
}

// llmErrors renders a gateway error for the stage record. A call that died
// with the request context reads CANCELLED rather than the transport kind.
func llmErrors(ctx context.Context, err error) []string {
	if ctx.Err() != nil {
		return []string{fmt.Sprintf("CANCELLED: %v", err)}
	}
	return []string{err.Error()}
}
