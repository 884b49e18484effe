package pipeline

import (
	"fmt"
	"strings"

	"github.com/shopworks/foreman/pkg/models"
)

// System prompts per pipeline phase. Stage-specific detail lives in the user
// message; these set the role and the output discipline.

const onboardingSystem = `You are the onboarding assistant of a job-shop scheduling service.
You read a free-form factory description and extract structured data from it.
Report only machines and jobs the description mentions; never invent ids and
never drop an id the description states. Respond with a single JSON object
matching the requested schema.`

const decisionSystem = `You are the planning assistant of a job-shop scheduling service.
You classify an operator's situation and propose what-if scenarios worth
simulating. BASELINE schedules the factory exactly as described. RUSH_ARRIVES
tightens one job's due time to model a rush order. M2_SLOWDOWN multiplies the
duration of every step on machine M2 by an integer factor of at least 2.
Respond with a single JSON object matching the requested schema.`

const briefingSystem = `You are a production planner writing a short operations briefing in
Markdown. Base every number on the metrics you are given; never invent
figures. Respond with a single JSON object matching the requested schema,
with the briefing text in the "briefing" field.`

// buildCoarsePrompt asks for the machine and job inventory. The explicit ids
// from the regex pass are restated as a hard requirement so the coverage
// check that follows has teeth.
func buildCoarsePrompt(description string, explicit models.ExplicitIDs) string {
	var sb strings.Builder
	sb.WriteString("## Factory Description\n\n")
	sb.WriteString(description)
	sb.WriteString("\n\n## Required Ids\n\n")
	fmt.Fprintf(&sb, "Machine ids that must appear in your answer: %s\n", formatIDList(explicit.MachineIDs))
	fmt.Fprintf(&sb, "Job ids that must appear in your answer: %s\n", formatIDList(explicit.JobIDs))
	sb.WriteString("\n## Task\n\n")
	sb.WriteString("List every machine and every job the description mentions, each with its id and a short display name. Do not include steps, durations, or due times.\n")
	return sb.String()
}

// buildFinePrompt asks for steps and due times, constrained to the entity
// lists the coarse pass produced.
func buildFinePrompt(description string, coarse *coarseStructure) string {
	var sb strings.Builder
	sb.WriteString("## Factory Description\n\n")
	sb.WriteString(description)
	sb.WriteString("\n\n## Known Machines\n\n")
	writeEntityLines(&sb, coarse.Machines)
	sb.WriteString("\n## Known Jobs\n\n")
	writeEntityLines(&sb, coarse.Jobs)
	sb.WriteString("\n## Task\n\n")
	sb.WriteString("For each known job, list its steps in execution order with machine_id and duration_hours, and give its due_time_hour. ")
	sb.WriteString("Use only the known machine and job ids above. Report durations and due times in hours, exactly as the description states them.\n")
	return sb.String()
}

func buildIntentPrompt(situation string, f *models.FactoryConfig) string {
	var sb strings.Builder
	sb.WriteString("## Situation\n\n")
	sb.WriteString(situation)
	sb.WriteString("\n\n")
	sb.WriteString(formatFactorySection(f))
	sb.WriteString("## Task\n\n")
	sb.WriteString("Classify the situation as BASELINE, RUSH_ARRIVES, or M2_SLOWDOWN. ")
	sb.WriteString("For RUSH_ARRIVES set rush_job_id to one of the job ids above; for M2_SLOWDOWN set slowdown_factor to an integer of at least 2; otherwise leave rush_job_id empty and slowdown_factor 0. ")
	sb.WriteString("Copy any hard requirements the operator states (deadlines, capacity limits) into the constraints field, or leave it empty.\n")
	return sb.String()
}

func buildFuturesPrompt(d1Spec models.ScenarioSpec, constraints string, f *models.FactoryConfig) string {
	var sb strings.Builder
	sb.WriteString(formatFactorySection(f))
	sb.WriteString("## Classified Intent\n\n")
	fmt.Fprintf(&sb, "- scenario: %s\n", describeSpec(d1Spec))
	if constraints != "" {
		fmt.Fprintf(&sb, "- constraints: %s\n", constraints)
	}
	sb.WriteString("\n## Task\n\n")
	sb.WriteString("Propose one to three scenarios worth simulating, starting with the classified scenario. ")
	sb.WriteString("Add an alternative only when it answers a question the operator would plausibly ask next. ")
	sb.WriteString("Explain the selection in the justification field.\n")
	return sb.String()
}

func buildBriefingPrompt(specs []models.ScenarioSpec, scenarioMetrics []models.ScenarioMetrics, constraints, justification string, meta models.OnboardingMeta) string {
	var sb strings.Builder
	sb.WriteString("## Simulation Results\n\n")
	sb.WriteString(formatScenarioMetrics(specs, scenarioMetrics))
	if constraints != "" {
		sb.WriteString("## Operator Constraints\n\n")
		sb.WriteString(constraints)
		sb.WriteString("\n\n")
	}
	if justification != "" {
		sb.WriteString("## Scenario Rationale\n\n")
		sb.WriteString(justification)
		sb.WriteString("\n\n")
	}
	if meta.UsedDefaultFactory || len(meta.InferredAssumptions) > 0 {
		sb.WriteString("## Data Caveats\n\n")
		if meta.UsedDefaultFactory {
			sb.WriteString("- Onboarding failed, so the numbers above come from the built-in demo factory, not the operator's description.\n")
		}
		for _, assumption := range meta.InferredAssumptions {
			fmt.Fprintf(&sb, "- Normalization repair: %s\n", assumption)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("## Task\n\n")
	sb.WriteString("Write a Markdown briefing with these sections: executive summary; feasibility against the stated constraints; per-scenario metrics (repeat the numbers above verbatim); recommendations; caveats. ")
	sb.WriteString("When the demo-factory fallback applies, say so in the caveats.\n")
	return sb.String()
}

// formatFactorySection renders the factory for prompt context: machine
// inventory plus each job's route and due time.
func formatFactorySection(f *models.FactoryConfig) string {
	var sb strings.Builder
	sb.WriteString("## Factory\n\nMachines:\n")
	for _, m := range f.Machines {
		if m.Name != "" {
			fmt.Fprintf(&sb, "- %s (%s)\n", m.ID, m.Name)
		} else {
			fmt.Fprintf(&sb, "- %s\n", m.ID)
		}
	}
	sb.WriteString("\nJobs:\n")
	for _, j := range f.Jobs {
		steps := make([]string, 0, len(j.Steps))
		for _, s := range j.Steps {
			steps = append(steps, fmt.Sprintf("%s %dh", s.MachineID, s.DurationHours))
		}
		label := j.ID
		if j.Name != "" {
			label = fmt.Sprintf("%s (%s)", j.ID, j.Name)
		}
		fmt.Fprintf(&sb, "- %s due hour %d: %s\n", label, j.DueTimeHour, strings.Join(steps, " -> "))
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeEntityLines(sb *strings.Builder, entities []coarseEntity) {
	for _, e := range entities {
		if e.Name != "" {
			fmt.Fprintf(sb, "- %s (%s)\n", e.ID, e.Name)
		} else {
			fmt.Fprintf(sb, "- %s\n", e.ID)
		}
	}
}

func formatIDList(ids []string) string {
	if len(ids) == 0 {
		return "none detected"
	}
	return strings.Join(ids, ", ")
}
