package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/models"
)

// stageBriefing writes the operator-facing briefing. When the model cannot
// deliver one, the deterministic template takes its place so the run always
// ends with usable text; the stage still records the failure.
func (r *run) stageBriefing(ctx context.Context) stageOutcome {
	in := &llm.GenerateInput{
		System:     briefingSystem,
		User:       buildBriefingPrompt(r.specs, r.metrics, r.constraints, r.justification, r.meta),
		SchemaName: schemaBriefing,
		Schema:     briefingSchema,
		MaxTokens:  r.p.cfg.MaxBriefingTokens,
	}
	var out briefingOutput
	err := r.generate(ctx, in, &out)
	if err == nil && strings.TrimSpace(out.Briefing) == "" {
		err = &llm.Error{Kind: llm.KindRefused, Provider: r.p.provider, Message: "briefing text is empty"}
	}
	if err != nil {
		r.briefing = deterministicBriefing(r.specs, r.metrics, r.meta, r.constraints)
		return failure(briefingSummary(r.briefing), llmErrors(ctx, err)...)
	}

	r.briefing = out.Briefing
	return success(briefingSummary(r.briefing))
}

func briefingSummary(briefing string) map[string]any {
	return map[string]any{
		"briefing_chars": utf8.RuneCountInString(briefing),
		"non_empty":      briefing != "",
	}
}

// deterministicBriefing renders the fallback briefing used when the model is
// unavailable. Every computed metric is embedded verbatim so the output
// stays actionable on its own.
func deterministicBriefing(specs []models.ScenarioSpec, scenarioMetrics []models.ScenarioMetrics, meta models.OnboardingMeta, constraints string) string {
	var sb strings.Builder
	sb.WriteString("# Schedule Briefing\n\n")

	sb.WriteString("## Executive Summary\n\n")
	if len(scenarioMetrics) == 0 {
		sb.WriteString("The run ended before any scenario could be simulated; no schedule metrics are available.\n\n")
	} else {
		primary := scenarioMetrics[0]
		fmt.Fprintf(&sb, "Evaluated %d scenario(s). In the primary scenario (%s) all work finishes by hour %d; machine %s is the bottleneck at %s utilization.\n",
			len(scenarioMetrics), describeSpec(specs[0]), primary.MakespanHour, primary.BottleneckMachineID, formatUtilization(primary.BottleneckUtilization))
		if late := lateJobs(primary); len(late) > 0 {
			fmt.Fprintf(&sb, "Jobs missing their due hours: %s.\n", strings.Join(late, ", "))
		} else {
			sb.WriteString("Every job meets its due hour.\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Feasibility\n\n")
	if constraints != "" {
		fmt.Fprintf(&sb, "Stated constraints: %s\n\n", constraints)
		if len(scenarioMetrics) > 0 && len(lateJobs(scenarioMetrics[0])) == 0 {
			sb.WriteString("The primary schedule meets every due hour, which is the only constraint the scheduler can verify mechanically. Check the remaining constraints against the numbers below.\n\n")
		} else {
			sb.WriteString("The primary schedule does not meet every due hour; the stated constraints are unlikely to hold. Check the numbers below.\n\n")
		}
	} else {
		sb.WriteString("No constraints were stated; feasibility reduces to the due hours, covered in the summary above.\n\n")
	}

	sb.WriteString("## Scenario Metrics\n\n")
	sb.WriteString(formatScenarioMetrics(specs, scenarioMetrics))

	sb.WriteString("## Recommendations\n\n")
	if len(scenarioMetrics) > 0 {
		primary := scenarioMetrics[0]
		if late := lateJobs(primary); len(late) > 0 {
			fmt.Fprintf(&sb, "- Resequence or add capacity on %s; %s currently miss their due hours.\n", primary.BottleneckMachineID, strings.Join(late, ", "))
		} else {
			sb.WriteString("- No intervention required; all jobs complete on time in the primary scenario.\n")
		}
		fmt.Fprintf(&sb, "- Watch machine %s: it carries the highest load, so any slowdown there moves the whole schedule.\n", primary.BottleneckMachineID)
	} else {
		sb.WriteString("- Re-run the request; no simulation output is available to recommend against.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Caveats\n\n")
	sb.WriteString("- This briefing was assembled from the deterministic template because the language model was unavailable; the numbers above are exact, the prose is canned.\n")
	if meta.UsedDefaultFactory {
		sb.WriteString("- Onboarding failed, so these results describe the built-in demo factory, not the submitted description.\n")
	}
	if n := len(meta.InferredAssumptions); n > 0 {
		fmt.Fprintf(&sb, "- Normalization applied %d repair(s) to the extracted factory; see the onboarding record for details.\n", n)
	}

	return sb.String()
}

// formatScenarioMetrics renders one block per scenario with the exact
// computed numbers. Shared between the briefing prompt and the deterministic
// template so both show the same figures.
func formatScenarioMetrics(specs []models.ScenarioSpec, scenarioMetrics []models.ScenarioMetrics) string {
	if len(scenarioMetrics) == 0 {
		return "No scenario metrics were computed.\n\n"
	}
	var sb strings.Builder
	for i, m := range scenarioMetrics {
		label := fmt.Sprintf("Scenario %d", i+1)
		if i < len(specs) {
			label += ": " + describeSpec(specs[i])
		}
		fmt.Fprintf(&sb, "### %s\n\n", label)
		fmt.Fprintf(&sb, "- makespan_hour: %d\n", m.MakespanHour)
		fmt.Fprintf(&sb, "- bottleneck_machine_id: %s\n", m.BottleneckMachineID)
		fmt.Fprintf(&sb, "- bottleneck_utilization: %s\n", formatUtilization(m.BottleneckUtilization))
		fmt.Fprintf(&sb, "- job_lateness: %s\n\n", formatLateness(m.JobLateness))
	}
	return sb.String()
}

func describeSpec(spec models.ScenarioSpec) string {
	switch spec.ScenarioType {
	case models.ScenarioRushArrives:
		return fmt.Sprintf("RUSH_ARRIVES (rush_job_id=%s)", spec.RushJobID)
	case models.ScenarioM2Slowdown:
		return fmt.Sprintf("M2_SLOWDOWN (slowdown_factor=%d)", spec.SlowdownFactor)
	default:
		return string(spec.ScenarioType)
	}
}

func formatLateness(lateness map[string]int) string {
	if len(lateness) == 0 {
		return "none recorded"
	}
	ids := make([]string, 0, len(lateness))
	for id := range lateness {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s=%d", id, lateness[id]))
	}
	return strings.Join(parts, ", ")
}

func formatUtilization(u float64) string {
	return strconv.FormatFloat(u, 'f', 2, 64)
}

// lateJobs returns the ids of jobs with positive lateness, sorted.
func lateJobs(m models.ScenarioMetrics) []string {
	var late []string
	for id, hours := range m.JobLateness {
		if hours > 0 {
			late = append(late, id)
		}
	}
	sort.Strings(late)
	return late
}
