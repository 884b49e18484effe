package eval

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/shopworks/foreman/pkg/factory"
	"github.com/shopworks/foreman/pkg/models"
	"github.com/shopworks/foreman/pkg/pipeline"
	"github.com/shopworks/foreman/pkg/sim"
)

// stageIDOrder is the fixed ten-stage sequence every debug payload carries.
var stageIDOrder = []string{"O0", "O1", "O2", "O3", "O4", "D1", "D2", "D3", "D4", "D5"}

// CheckResult verifies the structural guarantees of one pipeline result and
// returns one message per violation. An empty slice means the result is
// sound. Schedules are re-derived with the pure simulator, so a disagreement
// between reported metrics and a re-simulation is caught as well.
func CheckResult(res *pipeline.Result) []string {
	if res == nil {
		return []string{"result is nil"}
	}

	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if len(res.Specs) != len(res.Metrics) {
		report("specs and metrics diverge: %d specs, %d metrics", len(res.Specs), len(res.Metrics))
	}
	if n := len(res.Specs); n < 1 || n > 3 {
		report("scenario count %d outside [1, 3]", n)
	}
	if res.Briefing == "" {
		report("briefing is empty")
	}

	violations = append(violations, checkFactoryShape(res.Factory)...)
	violations = append(violations, checkStageRecords(res)...)

	if res.Factory != nil {
		violations = append(violations, checkMetricRanges(res.Factory, res.Metrics)...)
		violations = append(violations, checkSchedules(res.Factory, res.Specs, res.Metrics)...)
	}
	return violations
}

// checkFactoryShape verifies the post-normalization factory contract: counts
// within caps, unique ids, positive durations, non-negative dues, and every
// step on a machine that exists.
func checkFactoryShape(cfg *models.FactoryConfig) []string {
	if cfg == nil {
		return []string{"factory is nil"}
	}

	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if n := len(cfg.Machines); n < 1 || n > factory.MaxMachines {
		report("machine count %d outside [1, %d]", n, factory.MaxMachines)
	}
	if n := len(cfg.Jobs); n < 1 || n > factory.MaxJobs {
		report("job count %d outside [1, %d]", n, factory.MaxJobs)
	}

	machines := make(map[string]bool, len(cfg.Machines))
	for _, m := range cfg.Machines {
		if machines[m.ID] {
			report("duplicate machine id %s", m.ID)
		}
		machines[m.ID] = true
	}

	jobs := make(map[string]bool, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		if jobs[j.ID] {
			report("duplicate job id %s", j.ID)
		}
		jobs[j.ID] = true

		if n := len(j.Steps); n < 1 || n > factory.MaxStepsPerJob {
			report("job %s has %d steps, outside [1, %d]", j.ID, n, factory.MaxStepsPerJob)
		}
		if j.DueTimeHour < 0 {
			report("job %s due hour %d is negative", j.ID, j.DueTimeHour)
		}
		for i, st := range j.Steps {
			if st.DurationHours < 1 {
				report("job %s step %d duration %d below 1", j.ID, i, st.DurationHours)
			}
			if !machines[st.MachineID] {
				report("job %s step %d references unknown machine %s", j.ID, i, st.MachineID)
			}
		}
	}
	return violations
}

// checkStageRecords verifies the debug payload: exactly ten records in the
// fixed order, overall status consistent with the per-stage statuses, and
// the fallback flag consistent with onboarding failures.
func checkStageRecords(res *pipeline.Result) []string {
	if res.Debug == nil {
		return []string{"debug payload missing"}
	}

	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	stages := res.Debug.Stages
	if len(stages) != len(stageIDOrder) {
		report("stage record count %d, want %d", len(stages), len(stageIDOrder))
	} else {
		for i, want := range stageIDOrder {
			if stages[i].ID != want {
				report("stage %d has id %s, want %s", i, stages[i].ID, want)
			}
		}
	}

	allSuccess := true
	onboardingFailed := false
	for _, st := range stages {
		if st.Status != models.StageSuccess {
			allSuccess = false
		}
		if st.Kind == models.KindOnboarding && st.Status == models.StageFailed {
			onboardingFailed = true
		}
	}

	if allSuccess != (res.Debug.OverallStatus == models.OverallSuccess) {
		report("overall status %s inconsistent with stage statuses (all success: %v)",
			res.Debug.OverallStatus, allSuccess)
	}
	if res.Meta.UsedDefaultFactory != onboardingFailed {
		report("used_default_factory=%v but an onboarding stage failed=%v",
			res.Meta.UsedDefaultFactory, onboardingFailed)
	}
	return violations
}

// checkMetricRanges verifies utilization bounds and that lateness is
// non-negative with exactly one entry per factory job.
func checkMetricRanges(cfg *models.FactoryConfig, metricsList []models.ScenarioMetrics) []string {
	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	jobs := make(map[string]bool, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		jobs[j.ID] = true
	}

	for i, m := range metricsList {
		if m.MakespanHour < 0 {
			report("scenario %d makespan %d is negative", i, m.MakespanHour)
		}
		if m.BottleneckUtilization < 0 || m.BottleneckUtilization > 1 {
			report("scenario %d utilization %.3f outside [0, 1]", i, m.BottleneckUtilization)
		}
		if len(m.JobLateness) != len(cfg.Jobs) {
			report("scenario %d lateness has %d entries, want one per job (%d)",
				i, len(m.JobLateness), len(cfg.Jobs))
		}
		for id, late := range m.JobLateness {
			if !jobs[id] {
				report("scenario %d lateness keyed by unknown job %s", i, id)
			}
			if late < 0 {
				report("scenario %d job %s lateness %d is negative", i, id, late)
			}
		}
	}
	return violations
}

// checkSchedules re-runs the pure simulator for every spec and verifies the
// schedule: positive durations, known machines, disjoint machine intervals,
// job steps in order without overlap, and reported metrics that match the
// re-simulation.
func checkSchedules(cfg *models.FactoryConfig, specs []models.ScenarioSpec, metricsList []models.ScenarioMetrics) []string {
	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	for i, spec := range specs {
		scenarioCfg := sim.ApplyScenario(cfg, spec)
		result := sim.Simulate(scenarioCfg)

		machines := make(map[string]bool, len(scenarioCfg.Machines))
		for _, m := range scenarioCfg.Machines {
			machines[m.ID] = true
		}

		byMachine := make(map[string][]models.ScheduledStep)
		byJob := make(map[string][]models.ScheduledStep)
		for _, st := range result.ScheduledSteps {
			if st.EndHour-st.StartHour < 1 {
				report("scenario %d: job %s on %s has a non-positive duration", i, st.JobID, st.MachineID)
			}
			if !machines[st.MachineID] {
				report("scenario %d: job %s scheduled on unknown machine %s", i, st.JobID, st.MachineID)
			}
			byMachine[st.MachineID] = append(byMachine[st.MachineID], st)
			byJob[st.JobID] = append(byJob[st.JobID], st)
		}

		for id, steps := range byMachine {
			sort.Slice(steps, func(a, b int) bool { return steps[a].StartHour < steps[b].StartHour })
			for k := 1; k < len(steps); k++ {
				if steps[k].StartHour < steps[k-1].EndHour {
					report("scenario %d: machine %s double-booked at hour %d", i, id, steps[k].StartHour)
				}
			}
		}

		// The simulator appends a job's steps in their declared order.
		for id, steps := range byJob {
			for k := 1; k < len(steps); k++ {
				if steps[k].StartHour < steps[k-1].EndHour {
					report("scenario %d: job %s steps overlap at hour %d", i, id, steps[k].StartHour)
				}
			}
		}

		if i < len(metricsList) {
			if recomputed := sim.ComputeMetrics(scenarioCfg, result); !reflect.DeepEqual(recomputed, metricsList[i]) {
				report("scenario %d: reported metrics do not match a re-simulation", i)
			}
		}
	}
	return violations
}
