// Package sim is the deterministic core of the decision pipeline: scenario
// application, earliest-due-date scheduling, and schedule metrics. Nothing in
// this package performs I/O, and all scheduling arithmetic is integral, so
// identical inputs always produce identical outputs.
package sim

import (
	"sort"

	"github.com/shopworks/foreman/pkg/models"
)

// slowdownMachineID is the machine affected by the M2_SLOWDOWN scenario.
const slowdownMachineID = "M2"

// ApplyScenario derives the effective factory for a scenario. The input
// factory is cloned first and never mutated, so one config can back any
// number of scenarios. Callers are expected to pass a spec that already
// passed intent normalization; an unknown rush job id degrades to a plain
// copy rather than an error.
func ApplyScenario(cfg *models.FactoryConfig, spec models.ScenarioSpec) *models.FactoryConfig {
	effective := cfg.Clone()

	switch spec.ScenarioType {
	case models.ScenarioRushArrives:
		// Tighten the rush job below the tightest due time in the shop,
		// measured before the change.
		minDue := minDueHour(effective.Jobs)
		for i := range effective.Jobs {
			if effective.Jobs[i].ID == spec.RushJobID {
				effective.Jobs[i].DueTimeHour = max(0, minDue-1)
			}
		}

	case models.ScenarioM2Slowdown:
		factor := spec.SlowdownFactor
		if factor < 2 {
			factor = 2
		}
		for i := range effective.Jobs {
			steps := effective.Jobs[i].Steps
			for s := range steps {
				if steps[s].MachineID == slowdownMachineID {
					steps[s].DurationHours *= factor
				}
			}
		}
	}

	return effective
}

// Simulate schedules the factory with earliest-due-date ordering and greedy
// earliest-fit placement. Jobs are sorted by (due_time_hour, job id); each
// step starts as soon as both its machine and the job's previous step are
// free. No preemption, no migration, no search.
func Simulate(cfg *models.FactoryConfig) models.SimulationResult {
	jobs := make([]models.Job, len(cfg.Jobs))
	copy(jobs, cfg.Jobs)
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].DueTimeHour != jobs[j].DueTimeHour {
			return jobs[i].DueTimeHour < jobs[j].DueTimeHour
		}
		return jobs[i].ID < jobs[j].ID
	})

	machineFree := make(map[string]int, len(cfg.Machines))
	result := models.SimulationResult{
		ScheduledSteps:     []models.ScheduledStep{},
		JobCompletionTimes: make(map[string]int, len(jobs)),
	}

	for _, job := range jobs {
		jobFree := 0
		for _, step := range job.Steps {
			start := max(machineFree[step.MachineID], jobFree)
			end := start + step.DurationHours
			result.ScheduledSteps = append(result.ScheduledSteps, models.ScheduledStep{
				JobID:     job.ID,
				MachineID: step.MachineID,
				StartHour: start,
				EndHour:   end,
			})
			machineFree[step.MachineID] = end
			jobFree = end
		}
		result.JobCompletionTimes[job.ID] = jobFree
		if jobFree > result.MakespanHour {
			result.MakespanHour = jobFree
		}
	}

	return result
}

func minDueHour(jobs []models.Job) int {
	m := 0
	for i, job := range jobs {
		if i == 0 || job.DueTimeHour < m {
			m = job.DueTimeHour
		}
	}
	return m
}
