package factory

import (
	"fmt"
	"math"

	"github.com/shopworks/foreman/pkg/models"
)

// Soft caps applied by truncation during normalization.
const (
	MaxMachines    = 10
	MaxJobs        = 15
	MaxStepsPerJob = 10
)

const (
	defaultDurationHours = 1
	defaultDueTimeHour   = 24
)

// Normalize repairs a raw extracted factory into a valid FactoryConfig.
// Pure and deterministic: same input produces the same config and the same
// warnings in the same order, and normalizing an already-valid factory is a
// no-op. A nil config is the empty marker; the caller decides the fallback.
//
// Rules, applied in order:
//  1. durations missing, fractional, or ≤ 0 are coerced to 1
//  2. due times missing, fractional, or < 0 are coerced to 24
//  3. steps referencing unknown machines are dropped
//  4. jobs left with no steps are dropped
//  5. caps are enforced by keeping the first N in insertion order
//  6. duplicate machine/job ids keep the first occurrence
//  7. if no machines or no jobs remain, the empty marker is returned
func Normalize(raw models.RawFactory) (*models.FactoryConfig, []string) {
	warnings := []string{}

	type workStep struct {
		machineID string
		duration  int
	}
	type workJob struct {
		id    string
		name  string
		steps []workStep
		due   int
	}

	machines := make([]models.Machine, 0, len(raw.Machines))
	for _, m := range raw.Machines {
		machines = append(machines, models.Machine{ID: m.ID, Name: m.Name})
	}
	machineSet := make(map[string]struct{}, len(machines))
	for _, m := range machines {
		machineSet[m.ID] = struct{}{}
	}

	jobs := make([]workJob, 0, len(raw.Jobs))
	for _, rj := range raw.Jobs {
		job := workJob{id: rj.ID, name: rj.Name}

		// 1. Coerce durations.
		for i, rs := range rj.Steps {
			duration, ok := wholeNonNegative(rs.DurationHours)
			if !ok || duration <= 0 {
				duration = defaultDurationHours
				warnings = append(warnings,
					fmt.Sprintf("job %s step %d: invalid duration_hours, coerced to %d", rj.ID, i, defaultDurationHours))
			}
			job.steps = append(job.steps, workStep{machineID: rs.MachineID, duration: duration})
		}

		// 2. Coerce due time.
		due, ok := wholeNonNegative(rj.DueTimeHour)
		if !ok {
			due = defaultDueTimeHour
			warnings = append(warnings,
				fmt.Sprintf("job %s: invalid due_time_hour, coerced to %d", rj.ID, defaultDueTimeHour))
		}
		job.due = due

		// 3. Drop steps on unknown machines.
		kept := job.steps[:0]
		for i, s := range job.steps {
			if _, exists := machineSet[s.machineID]; !exists {
				warnings = append(warnings,
					fmt.Sprintf("job %s step %d: unknown machine %s, step dropped", rj.ID, i, s.machineID))
				continue
			}
			kept = append(kept, s)
		}
		job.steps = kept

		// 4. Drop jobs with no remaining steps.
		if len(job.steps) == 0 {
			warnings = append(warnings, fmt.Sprintf("job %s: no valid steps, job dropped", rj.ID))
			continue
		}

		jobs = append(jobs, job)
	}

	// 5. Caps, keeping the first N in insertion order.
	if len(machines) > MaxMachines {
		warnings = append(warnings,
			fmt.Sprintf("machine list truncated to %d of %d", MaxMachines, len(machines)))
		machines = machines[:MaxMachines]
	}
	if len(jobs) > MaxJobs {
		warnings = append(warnings,
			fmt.Sprintf("job list truncated to %d of %d", MaxJobs, len(jobs)))
		jobs = jobs[:MaxJobs]
	}
	for i := range jobs {
		if len(jobs[i].steps) > MaxStepsPerJob {
			warnings = append(warnings,
				fmt.Sprintf("job %s steps truncated to %d of %d", jobs[i].id, MaxStepsPerJob, len(jobs[i].steps)))
			jobs[i].steps = jobs[i].steps[:MaxStepsPerJob]
		}
	}

	// 6. De-duplicate ids, keeping the first occurrence.
	uniqueMachines := machines[:0]
	seenMachines := make(map[string]struct{}, len(machines))
	for _, m := range machines {
		if _, dup := seenMachines[m.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate machine id %s ignored", m.ID))
			continue
		}
		seenMachines[m.ID] = struct{}{}
		uniqueMachines = append(uniqueMachines, m)
	}
	machines = uniqueMachines

	uniqueJobs := jobs[:0]
	seenJobs := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		if _, dup := seenJobs[j.id]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate job id %s ignored", j.id))
			continue
		}
		seenJobs[j.id] = struct{}{}
		uniqueJobs = append(uniqueJobs, j)
	}
	jobs = uniqueJobs

	// 7. Empty marker.
	if len(machines) == 0 || len(jobs) == 0 {
		return nil, warnings
	}

	cfg := &models.FactoryConfig{
		Machines: machines,
		Jobs:     make([]models.Job, 0, len(jobs)),
	}
	for _, j := range jobs {
		steps := make([]models.Step, 0, len(j.steps))
		for _, s := range j.steps {
			steps = append(steps, models.Step{MachineID: s.machineID, DurationHours: s.duration})
		}
		cfg.Jobs = append(cfg.Jobs, models.Job{
			ID:          j.id,
			Name:        j.name,
			Steps:       steps,
			DueTimeHour: j.due,
		})
	}
	return cfg, warnings
}

// wholeNonNegative reports the integer value of v when v is present, whole,
// and ≥ 0. Fractional values are invalid rather than rounded: the extraction
// schema promises whole hours, so a fraction means the model guessed.
func wholeNonNegative(v *float64) (int, bool) {
	if v == nil {
		return 0, false
	}
	f := *v
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
