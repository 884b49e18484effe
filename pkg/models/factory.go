// Package models holds the domain value types shared across the pipeline,
// scheduler, and API layers. All values are immutable once constructed;
// anything that mutates works on a Clone.
package models

import "sort"

// Machine is a single work station. Identity is the id; the name is
// display-only and never used for matching.
type Machine struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Step is an atomic, non-preemptible unit of work on one machine.
// DurationHours is ≥ 1 after normalization.
type Step struct {
	MachineID     string `json:"machine_id"`
	DurationHours int    `json:"duration_hours"`
}

// Job is an ordered sequence of steps with a due time in whole hours.
// Steps execute in list order with no branching.
type Job struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Steps       []Step `json:"steps"`
	DueTimeHour int    `json:"due_time_hour"`
}

// FactoryConfig is the validated factory model produced by onboarding (or the
// fallback). Machines and jobs are insertion-ordered with unique ids; every
// step references an existing machine. Consumers treat it as read-only.
type FactoryConfig struct {
	Machines []Machine `json:"machines"`
	Jobs     []Job     `json:"jobs"`
}

// Clone returns a deep copy safe for mutation (scenario application).
func (f *FactoryConfig) Clone() *FactoryConfig {
	out := &FactoryConfig{
		Machines: make([]Machine, len(f.Machines)),
		Jobs:     make([]Job, len(f.Jobs)),
	}
	copy(out.Machines, f.Machines)
	for i, j := range f.Jobs {
		steps := make([]Step, len(j.Steps))
		copy(steps, j.Steps)
		j.Steps = steps
		out.Jobs[i] = j
	}
	return out
}

// HasMachine reports whether a machine with the given id exists.
func (f *FactoryConfig) HasMachine(id string) bool {
	for _, m := range f.Machines {
		if m.ID == id {
			return true
		}
	}
	return false
}

// HasJob reports whether a job with the given id exists.
func (f *FactoryConfig) HasJob(id string) bool {
	for _, j := range f.Jobs {
		if j.ID == id {
			return true
		}
	}
	return false
}

// MachineIDs returns all machine ids, sorted.
func (f *FactoryConfig) MachineIDs() []string {
	ids := make([]string, 0, len(f.Machines))
	for _, m := range f.Machines {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids
}

// JobIDs returns all job ids, sorted.
func (f *FactoryConfig) JobIDs() []string {
	ids := make([]string, 0, len(f.Jobs))
	for _, j := range f.Jobs {
		ids = append(ids, j.ID)
	}
	sort.Strings(ids)
	return ids
}

// ExplicitIDs are the machine/job ids literally mentioned in the factory
// description, extracted by regex before any model call. They are the ground
// truth for coverage checks; both lists are sorted and deduplicated.
type ExplicitIDs struct {
	MachineIDs []string `json:"machine_ids"`
	JobIDs     []string `json:"job_ids"`
}

// RawMachine is a machine as reported by the coarse extraction, before
// normalization.
type RawMachine struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawStep is a step as reported by the fine extraction. The duration may be
// missing or fractional until normalization repairs it.
type RawStep struct {
	MachineID     string   `json:"machine_id"`
	DurationHours *float64 `json:"duration_hours"`
}

// RawJob is a job as reported by the fine extraction, before normalization.
type RawJob struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Steps       []RawStep `json:"steps"`
	DueTimeHour *float64  `json:"due_time_hour"`
}

// RawFactory is the pre-normalization factory assembled from the coarse and
// fine extraction stages.
type RawFactory struct {
	Machines []RawMachine `json:"machines"`
	Jobs     []RawJob     `json:"jobs"`
}
