package models

// ScheduledStep is one placed unit of work. EndHour is always StartHour plus
// the step's effective duration; hours are integers throughout.
type ScheduledStep struct {
	JobID     string `json:"job_id"`
	MachineID string `json:"machine_id"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// SimulationResult is the deterministic schedule for one scenario spec.
type SimulationResult struct {
	ScheduledSteps     []ScheduledStep `json:"scheduled_steps"`
	JobCompletionTimes map[string]int  `json:"job_completion_times"`
	MakespanHour       int             `json:"makespan_hour"`
}

// ScenarioMetrics aggregates one simulation result. JobLateness has an entry
// for every job in the factory, each ≥ 0. BottleneckUtilization is clamped to
// [0, 1].
type ScenarioMetrics struct {
	MakespanHour          int            `json:"makespan_hour"`
	JobLateness           map[string]int `json:"job_lateness"`
	BottleneckMachineID   string         `json:"bottleneck_machine_id"`
	BottleneckUtilization float64        `json:"bottleneck_utilization"`
}
