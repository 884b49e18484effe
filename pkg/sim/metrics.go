package sim

import "github.com/shopworks/foreman/pkg/models"

// ComputeMetrics aggregates a simulation result into scenario metrics.
// Every job in the factory gets a lateness entry, lateness is never
// negative, and utilization is clamped to [0, 1].
func ComputeMetrics(cfg *models.FactoryConfig, result models.SimulationResult) models.ScenarioMetrics {
	lateness := make(map[string]int, len(cfg.Jobs))
	for _, job := range cfg.Jobs {
		lateness[job.ID] = max(0, result.JobCompletionTimes[job.ID]-job.DueTimeHour)
	}

	busy := make(map[string]int, len(cfg.Machines))
	for _, step := range result.ScheduledSteps {
		busy[step.MachineID] += step.EndHour - step.StartHour
	}

	// Greatest busy-hours wins; the sorted walk makes ties fall to the
	// lexicographically smallest machine id.
	bottleneckID := ""
	bottleneckBusy := -1
	for _, id := range cfg.MachineIDs() {
		if busy[id] > bottleneckBusy {
			bottleneckID = id
			bottleneckBusy = busy[id]
		}
	}

	utilization := 0.0
	if result.MakespanHour > 0 && bottleneckBusy > 0 {
		utilization = float64(bottleneckBusy) / float64(result.MakespanHour)
		if utilization > 1 {
			utilization = 1
		}
	}

	return models.ScenarioMetrics{
		MakespanHour:          result.MakespanHour,
		JobLateness:           lateness,
		BottleneckMachineID:   bottleneckID,
		BottleneckUtilization: utilization,
	}
}
