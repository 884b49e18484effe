package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/factory"
	"github.com/shopworks/foreman/pkg/models"
)

func TestSimulateBaselineDemoShop(t *testing.T) {
	result := Simulate(factory.DefaultFactory())

	assert.Equal(t, map[string]int{"J1": 5, "J2": 7, "J3": 9}, result.JobCompletionTimes)
	assert.Equal(t, 9, result.MakespanHour)
	assert.Equal(t, []models.ScheduledStep{
		{JobID: "J1", MachineID: "M1", StartHour: 0, EndHour: 1},
		{JobID: "J1", MachineID: "M2", StartHour: 1, EndHour: 4},
		{JobID: "J1", MachineID: "M3", StartHour: 4, EndHour: 5},
		{JobID: "J2", MachineID: "M1", StartHour: 1, EndHour: 2},
		{JobID: "J2", MachineID: "M2", StartHour: 4, EndHour: 6},
		{JobID: "J2", MachineID: "M3", StartHour: 6, EndHour: 7},
		{JobID: "J3", MachineID: "M2", StartHour: 6, EndHour: 7},
		{JobID: "J3", MachineID: "M3", StartHour: 7, EndHour: 9},
	}, result.ScheduledSteps)
}

func TestSimulateIsDeterministic(t *testing.T) {
	cfg := factory.DefaultFactory()

	first := Simulate(cfg)
	second := Simulate(cfg)

	assert.Equal(t, first, second)
}

func TestSimulateOrdersByDueThenID(t *testing.T) {
	cfg := &models.FactoryConfig{
		Machines: []models.Machine{{ID: "M1"}},
		Jobs: []models.Job{
			{ID: "J_b", Steps: []models.Step{{MachineID: "M1", DurationHours: 1}}, DueTimeHour: 10},
			{ID: "J_a", Steps: []models.Step{{MachineID: "M1", DurationHours: 1}}, DueTimeHour: 10},
			{ID: "J_c", Steps: []models.Step{{MachineID: "M1", DurationHours: 1}}, DueTimeHour: 5},
		},
	}

	result := Simulate(cfg)

	// J_c has the earliest due time; the tie between J_a and J_b falls to id order.
	require.Len(t, result.ScheduledSteps, 3)
	assert.Equal(t, "J_c", result.ScheduledSteps[0].JobID)
	assert.Equal(t, "J_a", result.ScheduledSteps[1].JobID)
	assert.Equal(t, "J_b", result.ScheduledSteps[2].JobID)
}

func TestSimulateSingleJobSingleMachine(t *testing.T) {
	cfg := &models.FactoryConfig{
		Machines: []models.Machine{{ID: "M1", Name: "Lathe"}},
		Jobs: []models.Job{
			{ID: "J1", Steps: []models.Step{{MachineID: "M1", DurationHours: 3}}, DueTimeHour: 8},
		},
	}

	result := Simulate(cfg)

	assert.Equal(t, []models.ScheduledStep{
		{JobID: "J1", MachineID: "M1", StartHour: 0, EndHour: 3},
	}, result.ScheduledSteps)
	assert.Equal(t, map[string]int{"J1": 3}, result.JobCompletionTimes)
	assert.Equal(t, 3, result.MakespanHour)
}

func TestSimulateIntervalsStayDisjoint(t *testing.T) {
	result := Simulate(factory.DefaultFactory())

	type interval struct{ start, end int }
	byMachine := map[string][]interval{}
	byJob := map[string][]interval{}
	for _, s := range result.ScheduledSteps {
		assert.GreaterOrEqual(t, s.EndHour-s.StartHour, 1)
		byMachine[s.MachineID] = append(byMachine[s.MachineID], interval{s.StartHour, s.EndHour})
		byJob[s.JobID] = append(byJob[s.JobID], interval{s.StartHour, s.EndHour})
	}
	for machine, intervals := range byMachine {
		for i := 1; i < len(intervals); i++ {
			assert.GreaterOrEqual(t, intervals[i].start, intervals[i-1].end,
				"machine %s runs overlapping steps", machine)
		}
	}
	for job, intervals := range byJob {
		for i := 1; i < len(intervals); i++ {
			assert.GreaterOrEqual(t, intervals[i].start, intervals[i-1].end,
				"job %s steps overlap", job)
		}
	}
}

func TestApplyScenarioBaselineIsIdentity(t *testing.T) {
	cfg := factory.DefaultFactory()

	effective := ApplyScenario(cfg, models.BaselineSpec())

	assert.Equal(t, cfg, effective)
	assert.NotSame(t, cfg, effective)
}

func TestApplyScenarioRushTightensDueTime(t *testing.T) {
	cfg := factory.DefaultFactory()

	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType: models.ScenarioRushArrives,
		RushJobID:    "J2",
	})

	// Tightest due time before application is J1's 12, so J2 lands on 11.
	require.Len(t, effective.Jobs, 3)
	assert.Equal(t, 11, effective.Jobs[1].DueTimeHour)
	assert.Equal(t, 12, effective.Jobs[0].DueTimeHour)
	assert.Equal(t, 16, effective.Jobs[2].DueTimeHour)
	// Original stays untouched.
	assert.Equal(t, 14, cfg.Jobs[1].DueTimeHour)
}

func TestApplyScenarioRushOnTightestJob(t *testing.T) {
	cfg := factory.DefaultFactory()

	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType: models.ScenarioRushArrives,
		RushJobID:    "J1",
	})

	// The rule applies even when the rush job already holds the minimum.
	assert.Equal(t, 11, effective.Jobs[0].DueTimeHour)
}

func TestApplyScenarioRushClampsAtZero(t *testing.T) {
	cfg := &models.FactoryConfig{
		Machines: []models.Machine{{ID: "M1"}},
		Jobs: []models.Job{
			{ID: "J1", Steps: []models.Step{{MachineID: "M1", DurationHours: 1}}, DueTimeHour: 0},
		},
	}

	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType: models.ScenarioRushArrives,
		RushJobID:    "J1",
	})

	assert.Equal(t, 0, effective.Jobs[0].DueTimeHour)
}

func TestApplyScenarioRushUnknownJobIsNoOp(t *testing.T) {
	cfg := factory.DefaultFactory()

	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType: models.ScenarioRushArrives,
		RushJobID:    "J99",
	})

	assert.Equal(t, cfg, effective)
}

func TestSimulateRushReordersJobs(t *testing.T) {
	cfg := factory.DefaultFactory()
	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType: models.ScenarioRushArrives,
		RushJobID:    "J2",
	})

	result := Simulate(effective)

	// J2's tightened due time of 11 moves it to the front of the order.
	assert.Equal(t, "J2", result.ScheduledSteps[0].JobID)
	assert.Equal(t, map[string]int{"J2": 4, "J1": 7, "J3": 9}, result.JobCompletionTimes)
	assert.Equal(t, 9, result.MakespanHour)
}

func TestApplyScenarioSlowdownDoublesM2(t *testing.T) {
	cfg := factory.DefaultFactory()

	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType:   models.ScenarioM2Slowdown,
		SlowdownFactor: 2,
	})

	assert.Equal(t, 6, effective.Jobs[0].Steps[1].DurationHours)
	assert.Equal(t, 4, effective.Jobs[1].Steps[1].DurationHours)
	assert.Equal(t, 2, effective.Jobs[2].Steps[0].DurationHours)
	// Steps on other machines keep their durations.
	assert.Equal(t, 1, effective.Jobs[0].Steps[0].DurationHours)
	assert.Equal(t, 1, effective.Jobs[0].Steps[2].DurationHours)
	// Original stays untouched.
	assert.Equal(t, 3, cfg.Jobs[0].Steps[1].DurationHours)
}

func TestApplyScenarioSlowdownFactorFloor(t *testing.T) {
	cfg := factory.DefaultFactory()

	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType:   models.ScenarioM2Slowdown,
		SlowdownFactor: 0,
	})

	// Factors below the minimum behave as 2.
	assert.Equal(t, 6, effective.Jobs[0].Steps[1].DurationHours)
}

func TestSimulateSlowdownSchedule(t *testing.T) {
	cfg := factory.DefaultFactory()
	effective := ApplyScenario(cfg, models.ScenarioSpec{
		ScenarioType:   models.ScenarioM2Slowdown,
		SlowdownFactor: 2,
	})

	result := Simulate(effective)

	assert.Equal(t, map[string]int{"J1": 8, "J2": 12, "J3": 15}, result.JobCompletionTimes)
	assert.Equal(t, 15, result.MakespanHour)
	assert.Equal(t, []models.ScheduledStep{
		{JobID: "J1", MachineID: "M1", StartHour: 0, EndHour: 1},
		{JobID: "J1", MachineID: "M2", StartHour: 1, EndHour: 7},
		{JobID: "J1", MachineID: "M3", StartHour: 7, EndHour: 8},
		{JobID: "J2", MachineID: "M1", StartHour: 1, EndHour: 2},
		{JobID: "J2", MachineID: "M2", StartHour: 7, EndHour: 11},
		{JobID: "J2", MachineID: "M3", StartHour: 11, EndHour: 12},
		{JobID: "J3", MachineID: "M2", StartHour: 11, EndHour: 13},
		{JobID: "J3", MachineID: "M3", StartHour: 13, EndHour: 15},
	}, result.ScheduledSteps)
}
