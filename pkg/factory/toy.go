package factory

import "github.com/shopworks/foreman/pkg/models"

// DefaultFactory returns the built-in three-machine demo shop used when
// onboarding cannot produce a config. Each call returns a fresh copy so
// callers can mutate scenarios without poisoning later runs.
func DefaultFactory() *models.FactoryConfig {
	return &models.FactoryConfig{
		Machines: []models.Machine{
			{ID: "M1", Name: "Assembly Station"},
			{ID: "M2", Name: "Drill Press"},
			{ID: "M3", Name: "Packing Station"},
		},
		Jobs: []models.Job{
			{
				ID:   "J1",
				Name: "Widget Order",
				Steps: []models.Step{
					{MachineID: "M1", DurationHours: 1},
					{MachineID: "M2", DurationHours: 3},
					{MachineID: "M3", DurationHours: 1},
				},
				DueTimeHour: 12,
			},
			{
				ID:   "J2",
				Name: "Bracket Order",
				Steps: []models.Step{
					{MachineID: "M1", DurationHours: 1},
					{MachineID: "M2", DurationHours: 2},
					{MachineID: "M3", DurationHours: 1},
				},
				DueTimeHour: 14,
			},
			{
				ID:   "J3",
				Name: "Gear Order",
				Steps: []models.Step{
					{MachineID: "M2", DurationHours: 1},
					{MachineID: "M3", DurationHours: 2},
				},
				DueTimeHour: 16,
			},
		},
	}
}

// DefaultFactoryDescription renders the demo shop as prose, the same shape a
// caller would submit for onboarding.
func DefaultFactoryDescription() string {
	return "A small demo shop with three machines. M1 is the assembly station, " +
		"M2 is the drill press, and M3 is the packing station. " +
		"Job J1 (widget order) runs 1 hour on M1, 3 hours on M2, and 1 hour on M3, due by hour 12. " +
		"Job J2 (bracket order) runs 1 hour on M1, 2 hours on M2, and 1 hour on M3, due by hour 14. " +
		"Job J3 (gear order) runs 1 hour on M2 and 2 hours on M3, due by hour 16."
}
