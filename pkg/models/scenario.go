package models

// ScenarioType is the closed set of what-if scenarios the scheduler knows how
// to apply. Model output outside this set is coerced or dropped upstream; the
// scheduler never sees an unknown type.
type ScenarioType string

const (
	// ScenarioBaseline schedules the factory as described.
	ScenarioBaseline ScenarioType = "BASELINE"
	// ScenarioRushArrives tightens one job's due time to just under the
	// current minimum.
	ScenarioRushArrives ScenarioType = "RUSH_ARRIVES"
	// ScenarioM2Slowdown multiplies the duration of every step on machine
	// M2 by an integer factor ≥ 2.
	ScenarioM2Slowdown ScenarioType = "M2_SLOWDOWN"
)

// IsValid reports whether t is one of the known scenario types.
func (t ScenarioType) IsValid() bool {
	switch t {
	case ScenarioBaseline, ScenarioRushArrives, ScenarioM2Slowdown:
		return true
	}
	return false
}

// ScenarioSpec is a fully validated scenario. RushJobID is set iff the type
// is RUSH_ARRIVES and references a job in the factory; SlowdownFactor is set
// iff the type is M2_SLOWDOWN and is ≥ 2.
type ScenarioSpec struct {
	ScenarioType   ScenarioType `json:"scenario_type"`
	RushJobID      string       `json:"rush_job_id,omitempty"`
	SlowdownFactor int          `json:"slowdown_factor,omitempty"`
}

// Equal reports whether two specs have identical type and parameters.
func (s ScenarioSpec) Equal(o ScenarioSpec) bool {
	return s.ScenarioType == o.ScenarioType &&
		s.RushJobID == o.RushJobID &&
		s.SlowdownFactor == o.SlowdownFactor
}

// BaselineSpec returns the identity scenario.
func BaselineSpec() ScenarioSpec {
	return ScenarioSpec{ScenarioType: ScenarioBaseline}
}
