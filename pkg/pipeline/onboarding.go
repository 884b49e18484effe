package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopworks/foreman/pkg/factory"
	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/models"
)

// stageExplicitIDs scans the description for literally mentioned ids. The
// result is the ground truth every later coverage check compares against.
func (r *run) stageExplicitIDs(_ context.Context) stageOutcome {
	r.explicit = factory.ExtractExplicitIDs(r.description)
	return success(map[string]any{
		"machine_ids":   r.explicit.MachineIDs,
		"job_ids":       r.explicit.JobIDs,
		"machine_count": len(r.explicit.MachineIDs),
		"job_count":     len(r.explicit.JobIDs),
	})
}

// stageCoarseStructure asks the model for the machine and job inventory and
// verifies it covers every explicitly mentioned id.
func (r *run) stageCoarseStructure(ctx context.Context) stageOutcome {
	in := &llm.GenerateInput{
		System:     onboardingSystem,
		User:       buildCoarsePrompt(r.description, r.explicit),
		SchemaName: schemaCoarseStructure,
		Schema:     coarseStructureSchema,
	}
	var out coarseStructure
	if err := r.generate(ctx, in, &out); err != nil {
		return failure(map[string]any{"machine_count": 0, "job_count": 0}, llmErrors(ctx, err)...)
	}

	summary := map[string]any{
		"machine_count": len(out.Machines),
		"job_count":     len(out.Jobs),
	}
	missingMachines := missingFrom(r.explicit.MachineIDs, entityIDSet(out.Machines))
	missingJobs := missingFrom(r.explicit.JobIDs, entityIDSet(out.Jobs))
	if len(missingMachines) > 0 || len(missingJobs) > 0 {
		return failure(summary, idSetError("COVERAGE_MISMATCH_COARSE", "missing", missingMachines, missingJobs))
	}

	r.coarse = &out
	return success(summary)
}

// stageFineExtraction asks the model for per-job steps and due times, checks
// every reference resolves to a coarse-pass entity, and assembles the raw
// factory the normalizer consumes.
func (r *run) stageFineExtraction(ctx context.Context) stageOutcome {
	in := &llm.GenerateInput{
		System:     onboardingSystem,
		User:       buildFinePrompt(r.description, r.coarse),
		SchemaName: schemaFineExtraction,
		Schema:     fineExtractionSchema,
	}
	var out fineExtraction
	if err := r.generate(ctx, in, &out); err != nil {
		return failure(map[string]any{"machines_with_steps": 0, "jobs_with_steps": 0, "total_steps": 0}, llmErrors(ctx, err)...)
	}

	knownMachines := entityIDSet(r.coarse.Machines)
	knownJobs := entityIDSet(r.coarse.Jobs)

	referencedMachines := make(map[string]struct{})
	var unknownMachines, unknownJobs []string
	jobsWithSteps := 0
	totalSteps := 0
	for _, job := range out.Jobs {
		if _, known := knownJobs[job.ID]; !known {
			unknownJobs = append(unknownJobs, job.ID)
		}
		if len(job.Steps) > 0 {
			jobsWithSteps++
		}
		for _, step := range job.Steps {
			totalSteps++
			referencedMachines[step.MachineID] = struct{}{}
			if _, known := knownMachines[step.MachineID]; !known {
				unknownMachines = append(unknownMachines, step.MachineID)
			}
		}
	}

	summary := map[string]any{
		"machines_with_steps": len(referencedMachines),
		"jobs_with_steps":     jobsWithSteps,
		"total_steps":         totalSteps,
	}
	if len(unknownMachines) > 0 || len(unknownJobs) > 0 {
		return failure(summary, idSetError("COVERAGE_MISMATCH_FINE", "unknown", dedupeSorted(unknownMachines), dedupeSorted(unknownJobs)))
	}

	r.raw = assembleRawFactory(r.coarse, out)
	return success(summary)
}

// stageNormalizeValidate repairs the raw factory into a valid config. Repair
// warnings are surfaced as inferred assumptions; only an empty result fails.
func (r *run) stageNormalizeValidate(_ context.Context) stageOutcome {
	cfg, warnings := factory.Normalize(r.raw)
	if cfg == nil {
		errs := append([]string{"NORMALIZATION_EMPTY: no machines or jobs survived normalization"}, warnings...)
		return failure(map[string]any{"machine_count": 0, "job_count": 0, "warnings": warnings}, errs...)
	}

	r.factory = cfg
	r.meta.InferredAssumptions = append(r.meta.InferredAssumptions, warnings...)
	return success(map[string]any{
		"machine_count": len(cfg.Machines),
		"job_count":     len(cfg.Jobs),
		"warnings":      warnings,
	})
}

// stageCoverageAssessment compares the normalized factory against the
// explicit ids from the regex pass. Anything the operator literally named
// must have survived extraction and normalization.
func (r *run) stageCoverageAssessment(_ context.Context) stageOutcome {
	parsedMachines := r.factory.MachineIDs()
	parsedJobs := r.factory.JobIDs()

	machineCoverage, missingMachines := coverageOf(r.explicit.MachineIDs, parsedMachines)
	jobCoverage, missingJobs := coverageOf(r.explicit.JobIDs, parsedJobs)
	is100 := machineCoverage == 1.0 && jobCoverage == 1.0

	summary := map[string]any{
		"explicit_machine_ids": r.explicit.MachineIDs,
		"explicit_job_ids":     r.explicit.JobIDs,
		"parsed_machine_ids":   parsedMachines,
		"parsed_job_ids":       parsedJobs,
		"machine_coverage":     machineCoverage,
		"job_coverage":         jobCoverage,
		"missing_machine_ids":  missingMachines,
		"missing_job_ids":      missingJobs,
		"is_100_percent":       is100,
	}
	if !is100 {
		return failure(summary, idSetError("COVERAGE_MISMATCH", "missing", missingMachines, missingJobs))
	}
	return success(summary)
}

// coverageOf returns |required ∩ parsed| / |required| (1.0 when required is
// empty) and the required ids absent from parsed. required is sorted, so the
// missing list comes out sorted too.
func coverageOf(required, parsed []string) (float64, []string) {
	missing := []string{}
	if len(required) == 0 {
		return 1.0, missing
	}
	have := make(map[string]struct{}, len(parsed))
	for _, id := range parsed {
		have[id] = struct{}{}
	}
	hit := 0
	for _, id := range required {
		if _, ok := have[id]; ok {
			hit++
		} else {
			missing = append(missing, id)
		}
	}
	return float64(hit) / float64(len(required)), missing
}

// assembleRawFactory pairs the coarse entity inventory with the fine step
// detail. Job names fall back to the coarse name when the fine pass omits
// them.
func assembleRawFactory(coarse *coarseStructure, fine fineExtraction) models.RawFactory {
	coarseJobNames := make(map[string]string, len(coarse.Jobs))
	for _, j := range coarse.Jobs {
		coarseJobNames[j.ID] = j.Name
	}

	raw := models.RawFactory{
		Machines: make([]models.RawMachine, 0, len(coarse.Machines)),
		Jobs:     make([]models.RawJob, 0, len(fine.Jobs)),
	}
	for _, m := range coarse.Machines {
		raw.Machines = append(raw.Machines, models.RawMachine{ID: m.ID, Name: m.Name})
	}
	for _, j := range fine.Jobs {
		name := j.Name
		if name == "" {
			name = coarseJobNames[j.ID]
		}
		steps := make([]models.RawStep, 0, len(j.Steps))
		for _, s := range j.Steps {
			steps = append(steps, models.RawStep{MachineID: s.MachineID, DurationHours: s.DurationHours})
		}
		raw.Jobs = append(raw.Jobs, models.RawJob{
			ID:          j.ID,
			Name:        name,
			Steps:       steps,
			DueTimeHour: j.DueTimeHour,
		})
	}
	return raw
}

func entityIDSet(entities []coarseEntity) map[string]struct{} {
	set := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		set[e.ID] = struct{}{}
	}
	return set
}

// missingFrom returns the required ids absent from have, preserving
// required's order.
func missingFrom(required []string, have map[string]struct{}) []string {
	var missing []string
	for _, id := range required {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// idSetError renders a coverage failure as "KIND: <verb> machine ids [...];
// <verb> job ids [...]", naming only the non-empty side.
func idSetError(kind, verb string, machines, jobs []string) string {
	parts := make([]string, 0, 2)
	if len(machines) > 0 {
		parts = append(parts, fmt.Sprintf("%s machine ids %v", verb, machines))
	}
	if len(jobs) > 0 {
		parts = append(parts, fmt.Sprintf("%s job ids %v", verb, jobs))
	}
	return kind + ": " + strings.Join(parts, "; ")
}
