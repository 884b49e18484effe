package eval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopworks/foreman/pkg/models"
	"github.com/shopworks/foreman/pkg/pipeline"
)

// CaseResult pairs one corpus case with its run outcome and any violations.
type CaseResult struct {
	Case          Case
	OverallStatus models.OverallStatus
	FailedStages  []string
	Violations    []string
	Elapsed       time.Duration
}

// Harness drives corpus cases through one pipeline with a bounded worker
// pool. The pipeline is safe for concurrent use, so all workers share it.
type Harness struct {
	pipeline *pipeline.Pipeline
	workers  int
	logger   *slog.Logger
}

// NewHarness builds a harness. A worker count below 1 is treated as 1 and
// logger may be nil. Panics if pl is nil.
func NewHarness(pl *pipeline.Pipeline, workers int, logger *slog.Logger) *Harness {
	if pl == nil {
		panic("eval.NewHarness: pipeline must not be nil")
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{pipeline: pl, workers: workers, logger: logger}
}

// Run executes every case and returns the results in corpus order. Each run
// gets a fresh id so concurrent or repeated runs stay distinguishable in logs.
func (h *Harness) Run(ctx context.Context, cases []Case) []CaseResult {
	logger := h.logger.With("run_id", uuid.New().String())
	logger.InfoContext(ctx, "starting evaluation",
		"cases", len(cases), "workers", h.workers)

	results := make([]CaseResult, len(cases))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < h.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = h.runCase(ctx, cases[i])
			}
		}()
	}

	for i := range cases {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	logger.InfoContext(ctx, "evaluation finished",
		"cases", len(cases), "violations", Violations(results))
	return results
}

func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	start := time.Now()
	res := h.pipeline.Run(ctx, pipeline.Request{
		FactoryDescription: c.FactoryDescription,
		SituationText:      c.SituationText,
	})

	cr := CaseResult{
		Case:       c,
		Violations: CheckResult(res),
		Elapsed:    time.Since(start),
	}
	if res.Debug != nil {
		cr.OverallStatus = res.Debug.OverallStatus
		for _, st := range res.Debug.Stages {
			if st.Status == models.StageFailed {
				cr.FailedStages = append(cr.FailedStages, st.ID)
			}
		}
	}
	return cr
}
