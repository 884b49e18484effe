package eval

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/models"
)

func TestHarnessRunsCorpusInOrder(t *testing.T) {
	h := NewHarness(offlinePipeline(t), 4, nil)
	cases := Corpus()

	results := h.Run(context.Background(), cases)

	require.Len(t, results, len(cases))
	for i, r := range results {
		assert.Equal(t, cases[i].Name, r.Case.Name, "result %d out of order", i)
		assert.Empty(t, r.Violations, "case %s: %v", r.Case.Name, r.Violations)
		assert.NotZero(t, r.OverallStatus)
	}
	assert.Zero(t, Violations(results))
}

func TestHarnessSingleWorker(t *testing.T) {
	h := NewHarness(offlinePipeline(t), 1, nil)
	cases := Corpus()[:3]

	results := h.Run(context.Background(), cases)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, cases[i].Name, r.Case.Name)
	}
}

func TestHarnessClampsWorkerCount(t *testing.T) {
	h := NewHarness(offlinePipeline(t), 0, nil)
	results := h.Run(context.Background(), Corpus()[:1])
	require.Len(t, results, 1)
}

func TestHarnessOfflineRunsReportFailedStages(t *testing.T) {
	h := NewHarness(offlinePipeline(t), 2, nil)

	results := h.Run(context.Background(), Corpus()[:1])

	require.Len(t, results, 1)
	r := results[0]
	// With no upstream every model stage fails and the deterministic
	// stages carry the run.
	assert.Equal(t, models.OverallPartial, r.OverallStatus)
	assert.Contains(t, r.FailedStages, "O1")
	assert.Contains(t, r.FailedStages, "D1")
	assert.Contains(t, r.FailedStages, "D5")
	assert.Empty(t, r.Violations)
}

func TestNewHarnessPanicsOnNilPipeline(t *testing.T) {
	assert.Panics(t, func() { NewHarness(nil, 1, nil) })
}

func TestWriteReport(t *testing.T) {
	results := []CaseResult{
		{
			Case:          Case{Name: "happy_path"},
			OverallStatus: models.OverallSuccess,
			Elapsed:       12 * time.Millisecond,
		},
		{
			Case:          Case{Name: "broken_case"},
			OverallStatus: models.OverallPartial,
			FailedStages:  []string{"O1", "D5"},
			Violations:    []string{"briefing is empty"},
			Elapsed:       7 * time.Millisecond,
		},
	}

	var buf bytes.Buffer
	WriteReport(&buf, results)
	out := buf.String()

	assert.Contains(t, out, "[ok  ] happy_path")
	assert.Contains(t, out, "[FAIL] broken_case")
	assert.Contains(t, out, "failed_stages=O1,D5")
	assert.Contains(t, out, "violation: briefing is empty")
	assert.Contains(t, out, "2 cases, 1 violations")
	assert.Equal(t, 1, Violations(results))
}
