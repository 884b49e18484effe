package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shopworks/foreman/pkg/models"
)

func TestMonitorObserveRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	monitor := NewMonitor(registry)

	monitor.ObserveRun(models.OverallSuccess, 120*time.Millisecond)
	monitor.ObserveRun(models.OverallPartial, 80*time.Millisecond)
	monitor.ObserveRun(models.OverallPartial, 90*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(monitor.pipelineRuns.WithLabelValues("SUCCESS")))
	assert.Equal(t, 2.0, testutil.ToFloat64(monitor.pipelineRuns.WithLabelValues("PARTIAL")))
	assert.Equal(t, 0.0, testutil.ToFloat64(monitor.pipelineRuns.WithLabelValues("FAILED")))
}

func TestMonitorObserveStage(t *testing.T) {
	registry := prometheus.NewRegistry()
	monitor := NewMonitor(registry)

	monitor.ObserveStage("D1", models.StageFailed)
	monitor.ObserveStage("D1", models.StageSuccess)
	monitor.ObserveStage("O0", models.StageSuccess)

	assert.Equal(t, 1.0, testutil.ToFloat64(monitor.stageOutcomes.WithLabelValues("D1", "FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(monitor.stageOutcomes.WithLabelValues("D1", "SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(monitor.stageOutcomes.WithLabelValues("O0", "SUCCESS")))
}

func TestMonitorObserveLLMCall(t *testing.T) {
	registry := prometheus.NewRegistry()
	monitor := NewMonitor(registry)

	monitor.ObserveLLMCall("openai", nil, 50*time.Millisecond)
	monitor.ObserveLLMCall("openai", errors.New("dial tcp: refused"), 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(monitor.llmCalls.WithLabelValues("openai", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(monitor.llmCalls.WithLabelValues("openai", "LLM_TRANSPORT")))
}

func TestNilMonitorIsNoOp(t *testing.T) {
	var monitor *Monitor

	assert.NotPanics(t, func() {
		monitor.ObserveRun(models.OverallSuccess, time.Second)
		monitor.ObserveStage("O0", models.StageSuccess)
		monitor.ObserveLLMCall("openai", nil, time.Second)
	})
}
