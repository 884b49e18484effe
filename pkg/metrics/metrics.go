// Package metrics holds the Prometheus instrumentation for pipeline runs,
// stage outcomes, and model calls. A nil *Monitor is a no-op so callers can
// run uninstrumented (tests, the one-shot CLI).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/models"
)

// Monitor aggregates the foreman Prometheus metrics.
type Monitor struct {
	// Counter of completed pipeline runs by overall status.
	pipelineRuns *prometheus.CounterVec
	// Histogram of whole-run wall time.
	pipelineRunTimer prometheus.Histogram
	// Counter of stage outcomes by stage id and status.
	stageOutcomes *prometheus.CounterVec
	// Counter of gateway calls by provider and outcome.
	llmCalls *prometheus.CounterVec
	// Histogram of gateway call wall time by provider.
	llmCallTimer *prometheus.HistogramVec
}

// NewMonitor creates the collectors and registers them on the given
// registerer.
func NewMonitor(registry prometheus.Registerer) *Monitor {
	pipelineRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foreman_pipeline_runs_total",
		Help: "Total pipeline runs by overall status.",
	}, []string{"status"})
	pipelineRunTimer := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "foreman_pipeline_duration_seconds",
		Help:    "Duration of whole pipeline runs.",
		Buckets: prometheus.DefBuckets,
	})
	stageOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foreman_stage_outcomes_total",
		Help: "Total stage outcomes by stage id and status.",
	}, []string{"stage", "status"})
	llmCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foreman_llm_calls_total",
		Help: "Total gateway calls by provider and outcome.",
	}, []string{"provider", "outcome"})
	llmCallTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foreman_llm_call_duration_seconds",
		Help:    "Duration of gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	registry.MustRegister(
		pipelineRuns,
		pipelineRunTimer,
		stageOutcomes,
		llmCalls,
		llmCallTimer,
	)

	return &Monitor{
		pipelineRuns:     pipelineRuns,
		pipelineRunTimer: pipelineRunTimer,
		stageOutcomes:    stageOutcomes,
		llmCalls:         llmCalls,
		llmCallTimer:     llmCallTimer,
	}
}

// ObserveRun records one completed pipeline run.
func (m *Monitor) ObserveRun(status models.OverallStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(string(status)).Inc()
	m.pipelineRunTimer.Observe(elapsed.Seconds())
}

// ObserveStage records one stage outcome.
func (m *Monitor) ObserveStage(stageID string, status models.StageStatus) {
	if m == nil {
		return
	}
	m.stageOutcomes.WithLabelValues(stageID, string(status)).Inc()
}

// ObserveLLMCall records one gateway call. The outcome label is "ok" on
// success and the gateway error kind otherwise.
func (m *Monitor) ObserveLLMCall(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(llm.KindOf(err))
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
	m.llmCallTimer.WithLabelValues(provider).Observe(elapsed.Seconds())
}
