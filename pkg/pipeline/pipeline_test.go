package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/factory"
	"github.com/shopworks/foreman/pkg/models"
)

var stageIDOrder = []string{"O0", "O1", "O2", "O3", "O4", "D1", "D2", "D3", "D4", "D5"}

func TestNewPipelinePanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() {
		NewPipeline(nil, testPipelineConfig(), testLogger(), nil)
	})
}

func TestRunHappyPath(t *testing.T) {
	client := demoScriptedClient()
	p := NewPipeline(client, testPipelineConfig(), testLogger(), nil)

	res := p.Run(context.Background(), Request{
		FactoryDescription: factory.DefaultFactoryDescription(),
		SituationText:      "business as usual, anything to worry about?",
	})

	assert.Equal(t, factory.DefaultFactory(), res.Factory)
	assert.False(t, res.Meta.UsedDefaultFactory)
	assert.Empty(t, res.Meta.OnboardingErrors)
	assert.Empty(t, res.Meta.InferredAssumptions)

	require.Len(t, res.Specs, 1)
	assert.Equal(t, models.BaselineSpec(), res.Specs[0])
	require.Len(t, res.Metrics, 1)
	assert.Equal(t, 9, res.Metrics[0].MakespanHour)
	assert.Equal(t, "M2", res.Metrics[0].BottleneckMachineID)
	assert.Equal(t, "# Briefing\n\nAll jobs complete on time; M2 is the bottleneck.", res.Briefing)

	require.NotNil(t, res.Debug)
	assert.Equal(t, models.OverallSuccess, res.Debug.OverallStatus)
	require.Len(t, res.Debug.Stages, totalStageCount)
	for i, rec := range res.Debug.Stages {
		assert.Equal(t, stageIDOrder[i], rec.ID)
		assert.Equal(t, models.StageSuccess, rec.Status)
	}

	// Only the model-calling stages carry an agent model.
	llmStages := map[string]bool{"O1": true, "O2": true, "D1": true, "D2": true, "D5": true}
	for _, rec := range res.Debug.Stages {
		if llmStages[rec.ID] {
			require.NotNil(t, rec.AgentModel, "stage %s", rec.ID)
			assert.Equal(t, "scripted/model", *rec.AgentModel)
		} else {
			assert.Nil(t, rec.AgentModel, "stage %s", rec.ID)
		}
	}

	assert.Equal(t, []string{
		schemaCoarseStructure,
		schemaFineExtraction,
		schemaIntentClassification,
		schemaFuturesExpansion,
		schemaBriefing,
	}, client.callNames())

	assert.Equal(t, len(factory.DefaultFactoryDescription()), res.Debug.Inputs.FactoryDescription.Chars)
	assert.Equal(t, "business as usual, anything to worry about?", res.Debug.Inputs.SituationText.Preview)
}

func TestRunFullyOffline(t *testing.T) {
	// Nothing is scripted, so every model call fails with a transport error.
	p := NewPipeline(newScriptedClient(), testPipelineConfig(), testLogger(), nil)

	res := p.Run(context.Background(), Request{
		FactoryDescription: "Machines M1 and M2 run jobs J1 and J2.",
		SituationText:      "rush order incoming",
	})

	assert.Equal(t, factory.DefaultFactory(), res.Factory)
	assert.True(t, res.Meta.UsedDefaultFactory)
	require.NotEmpty(t, res.Meta.OnboardingErrors)
	assert.Contains(t, res.Meta.OnboardingErrors[0], "LLM_TRANSPORT")

	require.Len(t, res.Debug.Stages, totalStageCount)
	wantStatus := map[string]models.StageStatus{
		"O0": models.StageSuccess,
		"O1": models.StageFailed,
		"O2": models.StageSkipped,
		"O3": models.StageSkipped,
		"O4": models.StageSkipped,
		"D1": models.StageFailed,
		"D2": models.StageFailed,
		"D3": models.StageSuccess,
		"D4": models.StageSuccess,
		"D5": models.StageFailed,
	}
	for _, rec := range res.Debug.Stages {
		assert.Equal(t, wantStatus[rec.ID], rec.Status, "stage %s", rec.ID)
	}

	// The decision phase degrades to a simulated baseline on the demo
	// factory plus the deterministic briefing.
	assert.Equal(t, models.OverallPartial, res.Debug.OverallStatus)
	require.Len(t, res.Specs, 1)
	assert.Equal(t, models.BaselineSpec(), res.Specs[0])
	require.Len(t, res.Metrics, 1)
	assert.Equal(t, 9, res.Metrics[0].MakespanHour)
	assert.Equal(t, "M2", res.Metrics[0].BottleneckMachineID)
	assert.Equal(t, 6.0/9.0, res.Metrics[0].BottleneckUtilization)
	assert.Contains(t, res.Briefing, "# Schedule Briefing")
	assert.Contains(t, res.Briefing, "built-in demo factory")
}

func TestRunCancelledMidCall(t *testing.T) {
	client := demoScriptedClient()
	client.delay = 200 * time.Millisecond
	p := NewPipeline(client, testPipelineConfig(), testLogger(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := p.Run(ctx, Request{FactoryDescription: factory.DefaultFactoryDescription()})

	require.Len(t, res.Debug.Stages, totalStageCount)
	assert.Equal(t, models.StageSuccess, res.Debug.Stages[0].Status)
	assert.Equal(t, models.StageFailed, res.Debug.Stages[1].Status)
	require.NotEmpty(t, res.Debug.Stages[1].Errors)
	assert.Contains(t, res.Debug.Stages[1].Errors[0], "CANCELLED")
	for _, rec := range res.Debug.Stages[2:] {
		assert.Equal(t, models.StageSkipped, rec.Status, "stage %s", rec.ID)
	}

	assert.Equal(t, models.OverallFailed, res.Debug.OverallStatus)
	assert.True(t, res.Meta.UsedDefaultFactory)
	assert.Equal(t, factory.DefaultFactory(), res.Factory)
	assert.NotEmpty(t, res.Briefing, "a cancelled run still carries the template briefing")
	assert.Empty(t, res.Specs)
	assert.Empty(t, res.Metrics)
}

func TestRunContainsStagePanic(t *testing.T) {
	client := demoScriptedClient().panicOn(schemaIntentClassification)
	p := NewPipeline(client, testPipelineConfig(), testLogger(), nil)

	res := p.Run(context.Background(), Request{
		FactoryDescription: factory.DefaultFactoryDescription(),
		SituationText:      "anything",
	})

	require.Len(t, res.Debug.Stages, totalStageCount)
	for _, rec := range res.Debug.Stages[:5] {
		assert.Equal(t, models.StageSuccess, rec.Status, "stage %s", rec.ID)
	}
	d1 := res.Debug.Stages[5]
	assert.Equal(t, "D1", d1.ID)
	assert.Equal(t, models.StageFailed, d1.Status)
	require.NotEmpty(t, d1.Errors)
	assert.Contains(t, d1.Errors[0], "INTERNAL")
	for _, rec := range res.Debug.Stages[6:] {
		assert.Equal(t, models.StageSkipped, rec.Status, "stage %s", rec.ID)
	}

	// The panic happened in the decision phase, so the onboarded factory
	// stands and no fallback is recorded.
	assert.Equal(t, models.OverallFailed, res.Debug.OverallStatus)
	assert.False(t, res.Meta.UsedDefaultFactory)
	assert.Equal(t, factory.DefaultFactory(), res.Factory)
	assert.NotEmpty(t, res.Briefing)
	assert.NotNil(t, res.Specs)
	assert.NotNil(t, res.Metrics)
}

func TestRunLateFailureKeepsSpecsAndMetricsAligned(t *testing.T) {
	client := demoScriptedClient().panicOn(schemaBriefing)
	p := NewPipeline(client, testPipelineConfig(), testLogger(), nil)

	res := p.Run(context.Background(), Request{
		FactoryDescription: factory.DefaultFactoryDescription(),
	})

	assert.Equal(t, models.OverallFailed, res.Debug.OverallStatus)
	assert.Equal(t, len(res.Specs), len(res.Metrics))
	require.Len(t, res.Metrics, 1)
	assert.Contains(t, res.Briefing, "# Schedule Briefing")
}

func TestRunIsDeterministic(t *testing.T) {
	req := Request{
		FactoryDescription: factory.DefaultFactoryDescription(),
		SituationText:      "rush order for J2",
	}

	first := NewPipeline(demoScriptedClient(), testPipelineConfig(), testLogger(), nil).
		Run(context.Background(), req)
	second := NewPipeline(demoScriptedClient(), testPipelineConfig(), testLogger(), nil).
		Run(context.Background(), req)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}
