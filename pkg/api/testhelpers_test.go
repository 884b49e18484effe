package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/pipeline"
)

// offlineClient fails every call with a transport error, which drives the
// pipeline onto its deterministic fallbacks: demo factory, baseline
// scenario, template briefing.
type offlineClient struct{}

func (offlineClient) GenerateJSON(_ context.Context, _ *llm.GenerateInput) (json.RawMessage, error) {
	return nil, &llm.Error{Kind: llm.KindTransport, Provider: "test", Message: "no upstream in tests"}
}

func (offlineClient) ModelTag() string { return "test/offline" }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Initialize(context.Background(), "")
	require.NoError(t, err)
	return cfg
}

func testServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pl := pipeline.NewPipeline(offlineClient{}, *cfg.Pipeline, logger, nil)
	return NewServer(cfg, pl)
}
