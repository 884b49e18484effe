// Package e2e provides end-to-end test infrastructure for the foreman
// pipeline: a full server booted on a loopback listener, driven through its
// public HTTP surface against a scripted model gateway.
package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/foreman/pkg/api"
	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/metrics"
	"github.com/shopworks/foreman/pkg/pipeline"
)

// TestApp boots a complete foreman instance for e2e testing.
type TestApp struct {
	// Core
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Server   *api.Server

	// Mocks / test wiring
	LLMClient *ScriptedLLMClient

	// Real infrastructure
	Registry *prometheus.Registry

	// Runtime
	BaseURL string // e.g. "http://127.0.0.1:54321"

	t *testing.T
}

// testAppConfig holds options accumulated before creating the TestApp.
type testAppConfig struct {
	cfg                *config.Config
	llmClient          *ScriptedLLMClient
	breakerMaxFailures int // 0 = no breaker between pipeline and script
}

// TestAppOption configures the test app.
type TestAppOption func(*testAppConfig)

// WithConfig sets a custom config.
func WithConfig(cfg *config.Config) TestAppOption {
	return func(c *testAppConfig) { c.cfg = cfg }
}

// WithLLMClient sets a pre-scripted gateway client.
func WithLLMClient(client *ScriptedLLMClient) TestAppOption {
	return func(c *testAppConfig) { c.llmClient = client }
}

// WithBreaker wraps the scripted client in a real circuit breaker that opens
// after maxFailures consecutive transport failures. The breaker is also wired
// into the health endpoint as its probe.
func WithBreaker(maxFailures int) TestAppOption {
	return func(c *testAppConfig) { c.breakerMaxFailures = maxFailures }
}

// NewTestApp creates and starts a full foreman test instance.
// Shutdown is registered via t.Cleanup automatically.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	// Apply options.
	tc := &testAppConfig{}
	for _, opt := range opts {
		opt(tc)
	}

	// Default config if not provided: the compiled-in defaults, exactly what
	// a deployment without a config file runs.
	if tc.cfg == nil {
		cfg, err := config.Initialize(context.Background(), "")
		require.NoError(t, err)
		tc.cfg = cfg
	}

	// Default LLM client if not provided. A zero-entry script fails every
	// gateway call, which exercises the fallback paths.
	if tc.llmClient == nil {
		tc.llmClient = NewScriptedLLMClient()
	}

	// Pipeline logging stays out of the test output; request logging goes
	// through slog.Default like everywhere else.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// 1. Gateway client, optionally behind a real breaker.
	var client llm.Client = tc.llmClient
	var breaker *llm.BreakerClient
	if tc.breakerMaxFailures > 0 {
		breaker = llm.WithBreaker(client, "e2e", tc.breakerMaxFailures, time.Minute, logger)
		client = breaker
	}

	// 2. Metrics registry and pipeline.
	registry := prometheus.NewRegistry()
	monitor := metrics.NewMonitor(registry)
	pl := pipeline.NewPipeline(client, *tc.cfg.Pipeline, logger, monitor)

	// 3. HTTP server on a random loopback port.
	server := api.NewServer(tc.cfg, pl)
	server.SetMetricsGatherer(registry)
	if breaker != nil {
		server.SetBreakerProbe(breaker)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = server.StartWithListener(ln)
	}()

	app := &TestApp{
		Config:    tc.cfg,
		Pipeline:  pl,
		Server:    server,
		LLMClient: tc.llmClient,
		Registry:  registry,
		BaseURL:   fmt.Sprintf("http://%s", ln.Addr().String()),
		t:         t,
	}

	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})

	return app
}
