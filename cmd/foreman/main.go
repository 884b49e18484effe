// Foreman server turns a free-text factory description and a situation
// into simulated what-if schedules and a shift briefing, served over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopworks/foreman/pkg/api"
	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/metrics"
	"github.com/shopworks/foreman/pkg/pipeline"
	"github.com/shopworks/foreman/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newLogger builds the process logger from LOG_LEVEL (debug|info|warn|error).
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveConfigPath keeps an explicitly requested file mandatory while
// letting the default path fall back to compiled-in defaults when absent.
func resolveConfigPath(path string, explicit bool) string {
	if explicit {
		return path
	}
	if _, err := os.Stat(path); err != nil {
		slog.Info("No configuration file found, using built-in defaults", "path", path)
		return ""
	}
	return path
}

func main() {
	configPath := flag.String("config",
		getEnv("FOREMAN_CONFIG", "config/foreman.yaml"),
		"Path to configuration file")
	flag.Parse()

	// Load .env before anything reads the environment.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file, continuing with existing environment", "error", err)
	}

	logger := newLogger()
	slog.SetDefault(logger)

	slog.Info("Starting foreman", "version", version.Full(), "config", *configPath)

	ctx := context.Background()

	explicit := os.Getenv("FOREMAN_CONFIG") != ""
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, resolveConfigPath(*configPath, explicit))
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Build the model gateway: provider client wrapped in a circuit breaker
	providerCfg, err := cfg.DefaultLLMProvider()
	if err != nil {
		slog.Error("Failed to resolve default LLM provider", "error", err)
		os.Exit(1)
	}
	client, err := llm.NewClient(ctx, providerCfg, logger)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "provider", cfg.DefaultProvider, "error", err)
		os.Exit(1)
	}
	breaker := llm.WithBreaker(client, cfg.DefaultProvider,
		cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout(), logger)
	slog.Info("LLM gateway initialized",
		"provider", cfg.DefaultProvider, "model", breaker.ModelTag())

	// 3. Metrics registry and pipeline
	registry := prometheus.NewRegistry()
	monitor := metrics.NewMonitor(registry)
	pl := pipeline.NewPipeline(breaker, *cfg.Pipeline, logger, monitor)

	// 4. Create HTTP server
	server := api.NewServer(cfg, pl)
	server.SetBreakerProbe(breaker)
	server.SetMetricsGatherer(registry)

	// 5. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Addr()); err != nil {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Foreman started successfully",
		"addr", cfg.Server.Addr(),
		"llm_providers", cfg.Stats().LLMProviders,
		"debug_enabled", cfg.Stats().DebugEnabled)

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
