// foreman-eval runs the fixed adversarial corpus through the pipeline and
// verifies the structural guarantees on every result. It needs no API key:
// with an unreachable provider the pipeline degrades onto its deterministic
// fallbacks, which must satisfy the same guarantees.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/eval"
	"github.com/shopworks/foreman/pkg/llm"
	"github.com/shopworks/foreman/pkg/pipeline"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	os.Exit(run())
}

func run() int {
	workers := flag.Int("workers", 4, "Concurrent pipeline runs")
	configPath := flag.String("config",
		getEnv("FOREMAN_CONFIG", "config/foreman.yaml"),
		"Path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	explicit := os.Getenv("FOREMAN_CONFIG") != ""
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	path := *configPath
	if !explicit {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	cfg, err := config.Initialize(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foreman-eval: %v\n", err)
		return 1
	}

	providerCfg, err := cfg.DefaultLLMProvider()
	if err != nil {
		fmt.Fprintf(os.Stderr, "foreman-eval: %v\n", err)
		return 1
	}
	client, err := llm.NewClient(ctx, providerCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foreman-eval: %v\n", err)
		return 1
	}

	pl := pipeline.NewPipeline(client, *cfg.Pipeline, logger, nil)
	harness := eval.NewHarness(pl, *workers, logger)

	results := harness.Run(ctx, eval.Corpus())
	eval.WriteReport(os.Stdout, results)

	if eval.Violations(results) > 0 {
		return 1
	}
	return 0
}
