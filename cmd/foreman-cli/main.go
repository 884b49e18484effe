// foreman-cli runs one pipeline pass from the command line: the factory
// description comes from a file (or the built-in demo factory), the situation
// text is the positional argument, and the briefing lands on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopworks/foreman/pkg/config"
	"github.com/shopworks/foreman/pkg/factory"
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
	factoryFile := flag.String("factory-file", "",
		"Path to a factory description file (default: the built-in demo factory)")
	configPath := flag.String("config",
		getEnv("FOREMAN_CONFIG", "config/foreman.yaml"),
		"Path to configuration file")
	debug := flag.Bool("debug", false,
		"Dump the debug payload to stderr as JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, `usage: foreman-cli [flags] "situation text"`)
		flag.PrintDefaults()
		return 1
	}
	situation := flag.Arg(0)

	_ = godotenv.Load()

	// stdout is reserved for the briefing; keep logging quiet and on stderr.
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
		fmt.Fprintf(os.Stderr, "foreman-cli: %v\n", err)
		return 1
	}

	description := factory.DefaultFactoryDescription()
	if *factoryFile != "" {
		data, err := os.ReadFile(*factoryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "foreman-cli: read factory file: %v\n", err)
			return 1
		}
		description = strings.TrimSpace(string(data))
	}

	providerCfg, err := cfg.DefaultLLMProvider()
	if err != nil {
		fmt.Fprintf(os.Stderr, "foreman-cli: %v\n", err)
		return 1
	}
	if os.Getenv(providerCfg.APIKeyEnv) == "" {
		fmt.Fprintf(os.Stderr, "foreman-cli: %s is not set; export it or configure another provider\n",
			providerCfg.APIKeyEnv)
		return 1
	}

	client, err := llm.NewClient(ctx, providerCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "foreman-cli: %v\n", err)
		return 1
	}

	pl := pipeline.NewPipeline(client, *cfg.Pipeline, logger, nil)
	res := pl.Run(ctx, pipeline.Request{
		FactoryDescription: description,
		SituationText:      situation,
	})

	// Degraded runs still produce a briefing; the exit code stays 0 so the
	// command composes in scripts. Config problems are the only failures.
	if *debug {
		if payload, err := json.MarshalIndent(res.Debug, "", "  "); err == nil {
			fmt.Fprintln(os.Stderr, string(payload))
		}
	}

	fmt.Println(res.Briefing)
	return 0
}
