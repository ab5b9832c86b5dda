// Command rbc-combine fuses TREC runs with Rank-Biased Centroids and writes
// the combined run to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/rbcfuse/internal/app"
	"github.com/okian/rbcfuse/internal/config"
	"github.com/okian/rbcfuse/internal/version"
	"github.com/okian/rbcfuse/pkg/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
)

const usageText = `Usage: rbc-combine [option] run1 run2 [run3 ...]

Options:
  -p num       User persistence in the range (0.0,1.0]
  -d depth     Rank depth to output
  -r runid     Set run identifier
  -w n         Parallel workers for parsing and ranking
  -config file YAML configuration file (default $RBC_CONFIG)
  -h           Display this message
  -v           Display version and exit

`

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rbc-combine", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		phi        = fs.Float64("p", 0, "persistence")
		depth      = fs.Int("d", 0, "rank depth to output")
		runID      = fs.String("r", "", "run identifier")
		workers    = fs.Int("w", 0, "parallel workers")
		configPath = fs.String("config", "", "YAML configuration file")
		help       = fs.Bool("h", false, "show help")
		showVer    = fs.Bool("v", false, "show version")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(stderr)
			return exitOK
		}
		fmt.Fprintf(stderr, "rbc-combine: %v\n", err)
		usage(stderr)
		return exitFailure
	}
	if *help {
		usage(stderr)
		return exitOK
	}
	if *showVer {
		fmt.Fprintf(stdout, "rbc-combine %s\n", version.Version)
		return exitOK
	}

	// Load configuration (defaults -> optional file -> env), then flags.
	cfg, err := config.Load(ctx, config.WithFile(*configPath))
	if err != nil {
		fmt.Fprintf(stderr, "rbc-combine: %v\n", err)
		return exitFailure
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Persistence = *phi
		case "d":
			cfg.Depth = *depth
		case "r":
			cfg.RunID = *runID
		case "w":
			cfg.Workers = *workers
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "rbc-combine: %v\n", err)
		return exitFailure
	}

	paths := fs.Args()
	if len(paths) < app.MinRuns || len(paths) > cfg.MaxRuns {
		usage(stderr)
		return exitFailure
	}

	// Logs go to stderr; stdout carries the fused run.
	if err := logger.Init(logger.WithOutput(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintf(stderr, "rbc-combine: failed to initialize logging: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Named("rbc-combine")

	svc := app.New(
		app.WithLogger(log),
		app.WithPersistence(cfg.Persistence),
		app.WithDepth(cfg.Depth),
		app.WithRunID(cfg.RunID),
		app.WithWorkers(cfg.Workers),
		app.WithMaxRuns(cfg.MaxRuns),
		app.WithMetricsFile(cfg.MetricsFile),
	)
	if _, err := svc.Run(ctx, paths, stdout); err != nil {
		log.Error(ctx, "fusion failed", logger.Error(err))
		return exitFailure
	}
	return exitOK
}

func usage(w io.Writer) {
	_, _ = io.WriteString(w, usageText)
}
