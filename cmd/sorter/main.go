package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/quorum-sorter/internal/batch"
	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/consensus"
	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/Brownie44l1/quorum-sorter/internal/imagesource"
	"github.com/Brownie44l1/quorum-sorter/internal/model"
	"github.com/Brownie44l1/quorum-sorter/internal/predictor"
	"github.com/Brownie44l1/quorum-sorter/internal/report"
	"github.com/Brownie44l1/quorum-sorter/internal/router"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sorter terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	_ = godotenv.Load()

	environment, err := config.LoadEnvironment()
	if err != nil {
		return exitConfig, err
	}

	flags := flag.NewFlagSet("sorter", flag.ContinueOnError)
	configPath := flags.String("config", environment.ConfigPath, "path to the run configuration (JSON or YAML)")
	sourceDir := flags.String("source", "", "folder holding the images to sort (overrides source_folder)")
	provision := flags.Bool("provision", false, "create the found and empty folders before sorting")
	dryRun := flags.Bool("dry-run", false, "report destinations without moving files")
	if err := flags.Parse(args); err != nil {
		return exitConfig, errs.Configuration("flags", err)
	}

	runID := uuid.NewString()
	logger := logs.GetLoggerFromString(environment.LogLevel).With("run_id", runID)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return exitConfig, err
	}
	cfg = cfg.WithOverrides(config.Overrides{
		SourceDir: *sourceDir,
		ModelsDir: environment.ModelsDir,
	})
	logger.Info("Configuration loaded", "path", *configPath, "models", cfg.ModelIDs(),
		"required_agreement", cfg.Consensus.RequiredAgreement.String())

	selection, err := engine.Select(cfg.Engine, engine.NewProber(os.DirFS(environment.SysfsRoot), logger))
	if err != nil {
		return exitConfig, err
	}
	logger.Info("Engine selected", "engine", selection.Engine.String(), "accelerator", selection.Describe())

	registry := model.NewRegistry(logger, cfg.ModelsDir, environment.OnnxRuntimeLibrary)
	defer registry.Close()

	pool, err := predictor.Build(registry, selection.Engine, cfg.Predictors)
	if err != nil {
		return exitConfig, err
	}
	defer pool.Close()

	evaluator, err := consensus.NewEvaluator(logger, pool, cfg.Consensus,
		consensus.WithParallelPredictors(cfg.ParallelPredictors))
	if err != nil {
		return exitConfig, err
	}

	if *provision {
		if err := router.Provision(cfg.FoundDir, cfg.EmptyDir); err != nil {
			return exitRuntime, err
		}
	}

	images, err := imagesource.List(logger, cfg.SourceDir)
	if err != nil {
		return exitRuntime, err
	}

	console := report.NewConsole(os.Stdout, color.SupportColor())
	console.PrintBanner(report.Banner{
		RunID:      runID,
		Selection:  selection,
		Predictors: cfg.Predictors,
		Required:   cfg.Consensus.RequiredAgreement,
		SourceDir:  cfg.SourceDir,
		FoundDir:   cfg.FoundDir,
		EmptyDir:   cfg.EmptyDir,
		Images:     len(images),
		DryRun:     *dryRun,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := batch.NewDriver(logger, evaluator,
		router.New(cfg.FoundDir, cfg.EmptyDir, cfg.SourceDir),
		imagesource.Decode,
		batch.WithErrorPolicy(cfg.OnImageError),
		batch.WithObserver(console),
		batch.WithDryRun(*dryRun),
	)
	summary, err := driver.Run(ctx, images)
	console.PrintSummary(summary)
	if errors.Is(err, context.Canceled) {
		logger.Warn("Batch interrupted", "processed", summary.Total)
	}
	return batchExit(summary, err)
}

// batchExit fails the process when the batch stopped or when any image was
// skipped, so a run that sorted nothing never reports success.
func batchExit(summary batch.Summary, err error) (int, error) {
	if err != nil {
		return exitRuntime, err
	}
	if n := len(summary.Failed); n > 0 {
		return exitRuntime, fmt.Errorf("%w: %d of %d", errs.ErrImagesFailed, n, summary.Total)
	}
	return exitOK, nil
}
