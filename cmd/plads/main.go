// Command plads runs the streaming graph anomaly detection coordinator: a
// single entry point, no subcommands, looping S0 Bootstrap then S1..S7
// forever until stopped (spec.md §6 CLI).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/rpaudel42/plads/internal/config"
	"github.com/rpaudel42/plads/internal/logging"
	"github.com/rpaudel42/plads/internal/matcher"
	"github.com/rpaudel42/plads/internal/metrics"
	"github.com/rpaudel42/plads/internal/miner"
	"github.com/rpaudel42/plads/internal/store"
	"github.com/rpaudel42/plads/internal/window"
	"github.com/rpaudel42/plads/internal/workerpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "plads:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "plads.cfg", "path to the plads.cfg configuration file")
	debug := flag.Bool("debug", false, "enable verbose console logging")
	maxConcurrentWorkers := flag.Int("max-workers", 8, "maximum concurrent miner subprocesses")
	maxConcurrentMatches := flag.Int("max-matches", 8, "maximum concurrent matcher subprocesses")
	flag.Parse()

	log, err := logging.New(*debug)
	if err != nil {
		return fmt.Errorf("plads: building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration error", zap.Error(err))
		return err
	}

	if err := ensureDirs(cfg); err != nil {
		log.Error("failed to prepare working directories", zap.Error(err))
		return err
	}

	scratchDir := filepath.Join(cfg.OutputFilesDir, "scratch")
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return fmt.Errorf("plads: preparing scratch dir: %w", err)
	}

	seriesPath := filepath.Join(cfg.OutputFilesDir, "series.db")
	series, err := metrics.OpenStore(seriesPath)
	if err != nil {
		log.Error("failed to open metric series store", zap.Error(err))
		return err
	}
	defer series.Close()

	windowStatePath := filepath.Join(cfg.OutputFilesDir, "window.bolt")
	winStore, err := store.Open(windowStatePath)
	if err != nil {
		log.Error("failed to open window state store", zap.Error(err))
		return err
	}
	defer winStore.Close()

	calc := metrics.NewCalculator(cfg.MetricScripts, scratchDir)
	drv := miner.NewDriver(cfg.GbadExecutable)
	match := matcher.New(cfg.GmExecutable, scratchDir, *maxConcurrentMatches)
	pool := workerpool.New(*maxConcurrentWorkers)

	ctrl := window.New(cfg, log, series, calc, drv, match, pool, winStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("plads starting", zap.String("config", *configPath), zap.Int("numPartitions", cfg.NumPartitions))

	if err := ctrl.Bootstrap(ctx); err != nil {
		log.Error("bootstrap failed", zap.Error(err))
		return err
	}

	if err := ctrl.Run(ctx); err != nil {
		log.Error("window controller failed", zap.Error(err))
		return err
	}

	log.Info("plads stopped")
	return nil
}

// ensureDirs creates every configured holding directory that doesn't yet
// exist — the coordinator owns its working directories; it never assumes
// an operator pre-created them (spec.md §6).
func ensureDirs(cfg *config.Config) error {
	dirs := []string{
		cfg.GraphInputFilesDir,
		cfg.FilesBeingProcessedDir,
		cfg.ProcessedInputFilesDir,
		cfg.InitialFilesForAnomDetectionDir,
		cfg.BestNormativePatternDir,
		cfg.AnomalousSubstructureFilesDir,
		cfg.NormSubstructureFilesDir,
		cfg.OutputFilesDir,
		cfg.AnomalousOutputFilesDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("plads: creating %q: %w", dir, err)
		}
	}
	return nil
}
