package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-arb/internal/app"
	"github.com/mselser95/polymarket-arb/internal/config"
	"github.com/mselser95/polymarket-arb/internal/storage"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the report",
	Long: `Runs a single scan of the configured market tags: fetches the
catalog, builds the market graph, runs every enabled strategy through
validation, and prints the resulting scan report. Exits after one pass —
use "serve" to run scans on a repeating interval with an ambient HTTP
health/metrics surface.`,
	RunE: runScanOnce,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScanOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	scanner, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}

	store := storage.NewConsoleStorage(logger)
	defer store.Close()

	svc := app.NewService(scanner, store, cfg.HTTPAddr, time.Minute, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := svc.RunOnce(ctx); err != nil {
		return fmt.Errorf("run scan: %w", err)
	}
	return nil
}
