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
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scans on a repeating interval with a health/metrics HTTP surface",
	Long: `Starts the scanner as a long-running process: exposes /health,
/ready, and /metrics, runs one scan immediately, and repeats on the
configured interval until SIGINT/SIGTERM.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Duration("interval", 5*time.Minute, "interval between scans")
}

func runServe(cmd *cobra.Command, args []string) error {
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

	interval, _ := cmd.Flags().GetDuration("interval")

	scanner, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}

	var store storage.Storage
	if cfg.StorageDSN != "" {
		store, err = storage.NewPostgresStorageFromDSN(cfg.StorageDSN, logger)
		if err != nil {
			return fmt.Errorf("create postgres storage: %w", err)
		}
	} else {
		store = storage.NewConsoleStorage(logger)
	}

	svc := app.NewService(scanner, store, cfg.HTTPAddr, interval, logger)

	return svc.Run(context.Background())
}
