package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// ConsoleStorage implements Storage by pretty-printing a scan report to
// console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreReport pretty-prints a scan report and every accepted opportunity
// it carries to console.
func (c *ConsoleStorage) StoreReport(ctx context.Context, report *domain.ScanReport) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("SCAN REPORT %s\n", report.ScanID)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Started:            %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished:           %s\n", report.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Strategies run:     %v\n", report.StrategiesRun)
	fmt.Printf("Markets considered: %d\n", report.MarketsConsidered)
	fmt.Printf("LLM calls used:     %d\n", report.LLMCallsUsed)
	fmt.Printf("Opportunities:      %d\n", len(report.Opportunities))

	for _, w := range report.Warnings {
		fmt.Printf("  ! %s\n", w)
	}

	for _, opp := range report.Opportunities {
		fmt.Println("  ───────────────────────────────────────────────────────────────────")
		fmt.Printf("  [%s] %s\n", opp.Strategy, opp.ID)
		for _, leg := range opp.Legs {
			fmt.Printf("    %-4s %-12s %s @ %s\n", leg.Side, leg.MarketID, leg.TokenID, leg.BuyPrice.String())
		}
		fmt.Printf("    cost=%s  apy=%s (%s)  profit_pct=%s  oracle=%s\n",
			opp.Cost.String(), opp.APY.String(), opp.APYRating, opp.ProfitPct.String(), opp.OracleAlignment)
	}

	if len(report.RejectionsSummary) > 0 {
		fmt.Println("  ───────────────────────────────────────────────────────────────────")
		fmt.Println("  Rejections by layer:")
		for layer, n := range report.RejectionsSummary {
			fmt.Printf("    %-12s %d\n", layer, n)
		}
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
