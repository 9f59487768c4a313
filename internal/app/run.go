package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/storage"
	"github.com/mselser95/polymarket-arb/pkg/healthprobe"
	"github.com/mselser95/polymarket-arb/pkg/httpserver"
)

// Service wraps a Scanner with the ambient ops surface (health/metrics
// HTTP server) and a storage sink, and runs scans until canceled or
// signaled, grounded on the teacher's internal/app.Run's
// signal.Notify(SIGINT, SIGTERM) shutdown pattern.
type Service struct {
	scanner *Scanner
	store   storage.Storage
	http    *httpserver.Server
	health  *healthprobe.HealthChecker
	logger  *zap.Logger

	scanInterval time.Duration
}

// NewService wires a Scanner, a Storage sink, and the ambient HTTP server
// together into one runnable Service.
func NewService(scanner *Scanner, store storage.Storage, httpAddr string, scanInterval time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	health := healthprobe.New()

	port := httpAddr
	for i := len(port) - 1; i >= 0; i-- {
		if port[i] == ':' {
			port = port[i+1:]
			break
		}
	}

	srv := httpserver.New(&httpserver.Config{
		Port:          port,
		Logger:        logger,
		HealthChecker: health,
	})

	return &Service{
		scanner:      scanner,
		store:        store,
		http:         srv,
		health:       health,
		logger:       logger,
		scanInterval: scanInterval,
	}
}

// RunOnce performs exactly one scan and persists its report, without
// starting the ambient HTTP surface. Used by the CLI's one-shot `scan`
// invocation.
func (s *Service) RunOnce(ctx context.Context) error {
	report, err := s.scanner.RunScan(ctx)
	if err != nil {
		return err
	}
	return s.store.StoreReport(ctx, report)
}

// Run starts the ambient HTTP server and then loops RunOnce on
// scanInterval until the context is canceled or SIGINT/SIGTERM arrives.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- s.http.Start()
	}()

	s.health.SetReady(true)
	s.logger.Info("scanner-service-started", zap.Duration("scan_interval", s.scanInterval))

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	if err := s.runAndLog(ctx); err != nil {
		s.logger.Error("initial-scan-failed", zap.Error(err))
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-httpErrCh:
			if err != nil {
				s.logger.Error("http-server-failed", zap.Error(err))
			}
			break loop
		case <-ticker.C:
			if err := s.runAndLog(ctx); err != nil {
				s.logger.Error("scan-failed", zap.Error(err))
			}
		}
	}

	return s.shutdown()
}

func (s *Service) runAndLog(ctx context.Context) error {
	report, err := s.scanner.RunScan(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("scan-complete",
		zap.String("scan_id", report.ScanID),
		zap.Int("opportunities", len(report.Opportunities)),
		zap.Int("llm_calls_used", report.LLMCallsUsed),
	)
	return s.store.StoreReport(ctx, report)
}

func (s *Service) shutdown() error {
	s.logger.Info("scanner-service-shutting-down")
	s.health.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("http-shutdown-error", zap.Error(err))
	}
	return s.store.Close()
}
