package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// PostgresStorage implements Storage using PostgreSQL. A scan report is
// stored as one row (bookkeeping columns) plus one row per accepted
// opportunity, with the full leg/trail detail kept as JSONB since an
// opportunity's leg count and strategy shape vary (spec.md §3).
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// NewPostgresStorageFromDSN opens a PostgresStorage directly from a
// connection string (storage.dsn), for callers that already hold a DSN
// rather than its individual parts.
func NewPostgresStorageFromDSN(dsn string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("postgres-storage-connected")
	return &PostgresStorage{db: db, logger: logger}, nil
}

// opportunityRow is the JSONB payload stored alongside an opportunity's
// indexed columns.
type opportunityRow struct {
	Legs            []domain.Leg       `json:"legs"`
	ValidationTrail []domain.TrailEntry `json:"validation_trail"`
	Checklist       domain.Checklist   `json:"checklist"`
}

// StoreReport persists the scan's bookkeeping row and one row per
// accepted opportunity, inside a single transaction.
func (p *PostgresStorage) StoreReport(ctx context.Context, report *domain.ScanReport) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scan_reports (
			scan_id, started_at, finished_at, strategies_run,
			markets_considered, llm_calls_used, opportunity_count, warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scan_id) DO NOTHING
	`,
		report.ScanID,
		report.StartedAt,
		report.FinishedAt,
		pqStringArray(report.StrategiesRun),
		report.MarketsConsidered,
		report.LLMCallsUsed,
		len(report.Opportunities),
		pqStringArray(report.Warnings),
	)
	if err != nil {
		return fmt.Errorf("insert scan report: %w", err)
	}

	for _, opp := range report.Opportunities {
		if err := p.storeOpportunity(ctx, tx, report.ScanID, opp); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	p.logger.Debug("scan-report-stored",
		zap.String("scan-id", report.ScanID),
		zap.Int("opportunity-count", len(report.Opportunities)))

	return nil
}

func (p *PostgresStorage) storeOpportunity(ctx context.Context, tx *sql.Tx, scanID string, opp *domain.Opportunity) error {
	payload, err := json.Marshal(opportunityRow{
		Legs:            opp.Legs,
		ValidationTrail: opp.ValidationTrail,
		Checklist:       opp.Checklist,
	})
	if err != nil {
		return fmt.Errorf("marshal opportunity payload: %w", err)
	}

	query := `
		INSERT INTO scan_opportunities (
			id, scan_id, strategy, canonical_key, cost, effective_profit,
			profit_pct, apy, apy_rating, oracle_alignment, discovered_at,
			plan_snapshot_at, status, payload
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = tx.ExecContext(ctx, query,
		opp.ID,
		scanID,
		string(opp.Strategy),
		opp.CanonicalKey(),
		opp.Cost.String(),
		opp.EffectiveProfit.String(),
		opp.ProfitPct.String(),
		opp.APY.String(),
		string(opp.APYRating),
		string(opp.OracleAlignment),
		opp.DiscoveredAt,
		opp.PlanSnapshotAt,
		string(opp.Status),
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

// pqStringArray renders a Go string slice as a Postgres text[] literal.
// lib/pq doesn't implement driver.Valuer for []string, so array literals
// are built by hand (mirrors the pattern in lib/pq's own array example).
func pqStringArray(ss []string) string {
	out := "{"
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += `"` + escapePQArrayElement(s) + `"`
	}
	out += "}"
	return out
}

func escapePQArrayElement(s string) string {
	escaped := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, c)
	}
	return string(escaped)
}
