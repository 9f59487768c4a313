// Package storage persists a scan's ScanReport, per spec.md §6.4. The
// console implementation is the default sink; Postgres is offered for
// callers who want the opportunity history queryable.
package storage

import (
	"context"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// Storage is the interface for persisting a scan's results.
type Storage interface {
	// StoreReport persists one scan's ScanReport, including every
	// accepted opportunity it carries.
	StoreReport(ctx context.Context, report *domain.ScanReport) error

	// Close closes the storage connection.
	Close() error
}
