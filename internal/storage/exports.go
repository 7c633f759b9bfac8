package storage

import (
	"context"
	"time"
)

const (
	// ExportStatusAppending marks a transaction whose ledger append began but
	// was never confirmed. It is not retried.
	ExportStatusAppending = "appending"
	ExportStatusExported  = "exported"
	ExportStatusError     = "error"
)

// ExportRecord tracks the ledger export of one transaction.
type ExportRecord struct {
	TransactionID string
	Status        string
	Attempts      int
	SheetsRef     string
	UpdatedAt     time.Time
}

// ExportTracker remembers which transactions reached the external ledger.
type ExportTracker interface {
	// ExportStatus returns the records known for ids; unknown ids are absent.
	ExportStatus(ctx context.Context, ids []string) (map[string]ExportRecord, error)
	// MarkExportStarted records that an append is about to be attempted. It
	// leaves Attempts unchanged.
	MarkExportStarted(ctx context.Context, id string) error
	MarkExported(ctx context.Context, id, ref string) error
	MarkExportError(ctx context.Context, id string) error
}
