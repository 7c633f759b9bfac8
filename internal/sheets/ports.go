package sheets

import (
	"context"

	"budgetweek/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter appends one recorded transaction to an external ledger.
	LedgerWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// HeaderEnsurer prepares the ledger of a year before the first append.
	HeaderEnsurer interface {
		EnsureHeader(ctx context.Context, year int) error
	}
)
