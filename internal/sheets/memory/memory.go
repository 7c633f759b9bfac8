package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetweek/internal/core"
	ports "budgetweek/internal/sheets"
)

var (
	_ ports.LedgerWriter  = (*Ledger)(nil)
	_ ports.HeaderEnsurer = (*Ledger)(nil)
)

// Ledger is an in-process ledger used in local mode and tests.
type Ledger struct {
	mu      sync.Mutex
	rows    []core.Transaction
	headers map[int]bool
}

func New() *Ledger {
	return &Ledger{headers: make(map[int]bool)}
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, tx)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

func (l *Ledger) EnsureHeader(_ context.Context, year int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.headers[year] = true
	return nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.rows...)
}

// HasHeader reports whether EnsureHeader ran for year.
func (l *Ledger) HasHeader(year int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.headers[year]
}
