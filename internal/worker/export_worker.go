package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetweek/internal/amqp"
	"budgetweek/internal/core"
	"budgetweek/internal/sheets"
	"budgetweek/internal/storage"
)

// MaxExportAttempts bounds how often a failing transaction is retried.
const MaxExportAttempts = 5

// markExportedAttempts bounds how often a confirmed append is recorded
// before the transaction is left in the appending state.
const markExportedAttempts = 3

// ExportWorker copies recorded transactions from the blob store to the
// external ledger.
type ExportWorker struct {
	store     storage.Store
	tracker   storage.ExportTracker
	ledger    sheets.LedgerWriter
	batchSize int
}

func NewExportWorker(store storage.Store, tracker storage.ExportTracker, ledger sheets.LedgerWriter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		tracker:   tracker,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleStateChanged processes a single state changed message from AMQP.
// Messages for bill blobs carry no transactions and are skipped.
func (w *ExportWorker) HandleStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error {
	if msg.Key != storage.KeyAppState {
		slog.DebugContext(ctx, "Ignoring state change without transactions", "key", msg.Key, "action", msg.Action)
		return nil
	}

	slog.InfoContext(ctx, "Processing state changed message",
		"action", msg.Action,
		"transaction_id", msg.TransactionID)

	if msg.TransactionID == "" {
		_, err := w.exportPending(ctx, w.batchSize)
		return err
	}

	st, _, err := storage.LoadAppState(ctx, w.store)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	tx, ok := findTransaction(st.Transactions, msg.TransactionID)
	if !ok {
		// Deleted before the message arrived.
		slog.WarnContext(ctx, "Transaction no longer in state, skipping export",
			"transaction_id", msg.TransactionID)
		return nil
	}

	records, err := w.tracker.ExportStatus(ctx, []string{tx.ID})
	if err != nil {
		return fmt.Errorf("export status: %w", err)
	}
	if rec, seen := records[tx.ID]; seen {
		switch rec.Status {
		case storage.ExportStatusExported:
			slog.DebugContext(ctx, "Transaction already exported", "transaction_id", tx.ID, "sheets_ref", rec.SheetsRef)
			return nil
		case storage.ExportStatusAppending:
			slog.WarnContext(ctx, "Transaction append was never confirmed, skipping export", "transaction_id", tx.ID)
			return nil
		}
	}
	return w.exportTransaction(ctx, tx)
}

// ProcessPending exports transactions that haven't reached the ledger yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	_, err := w.exportPending(ctx, w.batchSize)
	return err
}

// StartupCheck prepares the ledger and exports a larger backlog at worker
// startup, recovering from missed messages or downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.pendingTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	if h, ok := w.ledger.(sheets.HeaderEnsurer); ok {
		years := map[int]bool{}
		for _, tx := range pending {
			years[tx.Date.Year()] = true
		}
		for y := range years {
			if err := h.EnsureHeader(ctx, y); err != nil {
				return fmt.Errorf("ensure ledger header %d: %w", y, err)
			}
		}
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	exported, failed := w.exportAll(ctx, pending)
	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.pendingTransactions(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	exported, _ := w.exportAll(ctx, pending)
	return exported, nil
}

func (w *ExportWorker) exportAll(ctx context.Context, txs []core.Transaction) (exported, failed int) {
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return exported, failed
		}
		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "transaction_id", tx.ID, "error", err)
			failed++
			continue
		}
		exported++
	}
	return exported, failed
}

// pendingTransactions returns up to limit transactions, oldest first, that
// were never exported and have retries left. Transactions whose append may
// have reached the ledger are never offered again.
func (w *ExportWorker) pendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	st, info, err := storage.LoadAppState(ctx, w.store)
	if err != nil || !info.Found {
		return nil, err
	}

	ids := make([]string, 0, len(st.Transactions))
	for _, tx := range st.Transactions {
		ids = append(ids, tx.ID)
	}
	records, err := w.tracker.ExportStatus(ctx, ids)
	if err != nil {
		return nil, err
	}

	var out []core.Transaction
	for _, tx := range st.Transactions {
		if rec, ok := records[tx.ID]; ok {
			if rec.Status != storage.ExportStatusError || rec.Attempts >= MaxExportAttempts {
				continue
			}
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// exportTransaction appends tx at most once. The appending mark goes down
// before the ledger call, so a crash or a lost confirmation leaves the
// transaction out of later retries instead of duplicating its row.
func (w *ExportWorker) exportTransaction(ctx context.Context, tx core.Transaction) error {
	if err := w.tracker.MarkExportStarted(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark export started: %w", err)
	}

	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		if markErr := w.tracker.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "transaction_id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	var markErr error
	for i := 0; i < markExportedAttempts; i++ {
		if markErr = w.tracker.MarkExported(ctx, tx.ID, ref); markErr == nil {
			break
		}
	}
	if markErr != nil {
		// Still marked appending, so no pass will append it again.
		slog.ErrorContext(ctx, "Failed to mark as exported", "transaction_id", tx.ID, "sheets_ref", ref, "error", markErr)
	}

	slog.InfoContext(ctx, "Successfully exported transaction",
		"transaction_id", tx.ID,
		"sheets_ref", ref,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func findTransaction(txs []core.Transaction, id string) (core.Transaction, bool) {
	for _, tx := range txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
