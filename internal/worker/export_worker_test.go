package worker

import (
	"context"
	"errors"
	"testing"

	"budgetweek/internal/amqp"
	"budgetweek/internal/core"
	"budgetweek/internal/sheets/memory"
	"budgetweek/internal/storage"
)

type failingLedger struct{ calls int }

func (f *failingLedger) Append(context.Context, core.Transaction) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

func seedState(t *testing.T, store *storage.MemoryStore, n int) []core.Transaction {
	t.Helper()
	var txs []core.Transaction
	for i := 0; i < n; i++ {
		tx, err := core.NewExpense(core.Money{Cents: int64(100 * (i + 1))}, "Food", "", core.NewDate(2025, 10, 6))
		if err != nil {
			t.Fatalf("NewExpense: %v", err)
		}
		txs = append(txs, tx)
	}
	st := core.AppState{Transactions: txs}
	if err := storage.SaveAppState(context.Background(), store, st); err != nil {
		t.Fatalf("SaveAppState: %v", err)
	}
	return txs
}

func TestExportWorker_HandleStateChanged(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	txs := seedState(t, store, 2)
	ledger := memory.New()
	w := NewExportWorker(store, store, ledger, 10)

	tests := []struct {
		name     string
		msg      *amqp.StateChangedMessage
		wantRows int
	}{
		{"exports named transaction", amqp.NewStateChangedMessage(storage.KeyAppState, "addExpense", txs[0].ID), 1},
		{"already exported is skipped", amqp.NewStateChangedMessage(storage.KeyAppState, "addExpense", txs[0].ID), 1},
		{"bill blob is ignored", amqp.NewStateChangedMessage(storage.KeyMonthlyPayables(2025, 10), "addBill", ""), 1},
		{"deleted transaction is skipped", amqp.NewStateChangedMessage(storage.KeyAppState, "addExpense", "gone"), 1},
		{"no transaction id drains backlog", amqp.NewStateChangedMessage(storage.KeyAppState, "modifyBalance", ""), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.HandleStateChanged(ctx, tt.msg); err != nil {
				t.Fatalf("HandleStateChanged() error = %v", err)
			}
			if got := len(ledger.Rows()); got != tt.wantRows {
				t.Errorf("ledger rows = %d, want %d", got, tt.wantRows)
			}
		})
	}

	recs, _ := store.ExportStatus(ctx, []string{txs[0].ID, txs[1].ID})
	if recs[txs[0].ID].SheetsRef != "mem:1" || recs[txs[1].ID].Status != storage.ExportStatusExported {
		t.Errorf("records = %+v", recs)
	}
}

func TestExportWorker_FailuresAreRetriedUpToLimit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	txs := seedState(t, store, 1)
	ledger := &failingLedger{}
	w := NewExportWorker(store, store, ledger, 10)

	err := w.HandleStateChanged(ctx, amqp.NewStateChangedMessage(storage.KeyAppState, "addExpense", txs[0].ID))
	if err == nil {
		t.Fatal("expected append error")
	}

	for i := 0; i < MaxExportAttempts+2; i++ {
		if err := w.ProcessPending(ctx); err != nil {
			t.Fatalf("ProcessPending() error = %v", err)
		}
	}
	if ledger.calls != MaxExportAttempts {
		t.Errorf("append calls = %d, want %d", ledger.calls, MaxExportAttempts)
	}
	recs, _ := store.ExportStatus(ctx, []string{txs[0].ID})
	if rec := recs[txs[0].ID]; rec.Status != storage.ExportStatusError || rec.Attempts != MaxExportAttempts {
		t.Errorf("record = %+v", rec)
	}
}

func TestExportWorker_ProcessPendingRespectsBatch(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedState(t, store, 5)
	ledger := memory.New()
	w := NewExportWorker(store, store, ledger, 2)

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if got := len(ledger.Rows()); got != 2 {
		t.Errorf("rows after one pass = %d, want 2", got)
	}
}

func TestExportWorker_StartupCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		store := storage.NewMemoryStore()
		ledger := memory.New()
		if err := NewExportWorker(store, store, ledger, 2).StartupCheck(ctx); err != nil {
			t.Fatalf("StartupCheck() error = %v", err)
		}
		if ledger.HasHeader(2025) {
			t.Error("header written with nothing to export")
		}
	})

	t.Run("exports larger backlog", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seedState(t, store, 7)
		ledger := memory.New()
		if err := NewExportWorker(store, store, ledger, 2).StartupCheck(ctx); err != nil {
			t.Fatalf("StartupCheck() error = %v", err)
		}
		if got := len(ledger.Rows()); got != 7 {
			t.Errorf("rows = %d, want 7", got)
		}
		if !ledger.HasHeader(2025) {
			t.Error("header not ensured")
		}
	})
}

// unconfirmedTracker loses every exported mark, as after a crash between the
// ledger append and the bookkeeping write.
type unconfirmedTracker struct {
	*storage.MemoryStore
	marks int
}

func (u *unconfirmedTracker) MarkExported(context.Context, string, string) error {
	u.marks++
	return errors.New("database is locked")
}

func TestExportWorker_UnconfirmedAppendIsNotRepeated(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	txs := seedState(t, store, 1)
	tracker := &unconfirmedTracker{MemoryStore: store}
	ledger := memory.New()
	w := NewExportWorker(store, tracker, ledger, 10)

	for i := 0; i < 2; i++ {
		if err := w.ProcessPending(ctx); err != nil {
			t.Fatalf("ProcessPending() error = %v", err)
		}
	}
	if err := w.HandleStateChanged(ctx, amqp.NewStateChangedMessage(storage.KeyAppState, "addExpense", txs[0].ID)); err != nil {
		t.Fatalf("HandleStateChanged() error = %v", err)
	}

	if got := len(ledger.Rows()); got != 1 {
		t.Errorf("ledger rows = %d, want 1", got)
	}
	if tracker.marks != markExportedAttempts {
		t.Errorf("exported marks = %d, want %d", tracker.marks, markExportedAttempts)
	}
	recs, _ := store.ExportStatus(ctx, []string{txs[0].ID})
	if rec := recs[txs[0].ID]; rec.Status != storage.ExportStatusAppending {
		t.Errorf("record = %+v, want appending", rec)
	}
}

type unwritableTracker struct{ *storage.MemoryStore }

func (unwritableTracker) MarkExportStarted(context.Context, string) error {
	return errors.New("readonly database")
}

func TestExportWorker_NoAppendWithoutStartMark(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	txs := seedState(t, store, 1)
	ledger := memory.New()
	w := NewExportWorker(store, unwritableTracker{store}, ledger, 10)

	err := w.HandleStateChanged(ctx, amqp.NewStateChangedMessage(storage.KeyAppState, "addExpense", txs[0].ID))
	if err == nil {
		t.Fatal("expected an error when the start mark cannot be written")
	}
	if got := len(ledger.Rows()); got != 0 {
		t.Errorf("ledger rows = %d, want 0", got)
	}
}

func TestExportWorker_TransactionsWithoutIDsExportOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	blob := `{"transactions":[
		{"date":"2025-10-06","type":"expense","amount":-12,"category":"Food"},
		{"date":"2025-10-06","type":"expense","amount":-12,"category":"Food"}
	],"startingBalance":0}`
	if err := store.Save(ctx, storage.KeyAppState, []byte(blob)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	ledger := memory.New()
	w := NewExportWorker(store, store, ledger, 10)

	for i := 0; i < 3; i++ {
		if err := w.ProcessPending(ctx); err != nil {
			t.Fatalf("ProcessPending() error = %v", err)
		}
	}
	if got := len(ledger.Rows()); got != 2 {
		t.Errorf("ledger rows = %d, want 2", got)
	}
}
