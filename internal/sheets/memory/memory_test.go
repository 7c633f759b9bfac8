package memory

import (
	"context"
	"errors"
	"testing"

	"budgetweek/internal/core"
)

func TestLedgerAppend(t *testing.T) {
	l := New()
	ctx := context.Background()

	tx, err := core.NewIncome(core.Money{Cents: 123}, "", "t", core.NewDate(2025, 1, 6))
	if err != nil {
		t.Fatalf("NewIncome: %v", err)
	}
	for i, want := range []string{"mem:1", "mem:2"} {
		ref, err := l.Append(ctx, tx)
		if err != nil || ref != want {
			t.Fatalf("append %d: ref=%q err=%v", i, ref, err)
		}
	}
	if rows := l.Rows(); len(rows) != 2 || rows[0].ID != tx.ID {
		t.Errorf("rows = %+v", rows)
	}
}

func TestLedgerRejectsInvalid(t *testing.T) {
	l := New()
	_, err := l.Append(context.Background(), core.Transaction{Type: core.Expense, Amount: core.Money{Cents: 5}})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if len(l.Rows()) != 0 {
		t.Error("invalid transaction was stored")
	}
}

func TestLedgerEnsureHeader(t *testing.T) {
	l := New()
	if l.HasHeader(2025) {
		t.Fatal("header before EnsureHeader")
	}
	_ = l.EnsureHeader(context.Background(), 2025)
	if !l.HasHeader(2025) || l.HasHeader(2026) {
		t.Error("header tracked for the wrong year")
	}
}
