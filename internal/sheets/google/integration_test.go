//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"budgetweek/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_LedgerFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	credsJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	credsFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if credsJSON == "" && credsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: credsJSON,
		CredentialsFile: credsFile,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	today := core.DateOf(time.Now())

	t.Run("EnsureHeader", func(t *testing.T) {
		if err := client.EnsureHeader(ctx, today.Year()); err != nil {
			t.Fatalf("EnsureHeader failed: %v", err)
		}
		// Second call must be a no-op.
		if err := client.EnsureHeader(ctx, today.Year()); err != nil {
			t.Fatalf("EnsureHeader (repeat) failed: %v", err)
		}
	})

	t.Run("Append", func(t *testing.T) {
		tx, err := core.NewExpense(core.Money{Cents: 1234}, "Integration", "Integration Test Expense", today)
		if err != nil {
			t.Fatalf("NewExpense: %v", err)
		}
		ref, err := client.Append(ctx, tx)
		if err != nil {
			t.Fatalf("Failed to append transaction: %v", err)
		}
		t.Logf("Appended transaction %s at %s", tx.ID, ref)
		if ref == "" {
			t.Error("Expected non-empty reference")
		}
	})
}
