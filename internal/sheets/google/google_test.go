package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"budgetweek/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the Values calls the client makes.
type fakeSheets struct {
	mu      sync.Mutex
	appends []gsheet.ValueRange
	updates []gsheet.ValueRange
	paths   []string
	header  [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appends = append(f.appends, vr)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "2025 Ledger!A2:G2", "updatedRows": 1},
		})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, vr)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.header})
	default:
		http.Error(w, "unexpected call", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID:   "id",
		CredentialsFile: t.TempDir() + "/missing.json",
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_Append(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	tx := core.Transaction{
		ID:          "tx-1",
		Type:        core.Expense,
		Amount:      core.Money{Cents: -1250},
		Category:    "Bills",
		Description: "Payment: Rent",
		Date:        core.NewDate(2025, 10, 8),
		BillID:      "bill-1",
	}
	ref, err := c.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "2025 Ledger!A2:G2" {
		t.Errorf("ref = %q", ref)
	}

	if len(fake.appends) != 1 || len(fake.appends[0].Values) != 1 {
		t.Fatalf("appends = %+v", fake.appends)
	}
	row := fake.appends[0].Values[0]
	want := []any{"2025-10-08", "expense", "Bills", "Payment: Rent", -12.5, "tx-1", "bill-1"}
	if len(row) != len(want) {
		t.Fatalf("row = %v", row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v (%T), want %v", i, row[i], row[i], want[i])
		}
	}
	if !strings.Contains(fake.paths[0], "2025 Ledger!A:G") {
		t.Errorf("path = %s", fake.paths[0])
	}
}

func TestClient_AppendRejectsInvalidTransaction(t *testing.T) {
	c := &Client{spreadsheetID: "test"}

	_, err := c.Append(context.Background(), core.Transaction{Type: core.Income, Date: core.NewDate(2025, 1, 1)})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got: %v", err)
	}

	valid := core.Transaction{Type: core.Income, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)}
	if _, err := c.Append(context.Background(), valid); err == nil {
		t.Error("expected error without a sheets service")
	}
}

func TestClient_EnsureHeader(t *testing.T) {
	t.Run("writes header on empty sheet", func(t *testing.T) {
		fake := &fakeSheets{}
		c := newTestClient(t, fake)
		if err := c.EnsureHeader(context.Background(), 2025); err != nil {
			t.Fatalf("EnsureHeader() error = %v", err)
		}
		if len(fake.updates) != 1 || len(fake.updates[0].Values[0]) != len(ledgerHeader) {
			t.Errorf("updates = %+v", fake.updates)
		}
	})

	t.Run("keeps existing header", func(t *testing.T) {
		fake := &fakeSheets{header: [][]any{{"Date"}}}
		c := newTestClient(t, fake)
		if err := c.EnsureHeader(context.Background(), 2025); err != nil {
			t.Fatalf("EnsureHeader() error = %v", err)
		}
		if len(fake.updates) != 0 {
			t.Errorf("header rewritten: %+v", fake.updates)
		}
	})
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base", "Ledger", 2025, "2025 Ledger"},
		{"already prefixed", "2024 Ledger", 2025, "2024 Ledger"},
		{"trimmed", "  Ledger ", 2026, "2026 Ledger"},
		{"empty", "", 2025, ""},
		{"number not a year", "12345 Ledger", 2025, "2025 12345 Ledger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestDefaultSheetName(t *testing.T) {
	c := NewWithService(nil, "id", "  ")
	if got := c.sheetName(2025); got != "2025 Ledger" {
		t.Errorf("sheetName = %q", got)
	}
}
