package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budgetweek/internal/config"
	"budgetweek/internal/core"
	"budgetweek/internal/services"
	"budgetweek/internal/storage"
	"budgetweek/internal/week"
)

func testBudget(t *testing.T) *services.BudgetService {
	t.Helper()
	cal := week.New(time.UTC).WithClock(func() time.Time {
		return time.Date(2025, time.October, 8, 10, 0, 0, 0, time.UTC)
	})
	return services.NewBudgetService(storage.NewMemoryStore(), nil, cal, core.DefaultSettings())
}

func run(t *testing.T, budget *services.BudgetService, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	open := func(context.Context) (*services.BudgetService, func(), error) {
		return budget, func() {}, nil
	}
	root := newRootCmd(open, &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWeeksCmd(t *testing.T) {
	out, err := run(t, testBudget(t), "weeks", "--year", "2025", "--month", "10")
	if err != nil {
		t.Fatalf("weeks error = %v", err)
	}
	if !strings.Contains(out, "WEEK") || !strings.Contains(out, "2025-10-06") {
		t.Errorf("weeks output = %q", out)
	}

	out, err = run(t, testBudget(t), "weeks", "--json", "--year", "2025", "--month", "10")
	if err != nil {
		t.Fatalf("weeks --json error = %v", err)
	}
	var weeks []week.OperationalWeek
	if err := json.Unmarshal([]byte(out), &weeks); err != nil {
		t.Fatalf("decode weeks: %v (%q)", err, out)
	}
	if len(weeks) == 0 {
		t.Error("no weeks")
	}

	if _, err := run(t, testBudget(t), "weeks", "--month", "13"); err == nil {
		t.Error("month 13 should fail")
	}
}

func TestScheduleCmd(t *testing.T) {
	out, err := run(t, testBudget(t), "schedule", "--year", "2025", "--month", "10")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	if !strings.Contains(out, "1-15") || !strings.Contains(out, "16-31") {
		t.Errorf("schedule output = %q", out)
	}
}

func TestBillsAndPayCmd(t *testing.T) {
	budget := testBudget(t)
	if _, err := budget.AddBill(context.Background(), services.BillSpec{
		Name:      "Internet Home",
		Amount:    core.Money{Cents: 3000},
		Frequency: core.Monthly,
		DueDay:    20,
	}); err != nil {
		t.Fatalf("AddBill() error = %v", err)
	}

	out, err := run(t, budget, "bills")
	if err != nil {
		t.Fatalf("bills error = %v", err)
	}
	if !strings.Contains(out, "Internet Home") || !strings.Contains(out, "30.00") || !strings.Contains(out, "pending") {
		t.Errorf("bills output = %q", out)
	}

	out, err = run(t, budget, "pay", "internet", "home")
	if err != nil {
		t.Fatalf("pay error = %v", err)
	}
	if !strings.Contains(out, "Paid Internet Home: completed (1/1)") {
		t.Errorf("pay output = %q", out)
	}

	if _, err := run(t, budget, "pay", "gas"); err == nil {
		t.Error("paying an unknown bill should fail")
	}
}

func TestDashboardAndActionCmd(t *testing.T) {
	budget := testBudget(t)

	out, err := run(t, budget, "action", "addIncome", "amount=12,50")
	if err != nil {
		t.Fatalf("action error = %v", err)
	}
	if !strings.Contains(out, "addIncome done, balance 12.50") {
		t.Errorf("action output = %q", out)
	}

	if _, err := run(t, budget, "action", "addIncome", "amount"); err == nil {
		t.Error("malformed argument should fail")
	}

	out, err = run(t, budget, "dashboard")
	if err != nil {
		t.Fatalf("dashboard error = %v", err)
	}
	if !strings.Contains(out, "Balance") || !strings.Contains(out, "12.50") {
		t.Errorf("dashboard output = %q", out)
	}
}

func TestRolloverCmd(t *testing.T) {
	out, err := run(t, testBudget(t), "rollover", "--json")
	if err != nil {
		t.Fatalf("rollover error = %v", err)
	}
	var res services.RolloverResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode rollover: %v (%q)", err, out)
	}
	if res.MovedToFallback != 0 {
		t.Errorf("rollover = %+v", res)
	}
}

func TestSettingsExportCmd(t *testing.T) {
	budget := testBudget(t)
	if _, err := budget.ModifyBalance(context.Background(), core.Money{Cents: 50000}); err != nil {
		t.Fatalf("ModifyBalance() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "settings.toml")
	if _, err := run(t, budget, "settings", "export", path); err != nil {
		t.Fatalf("settings export error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file: %v", err)
	}
	got, err := config.LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got.StartingBalance.Cents != 50000 {
		t.Errorf("StartingBalance = %d, want 50000", got.StartingBalance.Cents)
	}
}
