package services

import (
	"context"
	"testing"
	"time"

	"budgetweek/internal/core"
	"budgetweek/internal/storage"
)

func at(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 10, 0, 0, 0, time.UTC)
}

func TestRolloverProcessor_ProcessRollover(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewBudgetService(store, nil, calendarAt(2025, 10, 8), core.DefaultSettings())

	snap, _ := svc.AddBill(ctx, BillSpec{Name: "Gym", Amount: money(20), Frequency: core.Weekly})
	gym := snap.Payables.Payables[0].ID
	_, _ = svc.AddBill(ctx, BillSpec{Name: "Phone", Amount: money(45), Frequency: core.Monthly, DueDay: 2})
	_, _ = svc.AddBill(ctx, BillSpec{Name: "Rent", Amount: money(500), Frequency: core.Biweekly})
	_, _ = svc.AddBill(ctx, BillSpec{Name: "Water", Amount: money(30), Frequency: core.Monthly, DueDay: 20})
	if _, err := svc.PayBill(ctx, gym); err != nil {
		t.Fatalf("PayBill() error = %v", err)
	}

	proc := NewRolloverProcessor(svc)

	t.Run("same week moves late bills to fallback", func(t *testing.T) {
		res, err := proc.ProcessRollover(ctx, at(2025, 10, 8))
		if err != nil {
			t.Fatalf("ProcessRollover() error = %v", err)
		}
		want := RolloverResult{MovedToFallback: 2}
		if res != want {
			t.Errorf("result = %+v, want %+v", res, want)
		}

		mp, _, _ := storage.LoadMonthlyPayables(ctx, store, 2025, 10)
		weeks := map[string]int{}
		statuses := map[string]core.PayableStatus{}
		for _, p := range mp.Payables {
			weeks[p.Name] = p.AssignedWeek
			statuses[p.Name] = p.Status
		}
		if statuses["Phone"] != core.StatusOverdue || weeks["Phone"] != 8 {
			t.Errorf("Phone = %v week %d", statuses["Phone"], weeks["Phone"])
		}
		if statuses["Rent"] != core.StatusOverdue || weeks["Rent"] != 2 {
			t.Errorf("Rent = %v week %d", statuses["Rent"], weeks["Rent"])
		}
		if statuses["Water"] != core.StatusPending || statuses["Gym"] != core.StatusPaid {
			t.Errorf("statuses = %v", statuses)
		}
	})

	t.Run("second pass is idempotent", func(t *testing.T) {
		res, err := proc.ProcessRollover(ctx, at(2025, 10, 8))
		if err != nil {
			t.Fatalf("ProcessRollover() error = %v", err)
		}
		if res != (RolloverResult{}) {
			t.Errorf("result = %+v, want zero", res)
		}
	})

	t.Run("new week resets weekly bills", func(t *testing.T) {
		res, err := proc.ProcessRollover(ctx, at(2025, 10, 13))
		if err != nil {
			t.Fatalf("ProcessRollover() error = %v", err)
		}
		if !res.WeekRolled || res.MonthCarried || res.WeeklyReset != 1 || res.MovedToFallback != 0 {
			t.Errorf("result = %+v", res)
		}

		st, _, _ := storage.LoadAppState(ctx, store)
		if !st.WeekStart.Equal(core.NewDate(2025, 10, 13)) {
			t.Errorf("week start = %v", st.WeekStart)
		}
		mp, _, _ := storage.LoadMonthlyPayables(ctx, store, 2025, 10)
		gymBill, _ := FindByName(mp.Payables, "Gym")
		if gymBill.Status != core.StatusPending || gymBill.PaidCount != 0 {
			t.Errorf("gym = %+v", gymBill)
		}
	})

	t.Run("sunday never marks bills overdue", func(t *testing.T) {
		res, err := proc.ProcessRollover(ctx, at(2025, 10, 26))
		if err != nil {
			t.Fatalf("ProcessRollover() error = %v", err)
		}
		if res.MovedToFallback != 0 {
			t.Errorf("moved %d bills on a Sunday", res.MovedToFallback)
		}
	})

	t.Run("new month carries bills", func(t *testing.T) {
		res, err := proc.ProcessRollover(ctx, at(2025, 11, 4))
		if err != nil {
			t.Fatalf("ProcessRollover() error = %v", err)
		}
		if !res.WeekRolled || !res.MonthCarried || res.WeeklyReset != 0 {
			t.Errorf("result = %+v", res)
		}
		mp, info, err := storage.LoadMonthlyPayables(ctx, store, 2025, 11)
		if err != nil || !info.Found || len(mp.Payables) != 4 {
			t.Fatalf("november bills: info=%+v err=%v %+v", info, err, mp.Payables)
		}
		for _, p := range mp.Payables {
			if p.PaidCount != 0 {
				t.Errorf("%s carried with paid count %d", p.Name, p.PaidCount)
			}
		}
	})
}

func TestRolloverProcessor_NotInitialized(t *testing.T) {
	var proc RolloverProcessor
	if _, err := proc.ProcessRollover(context.Background(), at(2025, 10, 8)); err == nil {
		t.Error("expected error from processor without service")
	}
}

func TestOverdueBills(t *testing.T) {
	cal := testCalculator()
	mp := core.MonthlyPayables{Year: 2025, Month: 10, Payables: []core.Payable{
		{ID: "m-late", Frequency: core.Monthly, Status: core.StatusPending, AssignedWeek: 6},
		{ID: "m-now", Frequency: core.Monthly, Status: core.StatusPending, AssignedWeek: 7},
		{ID: "m-paid", Frequency: core.Monthly, Status: core.StatusCompleted, AssignedWeek: 5},
		{ID: "b-late", Frequency: core.Biweekly, Status: core.StatusPending, AssignedWeek: 1},
		{ID: "b-later", Frequency: core.Biweekly, Status: core.StatusPending, AssignedWeek: 3},
		{ID: "w", Frequency: core.Weekly, Status: core.StatusPending, AssignedWeek: 1},
	}}

	tests := []struct {
		name  string
		today core.Date
		want  []string
	}{
		{"wednesday of week 7", core.NewDate(2025, 10, 8), []string{"m-late", "b-late"}},
		{"first week", core.NewDate(2025, 10, 1), nil},
		{"sunday", core.NewDate(2025, 10, 12), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overdueBills(mp, cal, tt.today)
			if len(got) != len(tt.want) {
				t.Fatalf("overdueBills() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("overdueBills()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}
