package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"budgetweek/internal/core"
	"budgetweek/internal/week"
)

// DashboardInput is everything the aggregator reads. Nil slices are treated
// as empty.
type DashboardInput struct {
	Transactions []core.Transaction
	Payables     []core.Payable
	DailyIncome  []core.DailyIncomeEntry
	Settings     core.Settings
	Today        core.Date
}

// ComputeDashboard derives every dashboard figure from the canonical records.
// It never fails: missing values count as zero and percentages of a zero base
// are zero.
func ComputeDashboard(in DashboardInput) core.Dashboard {
	weekStart := week.MondayOf(in.Today)
	d := core.Dashboard{
		WeekStart:  weekStart,
		WeekEnd:    weekStart.AddDays(5),
		Categories: []core.CategorySpend{},
	}

	for _, e := range in.DailyIncome {
		if !e.IsWorkDay || e.Goal.Cents <= 0 {
			if e.IsToday {
				d.TodayIncome = e.Amount
			}
			continue
		}
		d.WorkDays++
		d.WeeklyEarned = d.WeeklyEarned.Add(e.Amount)
		d.WeeklyGoal = d.WeeklyGoal.Add(e.Goal)
		if e.IsToday {
			d.TodayIncome = e.Amount
			d.TodayGoal = e.Goal
		}
		if !e.IsPast && !e.IsToday {
			d.RemainingWorkDays++
			d.PotentialRemainingEarnings = d.PotentialRemainingEarnings.Add(e.Goal)
		}
	}
	d.GoalProgress = percent(d.WeeklyEarned, d.WeeklyGoal)
	d.TodayProgress = percent(d.TodayIncome, d.TodayGoal)

	spent := make(map[string]core.Money)
	for _, tx := range in.Transactions {
		switch tx.Type {
		case core.Income:
			d.TotalIncome = d.TotalIncome.Add(tx.Magnitude())
		case core.Expense:
			d.TotalExpenses = d.TotalExpenses.Add(tx.Magnitude())
			key := strings.ToLower(strings.TrimSpace(tx.Category))
			spent[key] = spent[key].Add(tx.Magnitude())
			if !tx.Date.Before(weekStart) {
				d.CurrentWeekExpenses = d.CurrentWeekExpenses.Add(tx.Magnitude())
			}
		}
	}

	for _, c := range in.Settings.Categories {
		s := spent[strings.ToLower(strings.TrimSpace(c.Name))]
		d.Categories = append(d.Categories, core.CategorySpend{
			Name:        c.Name,
			Budgeted:    c.Budgeted,
			Spent:       s,
			Remaining:   c.Budgeted.Sub(s),
			PercentUsed: percent(s, c.Budgeted),
			Color:       c.Color,
		})
	}

	var paid core.Money
	for _, p := range in.Payables {
		if p.Status == core.StatusPaid || p.Status == core.StatusCompleted {
			paid = paid.Add(p.Amount)
		}
		if !dueThisWeek(p, in.Today, weekStart) {
			continue
		}
		d.TotalWeeklyPayables = d.TotalWeeklyPayables.Add(p.Amount)
		if p.Status == core.StatusPending {
			d.TotalPendingPayables = d.TotalPendingPayables.Add(p.Amount)
		}
	}

	d.ThisWeekProjectedSavings = ProjectedSavings(d.WeeklyEarned, d.PotentialRemainingEarnings,
		d.TotalWeeklyPayables, d.CurrentWeekExpenses)
	d.CalculatedBalance = in.Settings.StartingBalance.
		Add(d.TotalIncome).
		Sub(d.TotalExpenses).
		Sub(paid)
	d.FutureBalance = d.CalculatedBalance.
		Add(d.PotentialRemainingEarnings).
		Sub(d.TotalPendingPayables)
	return d
}

// ProjectedSavings is what the week leaves over once every goal is met.
func ProjectedSavings(earned, potential, payables, expenses core.Money) core.Money {
	return earned.Add(potential).Sub(payables).Sub(expenses)
}

// dueThisWeek selects weekly bills and monthly bills whose due date falls in
// the Monday-Saturday week starting at weekStart.
func dueThisWeek(p core.Payable, today, weekStart core.Date) bool {
	switch p.Frequency.Canonical() {
	case core.Weekly:
		return true
	case core.Monthly:
		due := p.DueDate
		if due.IsZero() {
			if p.DueDay <= 0 {
				return false
			}
			due = week.DueDateInMonth(p.DueDay, today.Year(), int(today.Month()))
		}
		return week.InWeek(due, weekStart)
	}
	return false
}

// percent returns part/whole*100 unrounded, or 0 when whole is not positive.
// Rounding belongs to whoever displays it.
func percent(part, whole core.Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	p := decimal.NewFromInt(part.Cents).
		Div(decimal.NewFromInt(whole.Cents)).
		Mul(decimal.NewFromInt(100))
	if p.IsNegative() {
		return 0
	}
	return p.InexactFloat64()
}
