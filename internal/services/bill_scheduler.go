// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for placing bills into operational
// weeks. Each frequency (weekly, monthly, biweekly) has its own assigner, and
// the scheduler owns every payable state transition.
package services

import (
	"fmt"
	"strings"

	"budgetweek/internal/core"
	"budgetweek/internal/week"
)

// WeekAssigner is the strategy interface for choosing a bill's week.
// Each implementation encapsulates the placement rule for one frequency.
type WeekAssigner interface {
	// AssignWeek returns the operational week number the bill is due in for
	// the given month.
	AssignWeek(p core.Payable, cal *week.Calculator, year, month int) int
}

// MonthlyAssigner places a bill in the week that contains its due date.
type MonthlyAssigner struct{}

// AssignWeek looks up the week containing the due date; a bill with only a
// due day is placed on that day of the month.
func (MonthlyAssigner) AssignWeek(p core.Payable, cal *week.Calculator, year, month int) int {
	due := p.DueDate
	if due.IsZero() {
		due = week.DueDateInMonth(p.DueDay, year, month)
	}
	return cal.AssignWeekForMonthlyPayable(due, year, month)
}

// BiweeklyAssigner places a bill in its half-month period's due week.
type BiweeklyAssigner struct{}

// AssignWeek returns the due week of the bill's period.
func (BiweeklyAssigner) AssignWeek(p core.Payable, cal *week.Calculator, year, month int) int {
	return cal.BiweeklySchedule(year, month).Lookup(p.Period).DueWeek
}

// WeeklyAssigner places a bill in the current week.
type WeeklyAssigner struct{}

// AssignWeek returns the current week's number; on a Sunday, the number of the
// week just ended.
func (WeeklyAssigner) AssignWeek(_ core.Payable, cal *week.Calculator, _, _ int) int {
	return cal.WeekNumberOf(cal.Today())
}

// weekAssigners maps frequencies to their placement strategy.
var weekAssigners = map[core.Frequency]WeekAssigner{
	core.Weekly:   WeeklyAssigner{},
	core.Monthly:  MonthlyAssigner{},
	core.Biweekly: BiweeklyAssigner{},
}

// GetWeekAssigner returns the assigner for a frequency.
func GetWeekAssigner(frequency core.Frequency) (WeekAssigner, error) {
	a, ok := weekAssigners[frequency.Canonical()]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return a, nil
}

// RegisterWeekAssigner installs a custom assigner for a frequency.
func RegisterWeekAssigner(frequency core.Frequency, a WeekAssigner) {
	weekAssigners[frequency] = a
}

// BillPalette is the round-robin color list for new bills.
var BillPalette = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B",
	"#8B5CF6", "#EC4899", "#14B8A6", "#F97316",
}

// BillSpec is the user input for a new bill.
type BillSpec struct {
	Name      string         `json:"name"`
	Amount    core.Money     `json:"amount"`
	Frequency core.Frequency `json:"frequency"`
	DueDay    int            `json:"dueDay"`
	DueDate   core.Date      `json:"dueDate"`
	Period    core.Period    `json:"period"`
}

// BillScheduler owns payable state transitions and week assignment.
type BillScheduler struct {
	cal *week.Calculator
}

func NewBillScheduler(cal *week.Calculator) *BillScheduler {
	return &BillScheduler{cal: cal}
}

// AddBill validates spec, builds a pending bill for the blob's month and
// appends it.
func (s *BillScheduler) AddBill(mp *core.MonthlyPayables, spec BillSpec) (core.Payable, error) {
	freq := spec.Frequency.Canonical()
	if freq == "" {
		freq = core.Monthly
	}
	p := core.Payable{
		ID:          core.NewID(),
		Name:        strings.TrimSpace(spec.Name),
		Amount:      spec.Amount,
		DueDay:      spec.DueDay,
		DueDate:     spec.DueDate,
		Status:      core.StatusPending,
		Frequency:   freq,
		MaxPayments: freq.MaxPayments(),
		Color:       BillPalette[len(mp.Payables)%len(BillPalette)],
	}
	if freq == core.Biweekly {
		p.Period = spec.Period
		if p.Period == "" {
			p.Period = core.FirstHalf
		}
	}
	if err := p.Validate(); err != nil {
		return core.Payable{}, err
	}
	if freq == core.Monthly {
		if p.DueDate.IsZero() {
			p.DueDate = week.DueDateInMonth(p.DueDay, mp.Year, mp.Month)
		}
		if p.DueDay == 0 {
			p.DueDay = p.DueDate.Day()
		}
	}

	assigner, err := GetWeekAssigner(freq)
	if err != nil {
		return core.Payable{}, err
	}
	p.AssignedWeek = assigner.AssignWeek(p, s.cal, mp.Year, mp.Month)

	mp.Payables = append(mp.Payables, p)
	return p, nil
}

// PayBill records one payment. Monthly bills complete immediately; the first
// payment of a biweekly bill moves it to the other half's due week and keeps
// it pending; the second completes it. Everything else becomes paid.
func (s *BillScheduler) PayBill(mp *core.MonthlyPayables, id string) (core.Payable, error) {
	i := indexOfBill(mp.Payables, id)
	if i < 0 {
		return core.Payable{}, ErrPayableNotFound
	}
	p := &mp.Payables[i]
	if p.IsTerminal() {
		return *p, ErrPayableCompleted
	}
	if p.PaidCount >= p.MaxPayments {
		return *p, ErrNoPaymentDue
	}

	p.PaidCount++
	switch {
	case p.Frequency == core.Monthly:
		p.Status = core.StatusCompleted
	case p.Frequency == core.Biweekly && p.PaidCount == 1:
		p.Period = p.Period.Other()
		p.AssignedWeek = s.cal.BiweeklySchedule(mp.Year, mp.Month).Lookup(p.Period).DueWeek
		p.Status = core.StatusPending
	case p.Frequency == core.Biweekly && p.PaidCount >= 2:
		p.Status = core.StatusCompleted
	default:
		p.Status = core.StatusPaid
	}
	return *p, nil
}

// MarkOverdue moves a pending bill to its fallback week. Biweekly bills use
// their period's fallback; others move to the week after the current one.
func (s *BillScheduler) MarkOverdue(mp *core.MonthlyPayables, id string) (core.Payable, error) {
	i := indexOfBill(mp.Payables, id)
	if i < 0 {
		return core.Payable{}, ErrPayableNotFound
	}
	p := &mp.Payables[i]
	if p.Status != core.StatusPending {
		return *p, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, core.StatusOverdue)
	}

	if p.Frequency == core.Biweekly {
		p.AssignedWeek = s.cal.BiweeklySchedule(mp.Year, mp.Month).Lookup(p.Period).FallbackWeek
	} else {
		p.AssignedWeek = s.cal.WeekNumberOf(s.cal.Today()) + 1
	}
	p.Status = core.StatusOverdue
	return *p, nil
}

// DeleteBill removes the bill with id, whatever its state.
func DeleteBill(mp *core.MonthlyPayables, id string) (core.Payable, error) {
	i := indexOfBill(mp.Payables, id)
	if i < 0 {
		return core.Payable{}, ErrPayableNotFound
	}
	removed := mp.Payables[i]
	mp.Payables = append(mp.Payables[:i], mp.Payables[i+1:]...)
	return removed, nil
}

// FindByName returns the first bill whose name matches case-insensitively.
func FindByName(bills []core.Payable, name string) (core.Payable, bool) {
	name = strings.TrimSpace(name)
	for _, p := range bills {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return core.Payable{}, false
}

// CarryForward copies the bills into a fresh blob for year/month with their
// payment counters reset and weeks reassigned.
func (s *BillScheduler) CarryForward(bills []core.Payable, year, month int) core.MonthlyPayables {
	next := core.MonthlyPayables{Year: year, Month: month, Payables: make([]core.Payable, 0, len(bills))}
	for _, p := range bills {
		p.PaidCount = 0
		p.Status = core.StatusPending
		if p.Frequency == core.Biweekly {
			p.Period = core.FirstHalf
		}
		if p.Frequency == core.Monthly {
			day := p.DueDay
			if day == 0 && !p.DueDate.IsZero() {
				day = p.DueDate.Day()
			}
			p.DueDay = day
			p.DueDate = week.DueDateInMonth(day, year, month)
		}
		if a, err := GetWeekAssigner(p.Frequency); err == nil {
			p.AssignedWeek = a.AssignWeek(p, s.cal, year, month)
		}
		next.Payables = append(next.Payables, p)
	}
	return next
}

// ResetWeekly puts weekly bills back to pending for a new week and returns how
// many were reset.
func (s *BillScheduler) ResetWeekly(mp *core.MonthlyPayables) int {
	n := 0
	current := s.cal.WeekNumberOf(s.cal.Today())
	for i := range mp.Payables {
		p := &mp.Payables[i]
		if p.Frequency != core.Weekly {
			continue
		}
		p.PaidCount = 0
		p.Status = core.StatusPending
		p.AssignedWeek = current
		n++
	}
	return n
}

func indexOfBill(bills []core.Payable, id string) int {
	for i := range bills {
		if bills[i].ID == id {
			return i
		}
	}
	return -1
}
