package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultStandardGoal is the daily earnings target of a work day when no
// setting overrides it.
var DefaultStandardGoal = Money{Cents: 110000}

// WeekdayNames are the short day names used by the income ledger, Monday first.
var WeekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type (
	// Settings are the user-level dashboard parameters.
	Settings struct {
		StartingBalance   Money            `json:"startingBalance"`
		StandardDailyGoal Money            `json:"standardDailyGoal"`
		Categories        []BudgetCategory `json:"categories"`
		// WorkDays overrides the default Monday-Saturday schedule, keyed by
		// short day name.
		WorkDays map[string]bool `json:"workDays,omitempty"`
	}

	// AppState is the main persisted blob.
	AppState struct {
		Transactions []Transaction      `json:"transactions"`
		DailyIncome  []DailyIncomeEntry `json:"dailyIncome"`
		Settings     Settings           `json:"settings"`
		WeekStart    Date               `json:"weekStart"`
		UpdatedAt    time.Time          `json:"updatedAt"`
	}

	// MonthlyPayables is the per-month bill blob.
	MonthlyPayables struct {
		Year     int       `json:"year"`
		Month    int       `json:"month"`
		Payables []Payable `json:"payables"`
	}
)

// DefaultSettings returns settings with the standard goal and no categories.
func DefaultSettings() Settings {
	return Settings{
		StandardDailyGoal: DefaultStandardGoal,
		Categories:        []BudgetCategory{},
	}
}

// IsDefaultWorkDay reports whether the short day name is a work day when the
// user never configured one.
func IsDefaultWorkDay(day string) bool {
	return day != "Sun"
}

// WorkDayFor resolves the configured work-day flag for a short day name.
func (s Settings) WorkDayFor(day string) bool {
	if v, ok := s.WorkDays[day]; ok {
		return v
	}
	return IsDefaultWorkDay(day)
}

// Normalize applies every load-boundary default so the rest of the code can
// trust the shapes.
func (s *Settings) Normalize() {
	if s.StandardDailyGoal.Cents <= 0 {
		s.StandardDailyGoal = DefaultStandardGoal
	}
	if s.Categories == nil {
		s.Categories = []BudgetCategory{}
	}
	kept := s.Categories[:0]
	for _, c := range s.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if c.Budgeted.Cents < 0 {
			c.Budgeted = Money{}
		}
		kept = append(kept, c)
	}
	s.Categories = kept
}

// Normalize fixes up a blob read from storage. It reports whether it filled
// in ids, which callers must persist.
func (st *AppState) Normalize() (repaired bool) {
	if st.Transactions == nil {
		st.Transactions = []Transaction{}
	}
	if st.DailyIncome == nil {
		st.DailyIncome = []DailyIncomeEntry{}
	}
	st.Settings.Normalize()

	kept := st.Transactions[:0]
	for i, tx := range st.Transactions {
		if tx.Type != Income && tx.Type != Expense {
			// Sign is authoritative for records that lost their type.
			if tx.Amount.Cents < 0 {
				tx.Type = Expense
			} else {
				tx.Type = Income
			}
		}
		if tx.Type == Expense && tx.Amount.Cents > 0 {
			tx.Amount = tx.Amount.Neg()
		}
		if tx.Type == Income && tx.Amount.Cents < 0 {
			tx.Amount = tx.Amount.Neg()
		}
		if tx.ID == "" {
			tx.ID = derivedID("transaction", i, tx.Date.String(), string(tx.Type),
				tx.Amount.Cents, tx.Category, tx.Description)
			repaired = true
		}
		kept = append(kept, tx)
	}
	st.Transactions = kept

	for i := range st.DailyIncome {
		e := &st.DailyIncome[i]
		if e.Amount.Cents < 0 {
			e.Amount = Money{}
		}
		if !e.IsWorkDay {
			e.Goal = Money{}
		} else if e.Goal.Cents <= 0 {
			e.Goal = st.Settings.StandardDailyGoal
		}
	}
	return repaired
}

// Normalize fixes up a payables blob read from storage. It reports whether it
// filled in ids, which callers must persist.
func (mp *MonthlyPayables) Normalize() (repaired bool) {
	if mp.Payables == nil {
		mp.Payables = []Payable{}
	}
	for i := range mp.Payables {
		p := &mp.Payables[i]
		p.Normalize()
		if p.ID == "" {
			p.ID = derivedID(fmt.Sprintf("payable/%d-%d", mp.Year, mp.Month), i,
				p.Name, string(p.Frequency), p.Amount.Cents)
			repaired = true
		}
	}
	return repaired
}

// derivedID names a record that was stored without an id. The id depends only
// on the record and its position, so every reader of the same blob derives
// the same one until it is saved.
func derivedID(kind string, index int, parts ...any) string {
	name := fmt.Sprintf("%s/%d/%v", kind, index, parts)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// Normalize defaults a single bill record.
func (p *Payable) Normalize() {
	p.Frequency = p.Frequency.Canonical()
	if p.Frequency.Validate() != nil {
		p.Frequency = Monthly
	}
	if p.MaxPayments <= 0 {
		p.MaxPayments = p.Frequency.MaxPayments()
	}
	if p.PaidCount < 0 {
		p.PaidCount = 0
	}
	if p.PaidCount > p.MaxPayments {
		p.PaidCount = p.MaxPayments
	}
	switch p.Status {
	case StatusPending, StatusPaid, StatusOverdue, StatusCompleted:
	default:
		p.Status = StatusPending
	}
	if p.Frequency == Biweekly && p.Period.Validate() != nil {
		p.Period = FirstHalf
	}
	if p.Frequency != Biweekly {
		p.Period = ""
	}
	if p.Amount.Cents < 0 {
		p.Amount = Money{}
	}
}
