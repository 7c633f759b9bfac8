package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Weekly   Frequency = "weekly"
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"

	// TwiceMonthly is the legacy spelling of Biweekly found in older blobs.
	TwiceMonthly Frequency = "twice-monthly"
)

const (
	StatusPending   PayableStatus = "pending"
	StatusPaid      PayableStatus = "paid"
	StatusOverdue   PayableStatus = "overdue"
	StatusCompleted PayableStatus = "completed"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	FirstHalf  Period = "first"
	SecondHalf Period = "second"
)

// DateLayout is the ISO layout used for every date at the boundary.
const DateLayout = "2006-01-02"

type (
	Frequency       string
	PayableStatus   string
	TransactionType string
	Period          string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"` // positive income, negative expense
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		BillID      string          `json:"billId,omitempty"`
	}

	Payable struct {
		ID           string        `json:"id"`
		Name         string        `json:"name"`
		Amount       Money         `json:"amount"`
		DueDay       int           `json:"dueDay,omitempty"`
		DueDate      Date          `json:"dueDate"`
		Status       PayableStatus `json:"status"`
		Frequency    Frequency     `json:"frequency"`
		PaidCount    int           `json:"paidCount"`
		MaxPayments  int           `json:"maxPayments"`
		AssignedWeek int           `json:"assignedWeek"`
		Period       Period        `json:"period,omitempty"`
		Color        string        `json:"color,omitempty"`
	}

	DailyIncomeEntry struct {
		Day       string `json:"day"`
		Date      Date   `json:"date"`
		Amount    Money  `json:"amount"`
		Goal      Money  `json:"goal"`
		IsToday   bool   `json:"isToday"`
		IsPast    bool   `json:"isPast"`
		IsWorkDay bool   `json:"isWorkDay"`
	}

	BudgetCategory struct {
		Name     string `json:"name"`
		Budgeted Money  `json:"budgeted"`
		Color    string `json:"color,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidPeriod    = errors.New("invalid period")
)

// NewID returns a time-ordered unique identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf drops the clock part of t, keeping its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// String returns the ISO form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d is a calendar day before o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is a calendar day after o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return Date{Time: d.AddDate(0, 0, n)} }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" and RFC 3339 timestamps; anything else
// decodes to the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = DateOf(t)
	}
	return nil
}

// Canonical maps legacy spellings onto the frequencies the scheduler knows.
func (f Frequency) Canonical() Frequency {
	switch Frequency(strings.ToLower(strings.TrimSpace(string(f)))) {
	case Weekly:
		return Weekly
	case Monthly:
		return Monthly
	case Biweekly, TwiceMonthly:
		return Biweekly
	}
	return f
}

// MaxPayments is the number of payments a bill of this frequency needs per cycle.
func (f Frequency) MaxPayments() int {
	if f.Canonical() == Biweekly {
		return 2
	}
	return 1
}

func (f Frequency) Validate() error {
	switch f.Canonical() {
	case Weekly, Monthly, Biweekly:
		return nil
	}
	return ErrInvalidFrequency
}

// Other returns the opposite half of the month.
func (p Period) Other() Period {
	if p == SecondHalf {
		return FirstHalf
	}
	return SecondHalf
}

func (p Period) Validate() error {
	switch p {
	case FirstHalf, SecondHalf:
		return nil
	}
	return ErrInvalidPeriod
}

// IsIncome reports whether t is an income event.
func (t Transaction) IsIncome() bool { return t.Type == Income }

// IsExpense reports whether t is an expense event.
func (t Transaction) IsExpense() bool { return t.Type == Expense }

// Magnitude is the absolute amount of the transaction.
func (t Transaction) Magnitude() Money { return t.Amount.Abs() }

func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if t.Type == Income && t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if t.Type == Expense && t.Amount.Cents > 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewIncome builds an income transaction; amount must be positive.
func NewIncome(amount Money, category, description string, date Date) (Transaction, error) {
	if amount.Cents <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if strings.TrimSpace(category) == "" {
		category = "Income"
	}
	tx := Transaction{
		ID:          NewID(),
		Type:        Income,
		Amount:      amount,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		Date:        date,
	}
	return tx, tx.Validate()
}

// NewExpense builds an expense transaction from a positive magnitude; the
// stored amount is negative.
func NewExpense(magnitude Money, category, description string, date Date) (Transaction, error) {
	if magnitude.Cents <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if strings.TrimSpace(category) == "" {
		return Transaction{}, ErrEmptyCategory
	}
	tx := Transaction{
		ID:          NewID(),
		Type:        Expense,
		Amount:      magnitude.Neg(),
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		Date:        date,
	}
	return tx, tx.Validate()
}

func (p Payable) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := p.Frequency.Validate(); err != nil {
		return err
	}
	if p.Frequency.Canonical() == Biweekly && p.Period != "" {
		if err := p.Period.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsTerminal reports whether no further transition can change p.
func (p Payable) IsTerminal() bool {
	return p.Status == StatusCompleted
}
