package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"budgetweek/internal/amqp"
	"budgetweek/internal/core"
	"budgetweek/internal/log"
	"budgetweek/internal/storage"
	"budgetweek/internal/week"
)

// BillsCategory is the expense category of recorded bill payments.
const BillsCategory = "Bills"

// Publisher announces persisted state changes.
type Publisher interface {
	PublishStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error
}

// Snapshot is the state returned after every action: the canonical records
// plus everything derived from them.
type Snapshot struct {
	State       core.AppState        `json:"state"`
	Payables    core.MonthlyPayables `json:"payables"`
	CurrentWeek week.OperationalWeek `json:"currentWeek"`
	Dashboard   core.Dashboard       `json:"dashboard"`
}

// BudgetService is the action surface over the persisted budget. Mutations
// are serialized; each one loads the blobs, applies a change, saves and
// publishes.
type BudgetService struct {
	mu        sync.Mutex
	store     storage.Store
	publisher Publisher
	cal       *week.Calculator
	bills     *BillScheduler
	defaults  core.Settings
}

// NewBudgetService wires the service. A nil publisher disables events;
// defaults seed the settings of a store that holds no state yet.
func NewBudgetService(store storage.Store, publisher Publisher, cal *week.Calculator, defaults core.Settings) *BudgetService {
	defaults.Normalize()
	return &BudgetService{
		store:     store,
		publisher: publisher,
		cal:       cal,
		bills:     NewBillScheduler(cal),
		defaults:  defaults,
	}
}

// Calculator exposes the week calculator the service schedules with.
func (s *BudgetService) Calculator() *week.Calculator { return s.cal }

// session is one loaded copy of the blobs being worked on.
type session struct {
	cal        *week.Calculator
	sched      *BillScheduler
	today      core.Date
	state      core.AppState
	bills      core.MonthlyPayables
	stateDirty bool
	billsDirty bool
	txID       string
	paid       *core.Payable

	// Set by load when the stored ledger belonged to an earlier week or the
	// month's bills were carried over from the previous month.
	weekRolled  bool
	monthRolled bool
	weeklyReset int
}

func (s *BudgetService) load(ctx context.Context, cal *week.Calculator) (*session, error) {
	today := cal.Today()
	sched := s.bills
	if cal != s.cal {
		sched = NewBillScheduler(cal)
	}

	st, info, err := storage.LoadAppState(ctx, s.store)
	if err != nil {
		return nil, err
	}
	sess := &session{cal: cal, sched: sched, today: today, state: st, stateDirty: info.Repaired}
	if !info.Found {
		sess.state.Settings = cloneSettings(s.defaults)
		sess.stateDirty = true
	}

	if !IncomeWeekCurrent(sess.state.DailyIncome, today) {
		sess.state.DailyIncome = BuildIncomeWeek(sess.state.DailyIncome, today, sess.state.Settings)
		sess.weekRolled = info.Found && len(st.DailyIncome) > 0
		sess.state.WeekStart = week.MondayOf(today)
		sess.stateDirty = true
	} else {
		RefreshIncomeFlags(sess.state.DailyIncome, today)
	}

	month, err := LoadMonthWithCarry(ctx, s.store, sched, today.Year(), int(today.Month()))
	if err != nil {
		return nil, err
	}
	sess.bills = month.Bills
	sess.billsDirty = month.Carried || month.Repaired
	sess.monthRolled = month.Carried

	// Whoever rolls the week resets the weekly bills with it. A carried month
	// already starts them over.
	if sess.weekRolled && !sess.monthRolled {
		if n := sched.ResetWeekly(&sess.bills); n > 0 {
			sess.weeklyReset = n
			sess.billsDirty = true
		}
	}
	return sess, nil
}

// MonthLoad is the outcome of LoadMonthWithCarry.
type MonthLoad struct {
	Bills core.MonthlyPayables
	// Carried is set when the month had no blob and the previous month's
	// bills were copied forward.
	Carried bool
	// Repaired is set when the stored bills needed ids filled in.
	Repaired bool
}

// LoadMonthWithCarry loads the bills of year/month. When the month has no blob
// yet, the previous month's bills are carried forward. A carried or repaired
// month still needs saving.
func LoadMonthWithCarry(ctx context.Context, store storage.Store, bills *BillScheduler, year, month int) (MonthLoad, error) {
	mp, info, err := storage.LoadMonthlyPayables(ctx, store, year, month)
	if err != nil {
		return MonthLoad{}, err
	}
	if info.Found {
		return MonthLoad{Bills: mp, Repaired: info.Repaired}, nil
	}

	py, pm := year, month-1
	if pm < 1 {
		py, pm = year-1, 12
	}
	prev, prevInfo, err := storage.LoadMonthlyPayables(ctx, store, py, pm)
	if err != nil {
		return MonthLoad{}, err
	}
	if !prevInfo.Found || len(prev.Payables) == 0 {
		return MonthLoad{Bills: mp}, nil
	}

	slog.InfoContext(ctx, "Carrying bills into new month",
		"from", storage.KeyMonthlyPayables(py, pm),
		"to", storage.KeyMonthlyPayables(year, month),
		"count", len(prev.Payables))
	return MonthLoad{Bills: bills.CarryForward(prev.Payables, year, month), Carried: true}, nil
}

func (s *BudgetService) snapshot(sess *session) *Snapshot {
	return &Snapshot{
		State:       sess.state,
		Payables:    sess.bills,
		CurrentWeek: sess.cal.CurrentWeekInfo(),
		Dashboard:   s.dashboard(sess),
	}
}

func (s *BudgetService) dashboard(sess *session) core.Dashboard {
	return ComputeDashboard(DashboardInput{
		Transactions: sess.state.Transactions,
		Payables:     sess.bills.Payables,
		DailyIncome:  sess.state.DailyIncome,
		Settings:     sess.state.Settings,
		Today:        sess.today,
	})
}

// mutate runs fn on a fresh session and persists what it changed. When fn
// fails nothing is saved.
func (s *BudgetService) mutate(ctx context.Context, action string, fn func(*session) error) (*Snapshot, error) {
	return s.mutateAt(ctx, s.cal, action, fn)
}

func (s *BudgetService) mutateAt(ctx context.Context, cal *week.Calculator, action string, fn func(*session) error) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(ctx, cal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	if err := fn(sess); err != nil {
		slog.InfoContext(ctx, "Budget action rejected", "action", action, "error", err)
		return nil, err
	}
	if err := s.persist(ctx, action, sess); err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// persist saves the dirty blobs of sess, publishes one message per saved key
// and logs the action.
func (s *BudgetService) persist(ctx context.Context, action string, sess *session) error {
	cal := sess.cal
	var changed []string
	if sess.stateDirty {
		sess.state.UpdatedAt = cal.Now().UTC()
		if err := storage.SaveAppState(ctx, s.store, sess.state); err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		changed = append(changed, storage.KeyAppState)
	}
	if sess.billsDirty {
		if err := storage.SaveMonthlyPayables(ctx, s.store, sess.bills); err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		changed = append(changed, storage.KeyMonthlyPayables(sess.bills.Year, sess.bills.Month))
	}

	for _, key := range changed {
		txID := ""
		if key == storage.KeyAppState {
			txID = sess.txID
		}
		s.publish(ctx, key, action, txID)
	}

	fields := log.NewFields().WithAction(action, sess.txID)
	if sess.paid != nil {
		fields.WithBill(sess.paid.ID, sess.paid.Name, sess.paid.Amount.Cents)
	}
	slog.InfoContext(ctx, "Budget action applied", append(fields.ToSlice(), "keys", changed)...)
	return nil
}

func (s *BudgetService) publish(ctx context.Context, key, action, txID string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping state changed message", "key", key)
		return
	}
	if err := s.publisher.PublishStateChanged(ctx, amqp.NewStateChangedMessage(key, action, txID)); err != nil {
		// The blob is already saved; the export worker's backlog pass catches up.
		slog.ErrorContext(ctx, "Failed to publish state changed message",
			"key", key,
			"action", action,
			"error", err)
	}
}

// Snapshot returns the current state and derived values without saving.
func (s *BudgetService) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(ctx, s.cal)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return s.snapshot(sess), nil
}

// AddIncome records an income transaction dated today and credits today's
// ledger slot.
func (s *BudgetService) AddIncome(ctx context.Context, amount core.Money, description string) (*Snapshot, error) {
	return s.mutate(ctx, "addIncome", func(sess *session) error {
		tx, err := core.NewIncome(amount, "Income", description, sess.today)
		if err != nil {
			return err
		}
		sess.state.Transactions = append(sess.state.Transactions, tx)
		if _, err := AddDailyIncome(sess.state.DailyIncome, sess.today, amount); err != nil && !errors.Is(err, ErrDayNotInWeek) {
			return err
		}
		sess.txID = tx.ID
		sess.stateDirty = true
		return nil
	})
}

// AddExpense records an expense of the given magnitude dated today.
func (s *BudgetService) AddExpense(ctx context.Context, amount core.Money, category, description string) (*Snapshot, error) {
	return s.mutate(ctx, "addExpense", func(sess *session) error {
		tx, err := core.NewExpense(amount, category, description, sess.today)
		if err != nil {
			return err
		}
		sess.state.Transactions = append(sess.state.Transactions, tx)
		sess.txID = tx.ID
		sess.stateDirty = true
		return nil
	})
}

// DeleteTransaction removes the transaction at index in history order.
func (s *BudgetService) DeleteTransaction(ctx context.Context, index int) (*Snapshot, error) {
	return s.mutate(ctx, "deleteTransaction", func(sess *session) error {
		txs := sess.state.Transactions
		if index < 0 || index >= len(txs) {
			return fmt.Errorf("%w: index %d", ErrTransactionNotFound, index)
		}
		sess.state.Transactions = append(txs[:index], txs[index+1:]...)
		sess.stateDirty = true
		return nil
	})
}

// DeleteTransactionByID removes the transaction with id.
func (s *BudgetService) DeleteTransactionByID(ctx context.Context, id string) (*Snapshot, error) {
	return s.mutate(ctx, "deleteTransaction", func(sess *session) error {
		for i, tx := range sess.state.Transactions {
			if tx.ID == id {
				sess.state.Transactions = append(sess.state.Transactions[:i], sess.state.Transactions[i+1:]...)
				sess.stateDirty = true
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	})
}

// ModifyBalance moves the starting balance so the calculated balance becomes
// newBalance.
func (s *BudgetService) ModifyBalance(ctx context.Context, newBalance core.Money) (*Snapshot, error) {
	return s.mutate(ctx, "modifyBalance", func(sess *session) error {
		current := s.dashboard(sess).CalculatedBalance
		sess.state.Settings.StartingBalance = sess.state.Settings.StartingBalance.Add(newBalance.Sub(current))
		sess.stateDirty = true
		return nil
	})
}

// UpdateGoal changes the daily goal of every work day ("daily") or spreads a
// weekly target across them ("weekly").
func (s *BudgetService) UpdateGoal(ctx context.Context, goalType string, goal core.Money) (*Snapshot, error) {
	return s.mutate(ctx, "updateGoal", func(sess *session) error {
		if goal.Cents <= 0 {
			return core.ErrInvalidAmount
		}
		switch strings.ToLower(strings.TrimSpace(goalType)) {
		case "daily":
			sess.state.Settings.StandardDailyGoal = goal
			SetDailyGoals(sess.state.DailyIncome, goal)
		case "weekly":
			SpreadWeeklyGoal(sess.state.DailyIncome, goal)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownGoalType, goalType)
		}
		sess.stateDirty = true
		return nil
	})
}

// SetCategory adds a budget category or updates the one with the same name.
func (s *BudgetService) SetCategory(ctx context.Context, c core.BudgetCategory) (*Snapshot, error) {
	return s.mutate(ctx, "setCategory", func(sess *session) error {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return core.ErrEmptyCategory
		}
		if c.Budgeted.Cents < 0 {
			return core.ErrInvalidAmount
		}
		cats := sess.state.Settings.Categories
		for i := range cats {
			if strings.EqualFold(cats[i].Name, c.Name) {
				cats[i] = c
				sess.stateDirty = true
				return nil
			}
		}
		sess.state.Settings.Categories = append(cats, c)
		sess.stateDirty = true
		return nil
	})
}

// ClearAllData wipes every blob and starts over from the default settings.
// The stored state is not read, so a blob that no longer decodes can still be
// cleared. The fresh state and the current month are saved before older
// months are deleted; if a delete fails the remaining months stay behind and
// calling ClearAllData again finishes the job.
func (s *BudgetService) ClearAllData(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.cal.Today()
	settings := cloneSettings(s.defaults)
	sess := &session{
		cal:   s.cal,
		sched: s.bills,
		today: today,
		state: core.AppState{
			Transactions: []core.Transaction{},
			DailyIncome:  BuildIncomeWeek(nil, today, settings),
			Settings:     settings,
			WeekStart:    week.MondayOf(today),
		},
		bills: core.MonthlyPayables{
			Year:     today.Year(),
			Month:    int(today.Month()),
			Payables: []core.Payable{},
		},
		stateDirty: true,
		billsDirty: true,
	}
	if err := s.persist(ctx, "clearAllData", sess); err != nil {
		return nil, err
	}

	if lister, ok := s.store.(storage.KeyLister); ok {
		current := storage.KeyMonthlyPayables(sess.bills.Year, sess.bills.Month)
		keys, err := lister.Keys(ctx, storage.PrefixMonthlyPayables)
		if err != nil {
			return nil, fmt.Errorf("clearAllData: list bill months: %w", err)
		}
		for _, k := range keys {
			if k == current {
				continue
			}
			if err := s.store.Delete(ctx, k); err != nil {
				return nil, fmt.Errorf("clearAllData: delete %s: %w", k, err)
			}
		}
	}
	return s.snapshot(sess), nil
}

// AddBill schedules a new bill in the current month.
func (s *BudgetService) AddBill(ctx context.Context, spec BillSpec) (*Snapshot, error) {
	return s.mutate(ctx, "addBill", func(sess *session) error {
		if _, err := sess.sched.AddBill(&sess.bills, spec); err != nil {
			return err
		}
		sess.billsDirty = true
		return nil
	})
}

// PayBill records a payment of the bill with id and the matching expense.
func (s *BudgetService) PayBill(ctx context.Context, id string) (*Snapshot, error) {
	return s.mutate(ctx, "payBill", func(sess *session) error {
		return s.payBill(sess, id)
	})
}

// MarkBillAsPaid pays the bill whose name matches billName.
func (s *BudgetService) MarkBillAsPaid(ctx context.Context, billName string) (*Snapshot, error) {
	return s.mutate(ctx, "markBillAsPaid", func(sess *session) error {
		p, ok := FindByName(sess.bills.Payables, billName)
		if !ok {
			return fmt.Errorf("%w: %q", ErrPayableNotFound, billName)
		}
		return s.payBill(sess, p.ID)
	})
}

func (s *BudgetService) payBill(sess *session, id string) error {
	p, err := sess.sched.PayBill(&sess.bills, id)
	if err != nil {
		return err
	}
	sess.billsDirty = true
	sess.paid = &p

	// Free bills change state but leave no money trail.
	if p.Amount.Cents <= 0 {
		return nil
	}
	tx, err := core.NewExpense(p.Amount, BillsCategory, "Payment: "+p.Name, sess.today)
	if err != nil {
		return err
	}
	tx.BillID = p.ID
	sess.state.Transactions = append(sess.state.Transactions, tx)
	sess.txID = tx.ID
	sess.stateDirty = true
	return nil
}

// MarkOverdue moves the bill with id to its fallback week.
func (s *BudgetService) MarkOverdue(ctx context.Context, id string) (*Snapshot, error) {
	return s.mutate(ctx, "markOverdue", func(sess *session) error {
		if _, err := sess.sched.MarkOverdue(&sess.bills, id); err != nil {
			return err
		}
		sess.billsDirty = true
		return nil
	})
}

// DeleteBill removes the bill whose name matches billName.
func (s *BudgetService) DeleteBill(ctx context.Context, billName string) (*Snapshot, error) {
	return s.mutate(ctx, "deleteBill", func(sess *session) error {
		p, ok := FindByName(sess.bills.Payables, billName)
		if !ok {
			return fmt.Errorf("%w: %q", ErrPayableNotFound, billName)
		}
		if _, err := DeleteBill(&sess.bills, p.ID); err != nil {
			return err
		}
		sess.billsDirty = true
		return nil
	})
}

// DeleteBillByID removes the bill with id.
func (s *BudgetService) DeleteBillByID(ctx context.Context, id string) (*Snapshot, error) {
	return s.mutate(ctx, "deleteBill", func(sess *session) error {
		if _, err := DeleteBill(&sess.bills, id); err != nil {
			return err
		}
		sess.billsDirty = true
		return nil
	})
}

// ToggleWorkDay flips the work-day flag of a day in the current week.
func (s *BudgetService) ToggleWorkDay(ctx context.Context, date core.Date) (*Snapshot, error) {
	return s.mutate(ctx, "toggleWorkDay", func(sess *session) error {
		if _, err := ToggleWorkDay(sess.state.DailyIncome, date, sess.state.Settings.StandardDailyGoal); err != nil {
			return err
		}
		sess.stateDirty = true
		return nil
	})
}

// AddDailyIncome credits a day of the current week without recording a
// transaction.
func (s *BudgetService) AddDailyIncome(ctx context.Context, date core.Date, amount core.Money) (*Snapshot, error) {
	return s.mutate(ctx, "addDailyIncome", func(sess *session) error {
		if _, err := AddDailyIncome(sess.state.DailyIncome, date, amount); err != nil {
			return err
		}
		sess.stateDirty = true
		return nil
	})
}

func cloneSettings(s core.Settings) core.Settings {
	out := s
	out.Categories = append([]core.BudgetCategory{}, s.Categories...)
	if s.WorkDays != nil {
		out.WorkDays = make(map[string]bool, len(s.WorkDays))
		for k, v := range s.WorkDays {
			out.WorkDays[k] = v
		}
	}
	return out
}
