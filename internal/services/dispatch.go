package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"budgetweek/internal/core"
)

// Assistant action names.
const (
	ActionAddIncome         = "addIncome"
	ActionAddExpense        = "addExpense"
	ActionMarkBillAsPaid    = "markBillAsPaid"
	ActionDeleteTransaction = "deleteTransaction"
	ActionModifyBalance     = "modifyBalance"
	ActionUpdateGoal        = "updateGoal"
	ActionDeleteBill        = "deleteBill"
	ActionClearAllData      = "clearAllData"
)

// Actions lists every action Dispatch understands.
var Actions = []string{
	ActionAddIncome,
	ActionAddExpense,
	ActionMarkBillAsPaid,
	ActionDeleteTransaction,
	ActionModifyBalance,
	ActionUpdateGoal,
	ActionDeleteBill,
	ActionClearAllData,
}

// ActionRequest is a named assistant action with string arguments, as
// produced by the natural-language layer.
type ActionRequest struct {
	Action string            `json:"action"`
	Args   map[string]string `json:"args"`
}

func (r ActionRequest) arg(name string) string {
	return strings.TrimSpace(r.Args[name])
}

// Dispatch routes an assistant action to the matching operation.
func (s *BudgetService) Dispatch(ctx context.Context, req ActionRequest) (*Snapshot, error) {
	switch req.Action {
	case ActionAddIncome:
		amount, err := parseAmount(req.arg("amount"))
		if err != nil {
			return nil, err
		}
		return s.AddIncome(ctx, amount, req.arg("description"))

	case ActionAddExpense:
		amount, err := parseAmount(req.arg("amount"))
		if err != nil {
			return nil, err
		}
		return s.AddExpense(ctx, amount, req.arg("category"), req.arg("description"))

	case ActionMarkBillAsPaid:
		return s.MarkBillAsPaid(ctx, req.arg("billName"))

	case ActionDeleteTransaction:
		index, err := strconv.Atoi(req.arg("index"))
		if err != nil {
			return nil, fmt.Errorf("%w: index %q", ErrTransactionNotFound, req.arg("index"))
		}
		return s.DeleteTransaction(ctx, index)

	case ActionModifyBalance:
		balance, err := ParseSignedAmount(req.arg("newBalance"))
		if err != nil {
			return nil, err
		}
		return s.ModifyBalance(ctx, balance)

	case ActionUpdateGoal:
		goal, err := parseAmount(req.arg("newGoal"))
		if err != nil {
			return nil, err
		}
		return s.UpdateGoal(ctx, req.arg("goalType"), goal)

	case ActionDeleteBill:
		return s.DeleteBill(ctx, req.arg("billName"))

	case ActionClearAllData:
		return s.ClearAllData(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
}

func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// ParseSignedAmount parses a balance, which unlike other amounts may be zero
// or negative.
func ParseSignedAmount(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return core.Money{}, core.ErrInvalidAmount
	}
	m, err := parseAmount(s)
	if err != nil {
		// Zero is a valid balance but not a valid amount.
		if z := strings.Trim(strings.ReplaceAll(s, ",", "."), "0."); z == "" && strings.Contains(s, "0") {
			return core.Money{}, nil
		}
		return core.Money{}, err
	}
	if neg {
		m = m.Neg()
	}
	return m, nil
}
