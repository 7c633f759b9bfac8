package services

import "errors"

var (
	ErrPayableNotFound     = errors.New("payable not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPayableCompleted    = errors.New("payable already completed")
	ErrNoPaymentDue        = errors.New("no payment due for this cycle")
	ErrInvalidTransition   = errors.New("invalid payable transition")
	ErrDayNotInWeek        = errors.New("date is not in the current income week")
	ErrUnknownGoalType     = errors.New("unknown goal type")
	ErrUnknownAction       = errors.New("unknown action")
)
