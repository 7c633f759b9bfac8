package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetweek/internal/core"
	"budgetweek/internal/week"
)

// RolloverResult counts what one rollover pass changed.
type RolloverResult struct {
	WeekRolled      bool `json:"weekRolled"`
	MonthCarried    bool `json:"monthCarried"`
	WeeklyReset     int  `json:"weeklyReset"`
	MovedToFallback int  `json:"movedToFallback"`
}

// RolloverProcessor applies the calendar-driven transitions: a new income
// week, bills carried into a new month, weekly bills reset and unpaid bills
// moved to their fallback week.
type RolloverProcessor struct {
	service *BudgetService
}

func NewRolloverProcessor(service *BudgetService) *RolloverProcessor {
	return &RolloverProcessor{service: service}
}

// ProcessRollover runs one pass as of now.
func (p *RolloverProcessor) ProcessRollover(ctx context.Context, now time.Time) (RolloverResult, error) {
	if p.service == nil {
		return RolloverResult{}, fmt.Errorf("processor not properly initialized")
	}

	cal := p.service.cal.WithClock(func() time.Time { return now })
	var res RolloverResult

	_, err := p.service.mutateAt(ctx, cal, "rollover", func(sess *session) error {
		res.WeekRolled = sess.weekRolled
		res.MonthCarried = sess.monthRolled
		res.WeeklyReset = sess.weeklyReset

		for _, id := range overdueBills(sess.bills, cal, sess.today) {
			if _, err := sess.sched.MarkOverdue(&sess.bills, id); err != nil {
				slog.ErrorContext(ctx, "Failed to move bill to fallback week",
					"bill_id", id,
					"error", err)
				continue
			}
			res.MovedToFallback++
			sess.billsDirty = true
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("rollover: %w", err)
	}

	slog.InfoContext(ctx, "Rollover processing complete",
		"processing_date", now.Format(core.DateLayout),
		"week_rolled", res.WeekRolled,
		"month_carried", res.MonthCarried,
		"weekly_reset", res.WeeklyReset,
		"moved_to_fallback", res.MovedToFallback)

	return res, nil
}

// overdueBills returns the pending bills whose assigned week is already
// behind today. Monthly bills carry the continued week number, biweekly bills
// the week's position in the month. Sundays belong to no week and never make a
// bill overdue.
func overdueBills(mp core.MonthlyPayables, cal *week.Calculator, today core.Date) []string {
	weeks := cal.MonthWeeks(mp.Year, mp.Month)
	position, number := 0, 0
	for i, w := range weeks {
		if w.Contains(today) {
			position, number = i+1, w.WeekNumber
			break
		}
	}
	if position == 0 {
		return nil
	}

	var ids []string
	for _, b := range mp.Payables {
		if b.Status != core.StatusPending {
			continue
		}
		switch b.Frequency {
		case core.Monthly:
			if b.AssignedWeek < number {
				ids = append(ids, b.ID)
			}
		case core.Biweekly:
			if b.AssignedWeek < position {
				ids = append(ids, b.ID)
			}
		}
	}
	return ids
}
