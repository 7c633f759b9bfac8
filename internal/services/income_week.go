package services

import (
	"budgetweek/internal/core"
	"budgetweek/internal/week"
)

// BuildIncomeWeek lays out the seven Monday..Sunday slots of the week
// containing today. Prior entries with a matching date keep their amount, goal
// and work-day flag; new dates start at zero and inherit the work-day flag of
// the prior entry with the same day name, falling back to the settings.
func BuildIncomeWeek(prior []core.DailyIncomeEntry, today core.Date, settings core.Settings) []core.DailyIncomeEntry {
	monday := week.MondayOf(today)
	standard := settings.StandardDailyGoal
	if standard.Cents <= 0 {
		standard = core.DefaultStandardGoal
	}

	byDate := make(map[string]core.DailyIncomeEntry, len(prior))
	workDayByName := make(map[string]bool, len(prior))
	for _, e := range prior {
		if !e.Date.IsZero() {
			byDate[e.Date.String()] = e
		}
		if e.Day != "" {
			workDayByName[e.Day] = e.IsWorkDay
		}
	}

	entries := make([]core.DailyIncomeEntry, 7)
	for i := range entries {
		date := monday.AddDays(i)
		name := core.WeekdayNames[i]

		e, ok := byDate[date.String()]
		if !ok {
			isWork, seen := workDayByName[name]
			if !seen {
				isWork = settings.WorkDayFor(name)
			}
			e = core.DailyIncomeEntry{IsWorkDay: isWork}
		}
		e.Day = name
		e.Date = date
		if e.Amount.Cents < 0 {
			e.Amount = core.Money{}
		}
		switch {
		case !e.IsWorkDay:
			e.Goal = core.Money{}
		case e.Goal.Cents <= 0:
			e.Goal = standard
		}
		entries[i] = e
	}
	RefreshIncomeFlags(entries, today)
	return entries
}

// RefreshIncomeFlags recomputes IsToday and IsPast relative to today.
func RefreshIncomeFlags(entries []core.DailyIncomeEntry, today core.Date) {
	for i := range entries {
		entries[i].IsToday = entries[i].Date.Equal(today)
		entries[i].IsPast = entries[i].Date.Before(today)
	}
}

// IncomeWeekCurrent reports whether entries already describe the week of today.
func IncomeWeekCurrent(entries []core.DailyIncomeEntry, today core.Date) bool {
	if len(entries) != 7 {
		return false
	}
	monday := week.MondayOf(today)
	for i, e := range entries {
		if !e.Date.Equal(monday.AddDays(i)) {
			return false
		}
	}
	return true
}

func indexOfDay(entries []core.DailyIncomeEntry, date core.Date) int {
	for i := range entries {
		if entries[i].Date.Equal(date) {
			return i
		}
	}
	return -1
}

// ToggleWorkDay flips the work-day flag of date. The goal follows the flag:
// zero when off, the standard goal when on.
func ToggleWorkDay(entries []core.DailyIncomeEntry, date core.Date, standard core.Money) (core.DailyIncomeEntry, error) {
	i := indexOfDay(entries, date)
	if i < 0 {
		return core.DailyIncomeEntry{}, ErrDayNotInWeek
	}
	e := &entries[i]
	e.IsWorkDay = !e.IsWorkDay
	if e.IsWorkDay {
		e.Goal = standard
	} else {
		e.Goal = core.Money{}
	}
	return *e, nil
}

// AddDailyIncome accumulates a positive amount on date's slot.
func AddDailyIncome(entries []core.DailyIncomeEntry, date core.Date, amount core.Money) (core.DailyIncomeEntry, error) {
	if amount.Cents <= 0 {
		return core.DailyIncomeEntry{}, core.ErrInvalidAmount
	}
	i := indexOfDay(entries, date)
	if i < 0 {
		return core.DailyIncomeEntry{}, ErrDayNotInWeek
	}
	entries[i].Amount = entries[i].Amount.Add(amount)
	return entries[i], nil
}

// SetDailyGoals sets every work day's goal to goal.
func SetDailyGoals(entries []core.DailyIncomeEntry, goal core.Money) {
	for i := range entries {
		if entries[i].IsWorkDay {
			entries[i].Goal = goal
		}
	}
}

// SpreadWeeklyGoal divides a weekly target across the work days. Leftover
// cents go to the earliest days.
func SpreadWeeklyGoal(entries []core.DailyIncomeEntry, weekly core.Money) {
	var n int64
	for _, e := range entries {
		if e.IsWorkDay {
			n++
		}
	}
	if n == 0 {
		return
	}
	share, rest := weekly.Cents/n, weekly.Cents%n
	for i := range entries {
		if !entries[i].IsWorkDay {
			continue
		}
		g := share
		if rest > 0 {
			g++
			rest--
		}
		entries[i].Goal = core.Money{Cents: g}
	}
}
