package week

import "budgetweek/internal/core"

// Period is one half of a month for twice-monthly bills.
type Period struct {
	Name         core.Period `json:"name"`
	FirstDay     int         `json:"firstDay"`
	LastDay      int         `json:"lastDay"`
	DueWeek      int         `json:"dueWeek"`
	FallbackWeek int         `json:"fallbackWeek"`
}

// Schedule is the pair of periods of a month.
type Schedule [2]Period

// Lookup returns the period with the given name; anything but "second" is the
// first half.
func (s Schedule) Lookup(name core.Period) Period {
	if name == core.SecondHalf {
		return s[1]
	}
	return s[0]
}

// BiweeklySchedule returns the fixed two-period policy for the month: days
// 1-15 are due in week 1 (fallback 2), days 16-end in week 3 (fallback 4, or 5
// when the month has at least five weeks). Week numbers never exceed the
// month's week count.
func (c *Calculator) BiweeklySchedule(year, month int) Schedule {
	n := len(c.MonthWeeks(year, month))
	clamp := func(w int) int {
		if n > 0 && w > n {
			return n
		}
		return w
	}

	secondFallback := 4
	if n >= 5 {
		secondFallback = 5
	}

	return Schedule{
		{
			Name:         core.FirstHalf,
			FirstDay:     1,
			LastDay:      15,
			DueWeek:      clamp(1),
			FallbackWeek: clamp(2),
		},
		{
			Name:         core.SecondHalf,
			FirstDay:     16,
			LastDay:      DaysIn(year, month),
			DueWeek:      clamp(3),
			FallbackWeek: clamp(secondFallback),
		},
	}
}
