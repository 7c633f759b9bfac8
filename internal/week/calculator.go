// Package week converts calendar time into operational weeks.
//
// An operational week runs Monday through Saturday; Sunday never belongs to a
// week. Weeks are numbered per month, and a month whose first week starts in
// the previous month continues that month's numbering.
package week

import (
	"time"

	"budgetweek/internal/core"
)

// maxLookback bounds the backward walk used to continue week numbering.
const maxLookback = 24

// OperationalWeek is one Monday-Saturday interval of a month.
type OperationalWeek struct {
	WeekNumber    int       `json:"weekNumber"`
	StartDate     core.Date `json:"startDate"`
	EndDate       core.Date `json:"endDate"`
	IsCurrentWeek bool      `json:"isCurrentWeek"`
	StartInMonth  bool      `json:"startInMonth"`
	EndInMonth    bool      `json:"endInMonth"`
}

// Contains reports whether d falls inside the week's Monday-Saturday span.
func (w OperationalWeek) Contains(d core.Date) bool {
	return !d.Before(w.StartDate) && !d.After(w.EndDate)
}

// Calculator answers week questions relative to a reference time zone.
type Calculator struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Calculator for loc. A nil loc means UTC.
func New(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc, now: time.Now}
}

// WithClock returns a copy of c that reads "now" from fn.
func (c *Calculator) WithClock(fn func() time.Time) *Calculator {
	cp := *c
	cp.now = fn
	return &cp
}

// Location returns the reference time zone.
func (c *Calculator) Location() *time.Location { return c.loc }

// Now returns the current instant in the reference zone.
func (c *Calculator) Now() time.Time { return c.now().In(c.loc) }

// Today returns the calendar date of "now" in the reference zone.
func (c *Calculator) Today() core.Date {
	return core.DateOf(c.Now())
}

// MondayOf returns the Monday on or before d. Sunday rolls back six days.
func MondayOf(d core.Date) core.Date {
	d = core.DateOf(d.Time)
	wd := int(d.Weekday())
	if wd == int(time.Sunday) {
		return d.AddDays(-6)
	}
	return d.AddDays(-(wd - int(time.Monday)))
}

// SaturdayOf returns the Saturday closing d's operational week.
func SaturdayOf(d core.Date) core.Date {
	return MondayOf(d).AddDays(5)
}

// InWeek reports whether d lies in the Monday-Saturday week starting at monday.
func InWeek(d, monday core.Date) bool {
	return !d.Before(monday) && !d.After(monday.AddDays(5))
}

func firstOfMonth(year, month int) core.Date {
	return core.NewDate(year, month, 1)
}

func lastOfMonth(year, month int) core.Date {
	// Day 0 of the next month is the last day of this one.
	return core.DateOf(time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC))
}

// DaysIn returns the number of days of the month.
func DaysIn(year, month int) int {
	return lastOfMonth(year, month).Day()
}

func prevMonth(year, month int) (int, int) {
	if month <= 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func nextMonth(year, month int) (int, int) {
	if month >= 12 {
		return year + 1, 1
	}
	return year, month + 1
}

func startsOnMonday(year, month int) bool {
	return firstOfMonth(year, month).Weekday() == time.Monday
}

// weekCount is the number of weeks MonthWeeks emits for the month.
func weekCount(year, month int) int {
	last := lastOfMonth(year, month)
	n := 0
	for ws := MondayOf(firstOfMonth(year, month)); !ws.After(last); ws = ws.AddDays(7) {
		n++
	}
	return n
}

// firstWeekNumber resolves where the month's numbering starts. Instead of
// recursing month by month it walks back to the closest month that starts on
// a Monday, then replays the counts forward.
func firstWeekNumber(year, month int) int {
	if startsOnMonday(year, month) {
		return 1
	}

	type ym struct{ y, m int }
	var chain []ym
	y, m := prevMonth(year, month)
	for i := 0; i < maxLookback; i++ {
		chain = append(chain, ym{y, m})
		if startsOnMonday(y, m) {
			break
		}
		y, m = prevMonth(y, m)
	}

	start := 1
	for i := len(chain) - 1; i >= 0; i-- {
		last := start + weekCount(chain[i].y, chain[i].m) - 1
		if i == 0 {
			return last + 1
		}
		ny, nm := nextMonth(chain[i].y, chain[i].m)
		if startsOnMonday(ny, nm) {
			start = 1
		} else {
			start = last + 1
		}
	}
	return start
}

// MonthWeeks returns every operational week overlapping the month, in order.
func (c *Calculator) MonthWeeks(year, month int) []OperationalWeek {
	// Normalize out-of-range months the way time.Date does.
	norm := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	year, month = norm.Year(), int(norm.Month())

	first := firstOfMonth(year, month)
	last := lastOfMonth(year, month)
	today := c.Today()

	weeks := make([]OperationalWeek, 0, 6)
	num := firstWeekNumber(year, month)
	for ws := MondayOf(first); !ws.After(last); ws = ws.AddDays(7) {
		we := ws.AddDays(5)
		w := OperationalWeek{
			WeekNumber:   num,
			StartDate:    ws,
			EndDate:      we,
			StartInMonth: int(ws.Month()) == month && ws.Year() == year,
			EndInMonth:   int(we.Month()) == month && we.Year() == year,
		}
		w.IsCurrentWeek = w.Contains(today)
		weeks = append(weeks, w)
		num++
	}
	return weeks
}

// CurrentWeekInfo returns the week containing today. On Sundays, which no week
// contains, it falls back to week 1 spanning the Monday-Saturday just past.
func (c *Calculator) CurrentWeekInfo() OperationalWeek {
	today := c.Today()
	for _, w := range c.MonthWeeks(today.Year(), int(today.Month())) {
		if w.Contains(today) {
			return w
		}
	}
	start := MondayOf(today)
	return OperationalWeek{
		WeekNumber:    1,
		StartDate:     start,
		EndDate:       start.AddDays(5),
		IsCurrentWeek: true,
		StartInMonth:  int(start.Month()) == int(today.Month()),
		EndInMonth:    int(start.AddDays(5).Month()) == int(today.Month()),
	}
}

// WeekNumberOf returns the continued number of the week whose Monday is
// MondayOf(d) within d's month. Unlike CurrentWeekInfo it gives a Sunday the
// number of the week just past.
func (c *Calculator) WeekNumberOf(d core.Date) int {
	monday := MondayOf(d)
	for _, w := range c.MonthWeeks(d.Year(), int(d.Month())) {
		if w.StartDate.Equal(monday) {
			return w.WeekNumber
		}
	}
	return 1
}

// AssignWeekForMonthlyPayable returns the number of the first week of the
// month containing dueDate, or 1 when none does.
func (c *Calculator) AssignWeekForMonthlyPayable(dueDate core.Date, year, month int) int {
	for _, w := range c.MonthWeeks(year, month) {
		if w.Contains(dueDate) {
			return w.WeekNumber
		}
	}
	return 1
}

// DueDateInMonth places a day-of-month inside the month, clamping days past the
// end (a 31st in February lands on the 28th/29th).
func DueDateInMonth(day, year, month int) core.Date {
	if day < 1 {
		day = 1
	}
	if n := DaysIn(year, month); day > n {
		day = n
	}
	return core.NewDate(year, month, day)
}
