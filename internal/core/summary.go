package core

// CategorySpend is a budget category with its derived spend.
type CategorySpend struct {
	Name        string  `json:"name"`
	Budgeted    Money   `json:"budgeted"`
	Spent       Money   `json:"spent"`
	Remaining   Money   `json:"remaining"`
	PercentUsed float64 `json:"percentUsed"`
	Color       string  `json:"color,omitempty"`
}

// Dashboard is every derived value the UI displays for the current week.
type Dashboard struct {
	WeekStart Date `json:"weekStart"`
	WeekEnd   Date `json:"weekEnd"`

	WeeklyEarned Money   `json:"weeklyEarned"`
	WeeklyGoal   Money   `json:"weeklyGoal"`
	GoalProgress float64 `json:"goalProgress"`

	TodayIncome   Money   `json:"todayIncome"`
	TodayGoal     Money   `json:"todayGoal"`
	TodayProgress float64 `json:"todayProgress"`

	WorkDays                   int   `json:"workDays"`
	RemainingWorkDays          int   `json:"remainingWorkDays"`
	PotentialRemainingEarnings Money `json:"potentialRemainingEarnings"`

	CurrentWeekExpenses  Money `json:"currentWeekExpenses"`
	TotalWeeklyPayables  Money `json:"totalWeeklyPayables"`
	TotalPendingPayables Money `json:"totalPendingPayables"`

	ThisWeekProjectedSavings Money `json:"thisWeekProjectedSavings"`
	CalculatedBalance        Money `json:"calculatedBalance"`
	FutureBalance            Money `json:"futureBalance"`

	TotalIncome   Money `json:"totalIncome"`
	TotalExpenses Money `json:"totalExpenses"`

	Categories []CategorySpend `json:"categories"`
}
