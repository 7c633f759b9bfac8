package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"budgetweek/internal/config"
	"budgetweek/internal/core"
	"budgetweek/internal/services"
)

// monthFlags adds --year and --month defaulting to the current month.
func monthFlags(cmd *cobra.Command, year, month *int) {
	cmd.Flags().IntVar(year, "year", 0, "Year (default: current)")
	cmd.Flags().IntVar(month, "month", 0, "Month 1-12 (default: current)")
}

func resolveMonth(today core.Date, year, month int) (int, int, error) {
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month %d out of range", month)
	}
	return year, month, nil
}

func newWeeksCmd(a *app) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "Operational weeks of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			cal := budget.Calculator()
			y, m, err := resolveMonth(cal.Today(), year, month)
			if err != nil {
				return err
			}
			weeks := cal.MonthWeeks(y, m)
			if a.jsonOut {
				return a.printJSON(weeks)
			}

			rows := make([][]string, 0, len(weeks))
			for _, w := range weeks {
				current := ""
				if w.IsCurrentWeek {
					current = "*"
				}
				rows = append(rows, []string{
					strconv.Itoa(w.WeekNumber),
					w.StartDate.String(),
					w.EndDate.String(),
					current,
				})
			}
			return a.printTable([]string{"WEEK", "START", "END", "CURRENT"}, rows)
		},
	}
	monthFlags(cmd, &year, &month)
	return cmd
}

func newScheduleCmd(a *app) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Twice-monthly bill schedule of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			cal := budget.Calculator()
			y, m, err := resolveMonth(cal.Today(), year, month)
			if err != nil {
				return err
			}
			sched := cal.BiweeklySchedule(y, m)
			if a.jsonOut {
				return a.printJSON(sched)
			}

			rows := make([][]string, 0, len(sched))
			for _, p := range sched {
				rows = append(rows, []string{
					string(p.Name),
					fmt.Sprintf("%d-%d", p.FirstDay, p.LastDay),
					strconv.Itoa(p.DueWeek),
					strconv.Itoa(p.FallbackWeek),
				})
			}
			return a.printTable([]string{"PERIOD", "DAYS", "DUE WEEK", "FALLBACK"}, rows)
		},
	}
	monthFlags(cmd, &year, &month)
	return cmd
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "This week's figures and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := budget.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			d := snap.Dashboard
			if a.jsonOut {
				return a.printJSON(d)
			}

			rows := [][]string{
				{"Week", fmt.Sprintf("%s - %s", d.WeekStart, d.WeekEnd)},
				{"Earned", fmt.Sprintf("%s / %s (%.0f%%)", d.WeeklyEarned, d.WeeklyGoal, d.GoalProgress)},
				{"Today", fmt.Sprintf("%s / %s", d.TodayIncome, d.TodayGoal)},
				{"Work days left", strconv.Itoa(d.RemainingWorkDays)},
				{"Week expenses", d.CurrentWeekExpenses.String()},
				{"Weekly bills", d.TotalWeeklyPayables.String()},
				{"Pending bills", d.TotalPendingPayables.String()},
				{"Projected savings", d.ThisWeekProjectedSavings.String()},
				{"Balance", d.CalculatedBalance.String()},
				{"Future balance", d.FutureBalance.String()},
			}
			for _, c := range d.Categories {
				rows = append(rows, []string{"  " + c.Name, fmt.Sprintf("%s / %s", c.Spent, c.Budgeted)})
			}
			return a.printTable([]string{"ITEM", "VALUE"}, rows)
		},
	}
}

func newBillsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bills",
		Short: "Bills of the current month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := budget.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			bills := snap.Payables.Payables
			if a.jsonOut {
				return a.printJSON(bills)
			}

			rows := make([][]string, 0, len(bills))
			for _, p := range bills {
				rows = append(rows, []string{
					p.Name,
					p.Amount.String(),
					string(p.Frequency),
					string(p.Status),
					fmt.Sprintf("%d/%d", p.PaidCount, p.MaxPayments),
					strconv.Itoa(p.AssignedWeek),
				})
			}
			return a.printTable([]string{"NAME", "AMOUNT", "FREQUENCY", "STATUS", "PAID", "WEEK"}, rows)
		},
	}
}

func newPayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <bill name>",
		Short: "Record a payment of a bill",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			snap, err := budget.MarkBillAsPaid(cmd.Context(), name)
			if err != nil {
				return err
			}
			if p, ok := services.FindByName(snap.Payables.Payables, name); ok {
				fmt.Fprintf(a.out, "Paid %s: %s (%d/%d)\n", p.Name, p.Status, p.PaidCount, p.MaxPayments)
			}
			return nil
		},
	}
}

func newRolloverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Run the weekly and monthly rollover now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := services.NewRolloverProcessor(budget).ProcessRollover(cmd.Context(), budget.Calculator().Now())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			fmt.Fprintf(a.out, "week rolled: %v, month carried: %v, weekly reset: %d, moved to fallback: %d\n",
				res.WeekRolled, res.MonthCarried, res.WeeklyReset, res.MovedToFallback)
			return nil
		},
	}
}

func newActionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "action <name> [key=value...]",
		Short: "Run an assistant action",
		Long:  "Run an assistant action by name. Known actions: " + strings.Join(services.Actions, ", "),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			req := services.ActionRequest{Action: args[0], Args: map[string]string{}}
			for _, kv := range args[1:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("argument %q is not key=value", kv)
				}
				req.Args[k] = v
			}
			snap, err := budget.Dispatch(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s done, balance %s\n", req.Action, snap.Dashboard.CalculatedBalance)
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	settings := &cobra.Command{
		Use:   "settings",
		Short: "Settings seed file",
	}
	settings.AddCommand(&cobra.Command{
		Use:   "export <path>",
		Short: "Write the current settings as a TOML seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := budget.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if err := config.SaveSettings(args[0], snap.State.Settings); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Settings written to %s\n", args[0])
			return nil
		},
	})
	return settings
}
