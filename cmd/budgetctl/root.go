package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetweek/internal/services"
)

// opener builds the budget service a command works on.
type opener func(ctx context.Context) (*services.BudgetService, func(), error)

// app is the state shared by every subcommand of one invocation.
type app struct {
	open    opener
	out     io.Writer
	jsonOut bool

	budget  *services.BudgetService
	cleanup func()
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	a := &app{open: open, out: out}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Weekly budget from the terminal",
		Long:          "Inspect operational weeks, bills and the dashboard, and record payments.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.cleanup != nil {
				a.cleanup()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newWeeksCmd(a),
		newScheduleCmd(a),
		newDashboardCmd(a),
		newBillsCmd(a),
		newPayCmd(a),
		newRolloverCmd(a),
		newActionCmd(a),
		newSettingsCmd(a),
	)
	return root
}

// service opens the budget on first use.
func (a *app) service(ctx context.Context) (*services.BudgetService, error) {
	if a.budget != nil {
		return a.budget, nil
	}
	budget, cleanup, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	a.budget, a.cleanup = budget, cleanup
	return budget, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes tab-aligned rows under headers.
func (a *app) printTable(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}
