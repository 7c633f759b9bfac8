// Command budgetctl inspects and edits the budget from the terminal.
package main

import (
	"context"
	"os"

	"budgetweek/internal/backend"
	"budgetweek/internal/cli"
	"budgetweek/internal/log"
	"budgetweek/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentCLI)

	ctx, stop := cli.SignalContext()
	defer stop()

	root := newRootCmd(openBudget(logger), os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openBudget opens the configured store and returns a budget service over it
// plus the matching cleanup.
func openBudget(logger *log.Logger) opener {
	return func(ctx context.Context) (*services.BudgetService, func(), error) {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return nil, nil, err
		}

		factory := backend.NewFactory(logger)
		stores, err := factory.OpenStores(ctx, cfg, false)
		if err != nil {
			return nil, nil, err
		}
		amqpClient, err := factory.OpenAMQP(ctx, cfg)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, continuing without events", log.FieldError, err.Error())
			amqpClient = nil
		}

		cleanup := func() {
			if amqpClient != nil {
				amqpClient.Close()
			}
			stores.Close()
		}

		budget, err := cli.NewBudgetService(cfg, stores.Store, backend.Publisher(amqpClient))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return budget, cleanup, nil
	}
}
