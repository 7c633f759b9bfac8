package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"budgetweek/internal/backend"
	"budgetweek/internal/cli"
	"budgetweek/internal/log"
	"budgetweek/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRollover)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.InfoContext(ctx, "Starting rollover-worker")

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(ctx, logger, "Invalid configuration", err)
	}

	factory := backend.NewFactory(logger)
	stores, err := factory.OpenStores(ctx, cfg, false)
	if err != nil {
		cli.Exit(ctx, logger, "Failed to open store", err)
	}
	defer stores.Close()

	amqpClient, err := factory.OpenAMQP(ctx, cfg)
	if err != nil {
		logger.WarnContext(ctx, "AMQP unavailable, continuing without events", log.FieldError, err.Error())
		amqpClient = nil
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	budget, err := cli.NewBudgetService(cfg, stores.Store, backend.Publisher(amqpClient))
	if err != nil {
		cli.Exit(ctx, logger, "Failed to load settings", err)
	}
	processor := services.NewRolloverProcessor(budget)

	run := func(now time.Time) {
		if _, err := processor.ProcessRollover(ctx, now); err != nil {
			logger.ErrorContext(ctx, "Rollover failed", log.FieldOperation, log.OpRollover, log.FieldError, err.Error())
		}
	}

	logger.InfoContext(ctx, "Running initial rollover...", log.FieldOperation, log.OpStartup)
	run(time.Now())

	scheduler := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := scheduler.AddFunc(cfg.RolloverSchedule, func() { run(time.Now()) }); err != nil {
		cli.Exit(ctx, logger, "Invalid rollover schedule", err)
	}
	scheduler.Start()
	logger.InfoContext(ctx, "Rollover scheduled",
		"schedule", cfg.RolloverSchedule,
		"timezone", cfg.Location().String())

	<-ctx.Done()
	logger.InfoContext(context.Background(), "Shutting down rollover-worker...", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	select {
	case <-scheduler.Stop().Done():
		logger.InfoContext(context.Background(), "Rollover-worker shutdown complete")
	case <-shutdownCtx.Done():
		logger.WarnContext(context.Background(), "Shutdown timeout reached")
	}
}
