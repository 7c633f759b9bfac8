package main

import (
	"context"
	"errors"
	"time"

	"budgetweek/internal/backend"
	"budgetweek/internal/cli"
	"budgetweek/internal/log"
	"budgetweek/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.InfoContext(ctx, "Starting export-worker")

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(ctx, logger, "Invalid configuration", err)
	}
	if backend.StoreType(cfg.DataBackend) == backend.MemoryStore {
		logger.WarnContext(ctx, "Memory store is private to this process; nothing written by the server will be exported")
	}

	factory := backend.NewFactory(logger)

	// Blobs are written by the server process, so the worker reads uncached.
	stores, err := factory.OpenStores(ctx, cfg, false)
	if err != nil {
		cli.Exit(ctx, logger, "Failed to open store", err)
	}
	defer stores.Close()

	ledger, err := factory.OpenLedger(ctx, cfg)
	if err != nil {
		cli.Exit(ctx, logger, "Failed to open ledger", err)
	}

	exporter := worker.NewExportWorker(stores.Store, stores.Tracker, ledger, cfg.ExportBatchSize)

	logger.InfoContext(ctx, "Performing startup export check...", log.FieldOperation, log.OpStartup)
	if err := exporter.StartupCheck(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed startup export check", log.FieldError, err.Error())
	}

	amqpClient, err := factory.OpenAMQP(ctx, cfg)
	if err != nil {
		logger.WarnContext(ctx, "AMQP unavailable, relying on periodic export", log.FieldError, err.Error())
		amqpClient = nil
	}
	if amqpClient != nil {
		defer amqpClient.Close()
		go func() {
			if err := amqpClient.ConsumeStateChanged(ctx, exporter.HandleStateChanged); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(ctx, "Message consumption failed", log.FieldError, err.Error())
			}
		}()
	}

	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(context.Background(), "Export-worker shutdown complete", log.FieldOperation, log.OpShutdown)
			return
		case <-ticker.C:
			if err := exporter.ProcessPending(ctx); err != nil {
				logger.ErrorContext(ctx, "Periodic export failed", log.FieldOperation, log.OpExport, log.FieldError, err.Error())
			}
		}
	}
}
