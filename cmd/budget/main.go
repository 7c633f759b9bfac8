package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetweek/internal/backend"
	"budgetweek/internal/cli"
	apphttp "budgetweek/internal/http"
	"budgetweek/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(ctx, logger, "Invalid configuration", err)
	}

	factory := backend.NewFactory(logger)
	stores, err := factory.OpenStores(ctx, cfg, true)
	if err != nil {
		cli.Exit(ctx, logger, "Failed to open store", err)
	}
	defer stores.Close()

	// The broker is optional for the API: without it the export worker
	// catches up from its periodic scan.
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

	srv := apphttp.NewServer(":"+cfg.Port, budget, logger, stores.Ready)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting budgetweek server",
			"port", cfg.Port,
			"data_backend", cfg.DataBackend,
			"timezone", cfg.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.CacheSize > 0 {
		g.Go(func() error {
			err := stores.Caches.Run(gctx, cfg.CacheCleanupInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		cli.Exit(context.Background(), logger, "Server error", err)
	}

	stats := srv.SecurityStats()
	logger.InfoContext(context.Background(), "Server stopped gracefully",
		"rate_limit_hits", stats.RateLimitHits,
		"invalid_ip_attempts", stats.InvalidIPAttempts,
		"suspicious_requests", stats.SuspiciousRequests)
}
