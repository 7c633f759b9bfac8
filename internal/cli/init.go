// Package cli holds the start-up steps shared by the budgetweek binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetweek/internal/config"
	"budgetweek/internal/log"
	"budgetweek/internal/services"
	"budgetweek/internal/storage"
	"budgetweek/internal/week"
)

// LoadEnvFile loads a .env file for local development. A missing file is not
// an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.ConfigFromEnv(component))
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads the environment configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// NewBudgetService wires the budget service from config: the calendar runs in
// the configured time zone and the settings file seeds a fresh store.
func NewBudgetService(cfg *config.Config, store storage.Store, publisher services.Publisher) (*services.BudgetService, error) {
	defaults, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return nil, err
	}
	return services.NewBudgetService(store, publisher, week.New(cfg.Location()), defaults), nil
}

// Exit logs err and terminates the process.
func Exit(ctx context.Context, logger *log.Logger, msg string, err error) {
	logger.ErrorContext(ctx, msg, log.FieldError, err.Error())
	os.Exit(1)
}
