// Package backend assembles storage, ledger and messaging from configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetweek/internal/amqp"
	"budgetweek/internal/cache"
	"budgetweek/internal/config"
	"budgetweek/internal/log"
	"budgetweek/internal/services"
	"budgetweek/internal/sheets"
	"budgetweek/internal/sheets/google"
	"budgetweek/internal/sheets/memory"
	"budgetweek/internal/storage"
)

// StoreType selects where the budget blobs live.
type StoreType string

const (
	SQLiteStore StoreType = "sqlite"
	MemoryStore StoreType = "memory"
)

// IsValid returns true if the store type is known.
func (t StoreType) IsValid() bool {
	return t == SQLiteStore || t == MemoryStore
}

// LedgerType selects where exported transactions are appended.
type LedgerType string

const (
	SheetsLedger LedgerType = "sheets"
	MemoryLedger LedgerType = "memory"
)

// IsValid returns true if the ledger type is known.
func (t LedgerType) IsValid() bool {
	return t == SheetsLedger || t == MemoryLedger
}

// CleanupFunc releases a resource opened by the factory.
type CleanupFunc func() error

// Stores is an opened blob store with its export bookkeeping.
type Stores struct {
	// Store is what services read and write; it may be a cache in front of
	// the durable store.
	Store   storage.Store
	Tracker storage.ExportTracker
	Caches  *cache.Manager

	cleanups []CleanupFunc
}

// Ready reports whether the store answers reads.
func (s *Stores) Ready(ctx context.Context) error {
	_, err := s.Store.Load(ctx, storage.KeyAppState)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Close releases everything the factory opened, newest first.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory opens backends described by a config.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(log.ComponentStorage)}
}

// OpenStores opens the configured blob store. With cached set and a positive
// cache size the store is fronted by an LRU registered with the returned
// cache manager. Processes that read blobs another process writes must not
// cache.
func (f *Factory) OpenStores(ctx context.Context, cfg *config.Config, cached bool) (*Stores, error) {
	res := &Stores{Caches: cache.NewManager()}

	var (
		durable storage.Store
		tracker storage.ExportTracker
	)
	switch StoreType(cfg.DataBackend) {
	case SQLiteStore:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.cleanups = append(res.cleanups, repo.Close)
		durable, tracker = repo, repo
		f.logger.InfoContext(ctx, "Initialized SQLite store", "db_path", cfg.SQLiteDBPath)
	case MemoryStore:
		mem := storage.NewMemoryStore()
		durable, tracker = mem, mem
		f.logger.InfoContext(ctx, "Initialized memory store")
	default:
		return nil, fmt.Errorf("invalid data backend: %s", cfg.DataBackend)
	}

	res.Store, res.Tracker = durable, tracker
	if cached && cfg.CacheSize > 0 {
		blobs := cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL)
		res.Caches.Register("blobs", blobs)
		res.Store = storage.NewCachedStore(durable, blobs)
		f.logger.InfoContext(ctx, "Enabled blob cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL.String())
	}
	return res, nil
}

// OpenLedger opens the configured export ledger.
func (f *Factory) OpenLedger(ctx context.Context, cfg *config.Config) (sheets.LedgerWriter, error) {
	switch LedgerType(cfg.LedgerBackend) {
	case SheetsLedger:
		client, err := google.New(ctx, google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets ledger", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return client, nil
	case MemoryLedger:
		f.logger.InfoContext(ctx, "Initialized memory ledger")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("invalid ledger backend: %s", cfg.LedgerBackend)
}

// OpenAMQP connects to the broker. It returns a nil client and no error when
// no broker URL is configured.
func (f *Factory) OpenAMQP(ctx context.Context, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP disabled - state changes will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// Publisher adapts an optional AMQP client to the service's publisher, so a
// nil client disables publishing instead of becoming a non-nil interface.
func Publisher(client *amqp.Client) services.Publisher {
	if client == nil {
		return nil
	}
	return client
}
