package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable Store. Blobs live in kv_store; the export
// bookkeeping lives in ledger_exports.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements Store.
func (r *SQLiteRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return blob, nil
}

// Save implements Store. Writing an existing key replaces its blob.
func (r *SQLiteRepository) Save(ctx context.Context, key string, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Blob saved to SQLite",
		"key", key,
		"bytes", len(blob))

	return nil
}

// Delete implements Store. Deleting a missing key is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix in lexical order.
func (r *SQLiteRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM kv_store WHERE substr(key, 1, ?) = ? ORDER BY key`,
		len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ExportStatus implements ExportTracker.
func (r *SQLiteRepository) ExportStatus(ctx context.Context, ids []string) (map[string]ExportRecord, error) {
	out := make(map[string]ExportRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, status, attempts, sheets_ref, updated_at
		FROM ledger_exports
		WHERE transaction_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("select export status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.TransactionID, &rec.Status, &rec.Attempts, &rec.SheetsRef, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan export status: %w", err)
		}
		out[rec.TransactionID] = rec
	}
	return out, rows.Err()
}

// MarkExportStarted implements ExportTracker.
func (r *SQLiteRepository) MarkExportStarted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_exports (transaction_id, status, attempts, sheets_ref, updated_at)
		VALUES (?, ?, 0, '', ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		id, ExportStatusAppending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark export started for %s: %w", id, err)
	}
	return nil
}

// MarkExported implements ExportTracker.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id, ref string) error {
	return r.upsertExport(ctx, id, ExportStatusExported, ref)
}

// MarkExportError implements ExportTracker.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	return r.upsertExport(ctx, id, ExportStatusError, "")
}

func (r *SQLiteRepository) upsertExport(ctx context.Context, id, status, ref string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_exports (transaction_id, status, attempts, sheets_ref, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			status = excluded.status,
			attempts = ledger_exports.attempts + 1,
			sheets_ref = excluded.sheets_ref,
			updated_at = excluded.updated_at`,
		id, status, ref, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark export %s for %s: %w", status, id, err)
	}
	return nil
}
