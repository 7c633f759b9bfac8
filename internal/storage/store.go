// Package storage persists the budget blobs behind a key-value interface.
//
// Every piece of state lives in a JSON blob under a fixed key: the main app
// state and one blob of bills per month. Adapters only move bytes; decoding
// and defaulting happen in the typed helpers below.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"budgetweek/internal/core"
)

// KeyAppState is the key of the main state blob.
const KeyAppState = "budgetAppState"

var (
	// ErrNotFound is returned by Load when a key holds no blob.
	ErrNotFound = errors.New("blob not found")
	// ErrCorruptBlob is returned by the typed loaders when a blob is not a
	// JSON document of the expected shape. The blob is left untouched.
	ErrCorruptBlob = errors.New("corrupt blob")
)

// LoadInfo reports what a typed load found.
type LoadInfo struct {
	Found bool
	// Repaired is set when defaulting changed the record in a way that has
	// to be saved, such as filling in missing ids.
	Repaired bool
}

// Store is a key-value blob store.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// KeyLister is implemented by stores that can enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// PrefixMonthlyPayables prefixes every per-month bill key.
const PrefixMonthlyPayables = "monthlyPayables:"

// KeyMonthlyPayables is the key of the bill blob for year/month.
func KeyMonthlyPayables(year, month int) string {
	return fmt.Sprintf("%s%d-%d", PrefixMonthlyPayables, year, month)
}

// LoadAppState reads and normalizes the main blob. A missing blob yields a
// fresh default state.
func LoadAppState(ctx context.Context, s Store) (core.AppState, LoadInfo, error) {
	st := core.AppState{Settings: core.DefaultSettings()}
	found, err := loadJSON(ctx, s, KeyAppState, &st)
	if err != nil {
		return core.AppState{}, LoadInfo{}, err
	}
	if !found {
		st = core.AppState{Settings: core.DefaultSettings()}
	}
	repaired := st.Normalize()
	return st, LoadInfo{Found: found, Repaired: repaired}, nil
}

// SaveAppState writes the main blob.
func SaveAppState(ctx context.Context, s Store, st core.AppState) error {
	return saveJSON(ctx, s, KeyAppState, st)
}

// LoadMonthlyPayables reads the bills of year/month.
func LoadMonthlyPayables(ctx context.Context, s Store, year, month int) (core.MonthlyPayables, LoadInfo, error) {
	mp := core.MonthlyPayables{Year: year, Month: month}
	found, err := loadJSON(ctx, s, KeyMonthlyPayables(year, month), &mp)
	if err != nil {
		return core.MonthlyPayables{}, LoadInfo{}, err
	}
	if !found {
		mp = core.MonthlyPayables{Year: year, Month: month}
	}
	// The key is authoritative for the period.
	mp.Year, mp.Month = year, month
	repaired := mp.Normalize()
	return mp, LoadInfo{Found: found, Repaired: repaired}, nil
}

// SaveMonthlyPayables writes the bills blob of mp's month.
func SaveMonthlyPayables(ctx context.Context, s Store, mp core.MonthlyPayables) error {
	return saveJSON(ctx, s, KeyMonthlyPayables(mp.Year, mp.Month), mp)
}

func loadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	blob, err := s.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if len(blob) == 0 {
		return false, nil
	}
	// Field-level drift is absorbed by the record decoders; anything left is
	// reported so the blob is never overwritten with defaults.
	if err := json.Unmarshal(blob, v); err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrCorruptBlob, key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, s Store, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Save(ctx, key, blob); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
