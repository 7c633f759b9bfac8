package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used in local mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	exports map[string]ExportRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		exports: make(map[string]ExportRecord),
	}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// Keys lists stored keys with the given prefix in lexical order.
func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) ExportStatus(_ context.Context, ids []string) (map[string]ExportRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ExportRecord, len(ids))
	for _, id := range ids {
		if r, ok := m.exports[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkExportStarted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.exports[id]
	r.TransactionID = id
	r.Status = ExportStatusAppending
	m.exports[id] = r
	return nil
}

func (m *MemoryStore) MarkExported(_ context.Context, id, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.exports[id]
	r.TransactionID = id
	r.Status = ExportStatusExported
	r.Attempts++
	r.SheetsRef = ref
	m.exports[id] = r
	return nil
}

func (m *MemoryStore) MarkExportError(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.exports[id]
	r.TransactionID = id
	r.Status = ExportStatusError
	r.Attempts++
	m.exports[id] = r
	return nil
}
