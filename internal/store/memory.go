package store

import (
	"context"
	"sync"

	"github.com/blockreg-labs/blockreg/internal/content"
)

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]content.Record
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]content.Record)}
}

// ListRecords returns a copy of the records of contentType.
func (m *Memory) ListRecords(ctx context.Context, contentType string) ([]content.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRecords(m.records[contentType]), nil
}

// Seed replaces the records of contentType.
func (m *Memory) Seed(ctx context.Context, contentType string, records []content.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[contentType] = cloneRecords(records)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
