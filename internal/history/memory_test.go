package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memoryRepository is an in-process Repository used by the tests.
type memoryRepository struct {
	mu      sync.Mutex
	seq     int
	records map[string]Record
	fail    error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[string]Record)}
}

func (m *memoryRepository) Insert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return Record{}, m.fail
	}
	m.seq++
	rec.ID = fmt.Sprintf("rec-%d", m.seq)
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memoryRepository) sorted() []Record {
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScannedAt.After(out[j].ScannedAt) })
	return out
}

func (m *memoryRepository) List(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := m.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.records, id)
	return nil
}

func (m *memoryRepository) RecentBarcodes(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	seen := make(map[string]bool)
	var out []string
	for _, rec := range m.sorted() {
		if seen[rec.Barcode] {
			continue
		}
		seen[rec.Barcode] = true
		out = append(out, rec.Barcode)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryRepository) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	var n int64
	for id, rec := range m.records {
		if rec.ScannedAt.Before(cutoff) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) Ping(context.Context) error {
	if m.fail != nil {
		return m.fail
	}
	return nil
}

var errStoreDown = errors.New("store down")
