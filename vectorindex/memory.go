package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is a brute-force cosine index held in process memory. Contents are
// lost on restart.
type Memory struct {
	mu      sync.RWMutex
	dims    int
	order   []string
	records map[string]Record
}

// NewMemory returns an empty index.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// EnsureIndex fixes the vector dimension on first use.
func (m *Memory) EnsureIndex(_ context.Context, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dims == 0 {
		m.dims = dimensions
		return nil
	}
	if m.dims != dimensions {
		return fmt.Errorf("%w: index has %d, requested %d", ErrDimensionMismatch, m.dims, dimensions)
	}
	return nil
}

// Upsert implements Index.
func (m *Memory) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if m.dims == 0 {
			m.dims = len(r.Vector)
		}
		if len(r.Vector) != m.dims {
			return fmt.Errorf("%w: record %s has %d, index has %d", ErrDimensionMismatch, r.ID, len(r.Vector), m.dims)
		}
	}
	for _, r := range records {
		if _, exists := m.records[r.ID]; !exists {
			m.order = append(m.order, r.ID)
		}
		r.Vector = append([]float32(nil), r.Vector...)
		m.records[r.ID] = r
	}
	return nil
}

// Query implements Index. Ties keep insertion order.
func (m *Memory) Query(_ context.Context, vector []float32, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 || topK <= 0 {
		return nil, nil
	}
	if len(vector) != m.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vector), m.dims)
	}

	matches := make([]Match, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		matches = append(matches, Match{
			ID:         r.ID,
			Source:     r.Source,
			ChunkIndex: r.ChunkIndex,
			Content:    r.Content,
			Score:      Cosine(vector, r.Vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close implements Index.
func (m *Memory) Close(context.Context) error { return nil }
