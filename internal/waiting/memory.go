package waiting

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Store. Records live as long as the value.
type Memory struct {
	mu      sync.Mutex
	records map[string]map[string]Record
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{records: map[string]map[string]Record{}}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.records[r.Kind]
	if !ok {
		byKey = map[string]Record{}
		m.records[r.Kind] = byKey
	}
	r.MissingKeys = slices.Clone(r.MissingKeys)
	byKey[r.DraftKey] = r
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, kind string, draftKeys []string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, k := range draftKeys {
		if r, ok := m.records[kind][k]; ok {
			out = append(out, r)
		}
	}
	SortRecords(out)
	return out, nil
}

// WaitingOn implements Store.
func (m *Memory) WaitingOn(_ context.Context, kind string, dependencyKeys []string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records[kind] {
		if slices.ContainsFunc(r.MissingKeys, func(k string) bool { return slices.Contains(dependencyKeys, k) }) {
			out = append(out, r)
		}
	}
	SortRecords(out)
	return out, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, kind, draftKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[kind], draftKey)
	return nil
}

// DeleteOlderThan implements Store.
func (m *Memory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byKey := range m.records {
		for k, r := range byKey {
			if r.QueuedAt.Before(cutoff) {
				delete(byKey, k)
				n++
			}
		}
	}
	return n, nil
}

// Count implements Store.
func (m *Memory) Count(_ context.Context, kind string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[kind]), nil
}
