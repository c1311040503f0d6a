package store

import (
	"context"
	"sync"

	"github.com/effective-security/agentcore/resources"
)

// MemoryStore keeps the record set in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	rs    *resources.RecordSet
	saves int
}

// NewMemoryStore returns an in-memory store, optionally seeded with rs.
func NewMemoryStore(rs *resources.RecordSet) *MemoryStore {
	m := &MemoryStore{}
	if rs != nil {
		m.rs = rs.Clone()
	}
	return m
}

// Load returns a copy of the stored record set.
func (m *MemoryStore) Load(_ context.Context) (*resources.RecordSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rs == nil {
		return resources.New(), nil
	}
	return m.rs.Clone(), nil
}

// Save stores a copy of rs.
func (m *MemoryStore) Save(_ context.Context, rs *resources.RecordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rs = rs.Clone()
	m.saves++
	return nil
}

// Saves returns the number of Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
