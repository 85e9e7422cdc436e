package store

import (
	"context"
	"sync"

	"rebellion/internal/domain"
)

const defaultMemoryCapacity = 1000

// MemoryStore keeps the most recent incidents in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	incidents []domain.Incident
	capacity  int
}

// NewMemoryStore creates a store holding at most capacity incidents
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) RecordIncident(ctx context.Context, incident domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.incidents = append(m.incidents, incident)
	if over := len(m.incidents) - m.capacity; over > 0 {
		m.incidents = append([]domain.Incident(nil), m.incidents[over:]...)
	}
	return nil
}

func (m *MemoryStore) RecentIncidents(ctx context.Context, limit int) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = clampLimit(limit)
	out := make([]domain.Incident, 0, limit)
	for i := len(m.incidents) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.incidents[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
