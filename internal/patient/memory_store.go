package patient

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is an in-memory implementation of Store.
// This is intended for testing and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

// NewInMemoryStore creates a store seeded with patients.
func NewInMemoryStore(patients ...*Patient) *InMemoryStore {
	s := &InMemoryStore{patients: make(map[string]*Patient, len(patients))}
	for _, p := range patients {
		cpy := *p
		s.patients[p.ID] = &cpy
	}
	return s
}

// Get retrieves a patient by ID.
func (s *InMemoryStore) Get(_ context.Context, id string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cpy := *p
	return &cpy, nil
}

// ListIDs returns every patient ID in ascending order.
func (s *InMemoryStore) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.patients))
	for id := range s.patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Save creates or replaces a patient.
func (s *InMemoryStore) Save(_ context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpy := *p
	s.patients[p.ID] = &cpy
	return nil
}

var _ Store = (*InMemoryStore)(nil)
