package intake

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates a new in-memory intake repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*Record),
	}
}

// Create stores a new record.
func (r *InMemoryRepository) Create(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *record
	r.records[record.ID] = &cpy
	return nil
}

// Get retrieves a record by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cpy := *rec
	return &cpy, nil
}

// ListByUser returns the user's records consumed in [from, to), oldest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, from, to time.Time) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Record
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if rec.ConsumedAt.Before(from) || !rec.ConsumedAt.Before(to) {
			continue
		}
		cpy := *rec
		out = append(out, &cpy)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ConsumedAt.Before(out[j].ConsumedAt)
	})
	return out, nil
}

// InMemoryMenuRepository is an in-memory menu catalogue.
type InMemoryMenuRepository struct {
	mu    sync.RWMutex
	items map[string]*MenuItem
}

// NewInMemoryMenuRepository creates a catalogue seeded with items.
func NewInMemoryMenuRepository(items ...*MenuItem) *InMemoryMenuRepository {
	r := &InMemoryMenuRepository{items: make(map[string]*MenuItem, len(items))}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

// Get retrieves a menu item by ID.
func (r *InMemoryMenuRepository) Get(_ context.Context, id string) (*MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	cpy := *it
	return &cpy, nil
}

var (
	_ Repository     = (*InMemoryRepository)(nil)
	_ MenuRepository = (*InMemoryMenuRepository)(nil)
)
