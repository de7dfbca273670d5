package recommendation

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu   sync.RWMutex
	recs []*Recommendation
}

// NewInMemoryRepository creates a new in-memory recommendation repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Create stores a new recommendation.
func (r *InMemoryRepository) Create(_ context.Context, rec *Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *rec
	r.recs = append(r.recs, &cpy)
	return nil
}

// ListByUser returns up to limit recommendations for a user, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]*Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Recommendation, 0)
	for i := len(r.recs) - 1; i >= 0; i-- {
		if r.recs[i].UserID != userID {
			continue
		}
		cpy := *r.recs[i]
		out = append(out, &cpy)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
