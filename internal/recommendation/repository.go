package recommendation

import "context"

// Repository persists the append-only recommendation log.
type Repository interface {
	// Create stores a new recommendation.
	Create(ctx context.Context, rec *Recommendation) error

	// ListByUser returns up to limit recommendations for a user, newest first.
	// A limit of 0 or less returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Recommendation, error)
}
