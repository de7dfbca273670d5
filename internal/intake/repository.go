package intake

import (
	"context"
	"time"
)

// Repository defines persistence for intake records.
type Repository interface {
	// Create stores a new record.
	Create(ctx context.Context, record *Record) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// ListByUser returns the user's records consumed in [from, to), oldest first.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*Record, error)
}

// MenuRepository is the read-only menu catalogue.
type MenuRepository interface {
	// Get retrieves a menu item by ID.
	Get(ctx context.Context, id string) (*MenuItem, error)
}
