// Package patient reads patient profiles from the profile store.
package patient

import (
	"context"
	"errors"
	"time"

	"github.com/nutricare/nutricare/internal/nutrition"
)

// ErrPatientNotFound is returned when a patient does not exist.
var ErrPatientNotFound = errors.New("patient not found")

// Patient is a stored patient profile.
type Patient struct {
	ID        string
	Name      string
	Profile   nutrition.Profile
	UpdatedAt time.Time
}

// Store is the read contract of the profile store. Save exists for seeding
// and tests; profiles are owned by the external profile service.
type Store interface {
	// Get retrieves a patient by ID.
	Get(ctx context.Context, id string) (*Patient, error)

	// ListIDs returns every patient ID in ascending order.
	ListIDs(ctx context.Context) ([]string, error)

	// Save creates or replaces a patient.
	Save(ctx context.Context, p *Patient) error
}
