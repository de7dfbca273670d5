package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL patient store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get retrieves a patient by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Patient, error) {
	query := `
		SELECT id, name, sex, age, height_cm, weight_kg, activity_level, updated_at
		FROM patients
		WHERE id = $1
	`

	var p Patient
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Profile.Sex,
		&p.Profile.Age,
		&p.Profile.HeightCM,
		&p.Profile.WeightKG,
		&p.Profile.ActivityLevel,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query patient: %w", err)
	}
	return &p, nil
}

// ListIDs returns every patient ID in ascending order.
func (s *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM patients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query patient ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan patient ids: %w", err)
	}
	return ids, nil
}

// Save creates or replaces a patient.
func (s *PostgresStore) Save(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (id, name, sex, age, height_cm, weight_kg, activity_level, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sex = EXCLUDED.sex,
			age = EXCLUDED.age,
			height_cm = EXCLUDED.height_cm,
			weight_kg = EXCLUDED.weight_kg,
			activity_level = EXCLUDED.activity_level,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name,
		p.Profile.Sex, p.Profile.Age, p.Profile.HeightCM, p.Profile.WeightKG, p.Profile.ActivityLevel,
		p.UpdatedAt,
	)
	return err
}

var _ Store = (*PostgresStore)(nil)
