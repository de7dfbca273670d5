package recommendation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL recommendation repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new recommendation as a single-row insert.
func (r *PostgresRepository) Create(ctx context.Context, rec *Recommendation) error {
	query := `
		INSERT INTO recommendations (id, user_id, period, suggestions, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, rec.ID, rec.UserID, rec.Period, rec.Text, rec.CreatedAt)
	return err
}

// ListByUser returns up to limit recommendations for a user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*Recommendation, error) {
	query := `
		SELECT id, user_id, period, suggestions, created_at
		FROM recommendations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Recommendation, error) {
		var rec Recommendation
		err := row.Scan(&rec.ID, &rec.UserID, &rec.Period, &rec.Text, &rec.CreatedAt)
		return &rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan recommendations: %w", err)
	}
	return recs, nil
}

var _ Repository = (*PostgresRepository)(nil)
