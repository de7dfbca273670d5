package intake

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL intake repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new record as a single-row insert.
func (r *PostgresRepository) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO intake_records (
			id, user_id, menu_item_id,
			consumed_weight_g, consumed_volume_ml,
			calculated_nutrients, consumed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.MenuItemID,
		record.ConsumedWeightG,
		record.ConsumedVolumeML,
		record.Nutrients,
		record.ConsumedAt,
		record.CreatedAt,
	)
	return err
}

// Get retrieves a record by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT
			id, user_id, menu_item_id,
			consumed_weight_g, consumed_volume_ml,
			calculated_nutrients, consumed_at, created_at
		FROM intake_records
		WHERE id = $1
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByUser returns the user's records consumed in [from, to), oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*Record, error) {
	query := `
		SELECT
			id, user_id, menu_item_id,
			consumed_weight_g, consumed_volume_ml,
			calculated_nutrients, consumed_at, created_at
		FROM intake_records
		WHERE user_id = $1 AND consumed_at >= $2 AND consumed_at < $3
		ORDER BY consumed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.MenuItemID,
		&rec.ConsumedWeightG,
		&rec.ConsumedVolumeML,
		&rec.Nutrients,
		&rec.ConsumedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PostgresMenuRepository reads the menu catalogue from PostgreSQL.
type PostgresMenuRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMenuRepository creates a new PostgreSQL menu repository.
func NewPostgresMenuRepository(pool *pgxpool.Pool) *PostgresMenuRepository {
	return &PostgresMenuRepository{pool: pool}
}

// Get retrieves a menu item by ID.
func (r *PostgresMenuRepository) Get(ctx context.Context, id string) (*MenuItem, error) {
	query := `
		SELECT
			id, name, weight_g, volume_ml,
			calories, protein, fat, carbs,
			vitamins, minerals
		FROM menu_items
		WHERE id = $1
	`

	var it MenuItem
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&it.ID,
		&it.Name,
		&it.WeightG,
		&it.VolumeML,
		&it.Calories,
		&it.Protein,
		&it.Fat,
		&it.Carbs,
		&it.Vitamins,
		&it.Minerals,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

var (
	_ Repository     = (*PostgresRepository)(nil)
	_ MenuRepository = (*PostgresMenuRepository)(nil)
)
