package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriscan/nutriscan/internal/platform/db"
)

var _ Repository = (*PostgresRepository)(nil)

const schemaLockKey int64 = 0x6e7363616e

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scan_history (
		id             UUID PRIMARY KEY,
		barcode        TEXT NOT NULL,
		product_name   TEXT NOT NULL DEFAULT '',
		brands         TEXT NOT NULL DEFAULT '',
		image_url      TEXT NOT NULL DEFAULT '',
		health_score   INTEGER NOT NULL DEFAULT 0,
		nutri_score    TEXT NOT NULL DEFAULT '',
		nutrition_data JSONB NOT NULL DEFAULT '{}'::jsonb,
		scanned_at     TIMESTAMPTZ NOT NULL,
		user_id        TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS scan_history_scanned_at_idx ON scan_history (scanned_at DESC)`,
	`CREATE INDEX IF NOT EXISTS scan_history_user_scanned_at_idx ON scan_history (user_id, scanned_at DESC)`,
}

const (
	recordColumns = `id, barcode, product_name, brands, image_url, health_score,
	nutri_score, nutrition_data, scanned_at, user_id, created_at, updated_at`
	selectColumns = `id::text, barcode, product_name, brands, image_url, health_score,
	nutri_score, nutrition_data::text, scanned_at, user_id, created_at, updated_at`
)

const listQuery = `SELECT ` + selectColumns + `
	FROM scan_history ORDER BY scanned_at DESC LIMIT $1`

// PostgresRepository stores scans in the scan_history table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the table and indexes in one locked transaction.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	return db.WithMigrationLock(ctx, r.pool, schemaLockKey, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("history: ensure schema: %w", err)
			}
		}
		return nil
	})
}

// Insert stores record under a new UUID.
func (r *PostgresRepository) Insert(ctx context.Context, record Record) (Record, error) {
	record.ID = uuid.NewString()
	nutrition, err := json.Marshal(record.NutritionData)
	if err != nil {
		return Record{}, fmt.Errorf("history: encode nutrition: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO scan_history (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		record.ID, record.Barcode, record.ProductName, record.Brands, record.ImageURL,
		record.HealthScore, record.NutriScore, nutrition, record.ScannedAt,
		record.UserID, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("history: insert: %w", err)
	}
	return record, nil
}

// List returns up to limit records, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx, listQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return records, nil
}

// Delete removes the record with id. Unknown and malformed ids are no-ops.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM scan_history WHERE id = $1`, parsed.String()); err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	return nil
}

// RecentBarcodes returns the distinct barcodes of the latest scans.
func (r *PostgresRepository) RecentBarcodes(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT barcode FROM scan_history
		GROUP BY barcode ORDER BY MAX(scanned_at) DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent barcodes: %w", err)
	}
	barcodes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("history: recent barcodes: %w", err)
	}
	return barcodes, nil
}

// DeleteBefore removes records scanned before cutoff.
func (r *PostgresRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	tag, err = r.pool.Exec(ctx, `DELETE FROM scan_history WHERE scanned_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec       Record
		nutrition []byte
	)
	err := row.Scan(
		&rec.ID, &rec.Barcode, &rec.ProductName, &rec.Brands, &rec.ImageURL,
		&rec.HealthScore, &rec.NutriScore, &nutrition, &rec.ScannedAt,
		&rec.UserID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("history: scan row: %w", err)
	}
	if len(nutrition) > 0 {
		if err := json.Unmarshal(nutrition, &rec.NutritionData); err != nil {
			return Record{}, fmt.Errorf("history: decode nutrition: %w", err)
		}
	}
	return rec, nil
}
