package vitals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
	cap  int
}

// NewRepoPG returns a Postgres-backed Repository bounded at cap entries.
func NewRepoPG(pool *pgxpool.Pool, cap int) Repository {
	return &repoPG{pool: pool, cap: cap}
}

const vitalCols = `id, display_time, bp, temperature, spo2, heart_rate, rbs, weight, waist, recorded_at`

func (r *repoPG) scan(row pgx.Row) (*DailyVital, error) {
	var v DailyVital
	err := row.Scan(&v.ID, &v.DisplayTime, &v.BP, &v.Temperature, &v.SpO2,
		&v.HeartRate, &v.RBS, &v.Weight, &v.Waist, &v.RecordedAt)
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *DailyVital) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO daily_vitals (`+vitalCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.DisplayTime, v.BP, v.Temperature, v.SpO2,
		v.HeartRate, v.RBS, v.Weight, v.Waist, v.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert vital: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM daily_vitals WHERE id IN (
			SELECT id FROM daily_vitals ORDER BY recorded_at DESC, id OFFSET $1
		)`, r.cap)
	if err != nil {
		return fmt.Errorf("evict vitals beyond cap: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*DailyVital, error) {
	v, err := r.scan(r.pool.QueryRow(ctx, `
		SELECT `+vitalCols+` FROM daily_vitals WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vital: %w", err)
	}
	return v, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*DailyVital, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_vitals`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vitals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+vitalCols+` FROM daily_vitals
		ORDER BY recorded_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vitals: %w", err)
	}
	defer rows.Close()

	var result []*DailyVital
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, v)
	}
	return result, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, v *DailyVital) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE daily_vitals SET display_time = $2, bp = $3, temperature = $4,
			spo2 = $5, heart_rate = $6, rbs = $7, weight = $8, waist = $9
		WHERE id = $1`,
		v.ID, v.DisplayTime, v.BP, v.Temperature, v.SpO2,
		v.HeartRate, v.RBS, v.Weight, v.Waist)
	if err != nil {
		return fmt.Errorf("update vital: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM daily_vitals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vital: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
