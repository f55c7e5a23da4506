package visit

import (
	"context"
	"encoding/json"
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

func (r *repoPG) Save(ctx context.Context, sv *StoredVisit) error {
	payload, err := json.Marshal(sv.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO visits (id, patient_name, saved_at, record)
		VALUES ($1, $2, $3, $4)`,
		sv.ID, sv.PatientName, sv.SavedAt, payload)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}

	// Keep the list bounded: drop whatever falls beyond the cap, oldest
	// first, inside the same transaction.
	_, err = tx.Exec(ctx, `
		DELETE FROM visits WHERE id IN (
			SELECT id FROM visits ORDER BY saved_at DESC, id OFFSET $1
		)`, r.cap)
	if err != nil {
		return fmt.Errorf("evict visits beyond cap: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *repoPG) scan(row pgx.Row) (*StoredVisit, error) {
	var sv StoredVisit
	var payload []byte
	if err := row.Scan(&sv.ID, &sv.PatientName, &sv.SavedAt, &payload); err != nil {
		return nil, err
	}
	sv.Record = &Record{}
	if err := json.Unmarshal(payload, sv.Record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &sv, nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*StoredVisit, error) {
	sv, err := r.scan(r.pool.QueryRow(ctx, `
		SELECT id, patient_name, saved_at, record FROM visits WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return sv, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*StoredVisit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_name, saved_at, record FROM visits
		ORDER BY saved_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var result []*StoredVisit
	for rows.Next() {
		sv, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, sv)
	}
	return result, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, sv *StoredVisit) error {
	payload, err := json.Marshal(sv.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET patient_name = $2, record = $3 WHERE id = $1`,
		sv.ID, sv.PatientName, payload)
	if err != nil {
		return fmt.Errorf("update visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
