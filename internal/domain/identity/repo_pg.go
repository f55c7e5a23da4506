package identity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Get(ctx context.Context, role string) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT role, name, phone, email, address, relative_name, relative_phone, updated_at
		FROM identity_profiles WHERE role = $1`, role).
		Scan(&p.Role, &p.Name, &p.Phone, &p.Email, &p.Address,
			&p.RelativeName, &p.RelativePhone, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity profile: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Put(ctx context.Context, p *Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identity_profiles (role, name, phone, email, address, relative_name, relative_phone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (role) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			relative_name = EXCLUDED.relative_name,
			relative_phone = EXCLUDED.relative_phone,
			updated_at = EXCLUDED.updated_at`,
		p.Role, p.Name, p.Phone, p.Email, p.Address,
		p.RelativeName, p.RelativePhone, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put identity profile: %w", err)
	}
	return nil
}
