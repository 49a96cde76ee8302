package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storecatalog/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT id::text, slug, name, is_active, created_at
FROM stores
WHERE id = $1
`
	return r.getOne(ctx, q, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	const q = `
SELECT id::text, slug, name, is_active, created_at
FROM stores
WHERE slug = $1
`
	return r.getOne(ctx, q, slug)
}

func (r *postgresRepo) getOne(ctx context.Context, q string, arg string) (*domain.Store, error) {
	var s domain.Store
	err := r.pool.QueryRow(ctx, q, arg).Scan(&s.ID, &s.Slug, &s.Name, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, s domain.Store) (*domain.Store, error) {
	const q = `
INSERT INTO stores (slug, name, is_active)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    is_active = EXCLUDED.is_active
RETURNING id::text, created_at
`
	out := s
	if err := r.pool.QueryRow(ctx, q, s.Slug, s.Name, s.IsActive).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
