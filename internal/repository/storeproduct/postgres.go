package storeproduct

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"storecatalog/internal/domain"
	"storecatalog/internal/logger"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

func NewPostgres(pool *pgxpool.Pool, log *logger.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.OrNop(log)}
}

// Upsert inserts or replaces the single override for (store, product,
// variant-or-null). The original row id and created_at are kept so sort
// tie-breaks stay stable across re-imports.
func (r *postgresRepo) Upsert(ctx context.Context, sp domain.StoreProduct) (*domain.StoreProduct, error) {
	const q = `
INSERT INTO store_products (store_id, product_id, variant_id, price, stock, active)
VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
ON CONFLICT ON CONSTRAINT store_products_scope_key DO UPDATE SET
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    active = EXCLUDED.active
RETURNING id::text, created_at
`
	var price *string
	if sp.Price != nil {
		s := sp.Price.String()
		price = &s
	}
	res := sp
	err := r.pool.QueryRow(ctx, q, sp.StoreID, sp.ProductID, sp.VariantID, price, sp.Stock, sp.Active).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("store product repo: upsert", "store_id", sp.StoreID, "product_id", sp.ProductID, "error", err)
		return nil, err
	}
	return &res, nil
}
