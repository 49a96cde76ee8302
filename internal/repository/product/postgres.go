package product

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (slug, name, brand, category, strain, default_price, thc_percent, cbd_percent, is_active)
VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::float8, $8::float8, $9)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    brand = EXCLUDED.brand,
    category = EXCLUDED.category,
    strain = EXCLUDED.strain,
    default_price = EXCLUDED.default_price,
    thc_percent = EXCLUDED.thc_percent,
    cbd_percent = EXCLUDED.cbd_percent,
    is_active = EXCLUDED.is_active
RETURNING id::text, purchases_30d, created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q,
		p.Slug,
		p.Name,
		p.Brand,
		p.Category,
		p.Strain,
		decimalArg(p.DefaultPrice),
		p.THCPercent,
		p.CBDPercent,
		p.IsActive,
	).Scan(&res.ID, &res.Purchases30d, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product repo: upsert", "slug", p.Slug, "error", err)
		return nil, err
	}
	r.logger.Debug("product repo: upserted", "slug", res.Slug, "id", res.ID)
	return &res, nil
}

func (r *postgresRepo) UpsertVariant(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	if v.ProductID == "" {
		return nil, fmt.Errorf("product repo: variant %q has no product", v.SKU)
	}
	const q = `
INSERT INTO variants (product_id, name, sku, price, thc_percent, cbd_percent, active)
VALUES ($1, $2, $3, $4::text::numeric, $5::float8, $6::float8, $7)
ON CONFLICT (product_id, sku) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    thc_percent = EXCLUDED.thc_percent,
    cbd_percent = EXCLUDED.cbd_percent,
    active = EXCLUDED.active
RETURNING id::text, created_at
`
	res := v
	err := r.pool.QueryRow(ctx, q,
		v.ProductID,
		v.Name,
		v.SKU,
		decimalArg(v.Price),
		v.THCPercent,
		v.CBDPercent,
		v.Active,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product repo: upsert variant", "product_id", v.ProductID, "sku", v.SKU, "error", err)
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetPurchaseCounts overwrites purchases_30d for every product in counts in a
// single round trip.
func (r *postgresRepo) SetPurchaseCounts(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for id, n := range counts {
		batch.Queue(`UPDATE products SET purchases_30d = $2 WHERE id = $1`, id, n)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("product repo: set purchase counts", "count", len(counts), "error", err)
		return err
	}
	r.logger.Debug("product repo: purchase counts updated", "count", len(counts))
	return nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
