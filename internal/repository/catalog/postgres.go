package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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

const listingFrom = `
FROM store_products sp
JOIN stores s ON s.id = sp.store_id
JOIN products p ON p.id = sp.product_id
LEFT JOIN variants v ON v.id = sp.variant_id
`

const listingColumns = `
SELECT sp.id::text, sp.store_id::text, sp.product_id::text, sp.variant_id::text, sp.price::text, sp.stock, sp.active, sp.created_at,
       s.id::text, s.slug, s.name, s.is_active, s.created_at,
       p.id::text, p.slug, p.name, p.brand, p.category, p.strain, p.default_price::text, p.thc_percent::float8, p.cbd_percent::float8, p.is_active, p.purchases_30d, p.created_at,
       v.id::text, v.name, v.sku, v.price::text, v.thc_percent::float8, v.cbd_percent::float8, v.active, v.created_at
`

func (r *postgresRepo) FindListings(ctx context.Context, criteria domain.ListingCriteria, sort domain.Sort, window domain.Window) ([]domain.ListingRow, int, error) {
	if _, err := uuid.Parse(criteria.StoreID); err != nil {
		r.logger.Debug("catalog repo: listings for non-uuid store", "store_id", criteria.StoreID)
		return nil, 0, nil
	}
	where, args := compileCriteria(criteria)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	if err := tx.QueryRow(ctx, "SELECT count(*)"+listingFrom+where, args...).Scan(&total); err != nil {
		r.logger.Debug("catalog repo: count listings", "store_id", criteria.StoreID, "error", err)
		return nil, 0, err
	}
	if total == 0 || window.Offset >= total {
		r.logger.Debug("catalog repo: listings", "store_id", criteria.StoreID, "total", total, "count", 0)
		return nil, total, nil
	}

	pageArgs := append(args, window.Limit, window.Offset)
	q := listingColumns + listingFrom + where +
		" ORDER BY " + orderBy(sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := tx.Query(ctx, q, pageArgs...)
	if err != nil {
		r.logger.Debug("catalog repo: query listings", "store_id", criteria.StoreID, "error", err)
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.ListingRow, 0, window.Limit)
	for rows.Next() {
		row, err := scanListingRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	r.logger.Debug("catalog repo: listings", "store_id", criteria.StoreID, "total", total, "count", len(result))
	return result, total, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT id::text, slug, name, brand, category, strain, default_price::text, thc_percent::float8, cbd_percent::float8, is_active, purchases_30d, created_at
FROM products
WHERE id = $1
`
	var (
		p     domain.Product
		price *string
	)
	err := r.pool.QueryRow(ctx, q, productID).Scan(&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Category, &p.Strain, &price, &p.THCPercent, &p.CBDPercent, &p.IsActive, &p.Purchases30d, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("catalog repo: product not found", "product_id", productID)
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if p.DefaultPrice, err = parseDecimal(price); err != nil {
		return nil, err
	}

	const vq = `
SELECT id::text, product_id::text, name, sku, price::text, thc_percent::float8, cbd_percent::float8, active, created_at
FROM variants
WHERE product_id = $1 AND active
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, vq, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &price, &v.THCPercent, &v.CBDPercent, &v.Active, &v.CreatedAt); err != nil {
			return nil, err
		}
		if v.Price, err = parseDecimal(price); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("catalog repo: product", "product_id", productID, "variants", len(p.Variants))
	return &p, nil
}

func (r *postgresRepo) ListStoreProducts(ctx context.Context, storeID, productID string) ([]domain.StoreProduct, error) {
	if _, err := uuid.Parse(storeID); err != nil {
		return nil, nil
	}
	const q = `
SELECT id::text, store_id::text, product_id::text, variant_id::text, price::text, stock, active, created_at
FROM store_products
WHERE store_id = $1 AND product_id = $2
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, storeID, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StoreProduct
	for rows.Next() {
		var (
			sp    domain.StoreProduct
			price *string
		)
		if err := rows.Scan(&sp.ID, &sp.StoreID, &sp.ProductID, &sp.VariantID, &price, &sp.Stock, &sp.Active, &sp.CreatedAt); err != nil {
			return nil, err
		}
		if sp.Price, err = parseDecimal(price); err != nil {
			return nil, err
		}
		result = append(result, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Facets(ctx context.Context, storeID string) (*domain.Facets, error) {
	out := &domain.Facets{Brands: []string{}, Categories: []string{}, Strains: []string{}}
	if _, err := uuid.Parse(storeID); err != nil {
		return out, nil
	}
	where, args := compileCriteria(domain.ListingCriteria{StoreID: storeID})
	q := `
SELECT COALESCE(array_agg(DISTINCT p.brand ORDER BY p.brand) FILTER (WHERE p.brand <> ''), '{}'),
       COALESCE(array_agg(DISTINCT p.category ORDER BY p.category) FILTER (WHERE p.category <> ''), '{}'),
       COALESCE(array_agg(DISTINCT p.strain ORDER BY p.strain) FILTER (WHERE p.strain <> ''), '{}'),
       min(sp.price)::text, max(sp.price)::text` + listingFrom + where

	var minPrice, maxPrice *string
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&out.Brands, &out.Categories, &out.Strains, &minPrice, &maxPrice); err != nil {
		return nil, err
	}
	var err error
	if out.PriceMin, err = parseDecimal(minPrice); err != nil {
		return nil, err
	}
	if out.PriceMax, err = parseDecimal(maxPrice); err != nil {
		return nil, err
	}
	return out, nil
}

// whereBuilder accumulates AND-ed clauses with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func compileCriteria(c domain.ListingCriteria) (string, []any) {
	b := &whereBuilder{}
	b.add("sp.store_id = " + b.arg(c.StoreID))
	b.add("sp.active AND p.is_active AND s.is_active")

	if c.InStock {
		b.add("sp.stock > 0")
	}
	if c.Price.Min != nil {
		b.add("sp.price >= " + b.arg(c.Price.Min.String()) + "::text::numeric")
	}
	if c.Price.Max != nil {
		b.add("sp.price <= " + b.arg(c.Price.Max.String()) + "::text::numeric")
	}

	if q := strings.TrimSpace(c.Search); q != "" {
		pattern := b.arg("%" + escapeLike(q) + "%")
		b.add("(p.name ILIKE " + pattern + " OR p.brand ILIKE " + pattern + ")")
	}
	if len(c.Brands) > 0 {
		b.add("p.brand = ANY(" + b.arg(c.Brands) + "::text[])")
	}
	if len(c.Categories) > 0 {
		b.add("p.category = ANY(" + b.arg(c.Categories) + "::text[])")
	}
	if len(c.Strains) > 0 {
		b.add("p.strain = ANY(" + b.arg(c.Strains) + "::text[])")
	}

	if c.THC.IsSet() {
		b.add(potencyClause(b, "thc_percent", c.THC))
	}
	if c.CBD.IsSet() {
		b.add(potencyClause(b, "cbd_percent", c.CBD))
	}
	return b.sql(), b.args
}

// potencyClause matches on the variant value when present, otherwise on the
// product value when that is unset or in range. A missing variant row reads
// as an unset variant value.
func potencyClause(b *whereBuilder, column string, r domain.PercentRange) string {
	vcol, pcol := "v."+column, "p."+column
	return fmt.Sprintf("((%s IS NOT NULL AND %s) OR (%s IS NULL AND (%s IS NULL OR %s)))",
		vcol, rangeExpr(b, vcol, r), vcol, pcol, rangeExpr(b, pcol, r))
}

func rangeExpr(b *whereBuilder, col string, r domain.PercentRange) string {
	var parts []string
	if r.Min != nil {
		parts = append(parts, col+" >= "+b.arg(*r.Min)+"::float8")
	}
	if r.Max != nil {
		parts = append(parts, col+" <= "+b.arg(*r.Max)+"::float8")
	}
	return strings.Join(parts, " AND ")
}

// orderBy sorts on raw store override price and product fields; ties fall
// back to override creation order.
func orderBy(sort domain.Sort) string {
	const natural = "sp.created_at ASC, sp.id ASC"
	switch sort {
	case domain.SortPriceAsc:
		return "sp.price ASC NULLS LAST, " + natural
	case domain.SortPriceDesc:
		return "sp.price DESC NULLS LAST, " + natural
	case domain.SortNameAsc:
		return `p.name COLLATE "C" ASC, ` + natural
	case domain.SortNameDesc:
		return `p.name COLLATE "C" DESC, ` + natural
	default:
		return "p.purchases_30d DESC, " + natural
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", *s, err)
	}
	return &d, nil
}

func scanListingRow(rows pgx.Rows) (domain.ListingRow, error) {
	var (
		row                     domain.ListingRow
		sp                      domain.StoreProduct
		p                       domain.Product
		spPrice, pPrice, vPrice *string
		vID, vName, vSKU        *string
		vTHC, vCBD              *float64
		vActive                 *bool
		vCreated                *time.Time
	)
	err := rows.Scan(
		&sp.ID, &sp.StoreID, &sp.ProductID, &sp.VariantID, &spPrice, &sp.Stock, &sp.Active, &sp.CreatedAt,
		&row.Store.ID, &row.Store.Slug, &row.Store.Name, &row.Store.IsActive, &row.Store.CreatedAt,
		&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Category, &p.Strain, &pPrice, &p.THCPercent, &p.CBDPercent, &p.IsActive, &p.Purchases30d, &p.CreatedAt,
		&vID, &vName, &vSKU, &vPrice, &vTHC, &vCBD, &vActive, &vCreated,
	)
	if err != nil {
		return row, err
	}
	if sp.Price, err = parseDecimal(spPrice); err != nil {
		return row, err
	}
	if p.DefaultPrice, err = parseDecimal(pPrice); err != nil {
		return row, err
	}
	row.StoreProduct = sp
	row.Product = p
	row.Variant = domain.NoVariant()

	if vID != nil {
		v := domain.Variant{ID: *vID, ProductID: p.ID, THCPercent: vTHC, CBDPercent: vCBD}
		if vName != nil {
			v.Name = *vName
		}
		if vSKU != nil {
			v.SKU = *vSKU
		}
		if vActive != nil {
			v.Active = *vActive
		}
		if vCreated != nil {
			v.CreatedAt = *vCreated
		}
		if v.Price, err = parseDecimal(vPrice); err != nil {
			return row, err
		}
		row.Variant = domain.SomeVariant(v)
	}
	return row, nil
}
