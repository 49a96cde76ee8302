package product

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storecatalog/internal/domain"
	"storecatalog/internal/migrate"
)

func TestDecimalArg(t *testing.T) {
	assert.Nil(t, decimalArg(nil))
	d := decimal.RequireFromString("12.50")
	got := decimalArg(&d)
	require.NotNil(t, got)
	assert.Equal(t, "12.5", *got)
}

func TestPostgres_UpsertProductAndVariant(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	price := decimal.RequireFromString("20")
	thc := 18.5
	created, err := repo.Upsert(ctx, domain.Product{
		Slug: "blue-dream", Name: "Blue Dream", Brand: "Acme", DefaultPrice: &price, THCPercent: &thc, IsActive: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := repo.Upsert(ctx, domain.Product{Slug: "blue-dream", Name: "Blue Dream v2", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert by slug keeps identity")

	var name string
	var defaultPrice *string
	require.NoError(t, pool.QueryRow(ctx, `SELECT name, default_price::text FROM products WHERE id = $1`, created.ID).Scan(&name, &defaultPrice))
	assert.Equal(t, "Blue Dream v2", name)
	assert.Nil(t, defaultPrice)

	vprice := decimal.RequireFromString("25.00")
	v1, err := repo.UpsertVariant(ctx, domain.Variant{ProductID: created.ID, SKU: "BD-1G", Name: "1g", Price: &vprice, Active: true})
	require.NoError(t, err)
	v2, err := repo.UpsertVariant(ctx, domain.Variant{ProductID: created.ID, SKU: "BD-1G", Name: "1 gram", Active: false})
	require.NoError(t, err)
	assert.Equal(t, v1.ID, v2.ID)

	_, err = repo.UpsertVariant(ctx, domain.Variant{SKU: "orphan"})
	assert.Error(t, err)
}

func TestPostgres_PurchaseCounts(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	a, err := repo.Upsert(ctx, domain.Product{Slug: "a", Name: "A", IsActive: true})
	require.NoError(t, err)
	b, err := repo.Upsert(ctx, domain.Product{Slug: "b", Name: "B", IsActive: true})
	require.NoError(t, err)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, repo.SetPurchaseCounts(ctx, map[string]int{a.ID: 7, b.ID: 0}))
	require.NoError(t, repo.SetPurchaseCounts(ctx, nil))

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT purchases_30d FROM products WHERE id = $1`, a.ID).Scan(&n))
	assert.Equal(t, 7, n)
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE store_products, variants, products, stores RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}
