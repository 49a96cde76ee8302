package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storecatalog/internal/domain"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	m.PutStore(domain.Store{ID: "s1", Slug: "main", IsActive: true})
	m.PutStore(domain.Store{ID: "s2", Slug: "other", IsActive: true})
	m.PutProduct(domain.Product{ID: "p1", Name: "Blue Dream", Brand: "Acme", Category: "flower", Strain: "hybrid", IsActive: true})
	m.PutProduct(domain.Product{ID: "p2", Name: "Gummies", Brand: "Bolt", Category: "edible", IsActive: true})
	require.NoError(t, m.PutVariant(domain.Variant{ID: "v1", ProductID: "p2", Name: "10pk", Active: true}))
	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp1", StoreID: "s1", ProductID: "p1", Price: dec("18"), Stock: intPtr(3), Active: true}))
	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp2", StoreID: "s1", ProductID: "p2", VariantID: strPtr("v1"), Price: dec("9.5"), Active: true}))
	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp3", StoreID: "s2", ProductID: "p1", Price: dec("21"), Active: true}))
	return m
}

func TestMemory_FindListingsScopesToStore(t *testing.T) {
	m := seedMemory(t)

	rows, total, err := m.FindListings(context.Background(), domain.ListingCriteria{StoreID: "s1"}, domain.SortPriceAsc, domain.Window{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "sp2", rows[0].StoreProduct.ID)
	assert.Equal(t, "sp1", rows[1].StoreProduct.ID)
	v, ok := rows[0].Variant.Get()
	require.True(t, ok)
	assert.Equal(t, "10pk", v.Name)
	assert.True(t, rows[1].Variant.IsNone())
}

func TestMemory_FindListingsWindow(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()
	c := domain.ListingCriteria{StoreID: "s1"}

	rows, total, err := m.FindListings(ctx, c, domain.SortNameAsc, domain.Window{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gummies", rows[0].Product.Name)

	rows, total, err = m.FindListings(ctx, c, domain.SortNameAsc, domain.Window{Offset: 5, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, rows)
}

func TestMemory_FindListingsHonoursCancellation(t *testing.T) {
	m := seedMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.FindListings(ctx, domain.ListingCriteria{StoreID: "s1"}, domain.SortPopular, domain.Window{Limit: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_PutStoreProductReplacesSameTuple(t *testing.T) {
	m := seedMemory(t)

	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp1b", StoreID: "s1", ProductID: "p1", Price: dec("17"), Active: true}))

	sps, err := m.ListStoreProducts(context.Background(), "s1", "p1")
	require.NoError(t, err)
	require.Len(t, sps, 1)
	assert.Equal(t, "sp1b", sps[0].ID)
}

func TestMemory_PutStoreProductRejectsForeignVariant(t *testing.T) {
	m := seedMemory(t)

	err := m.PutStoreProduct(domain.StoreProduct{ID: "x", StoreID: "s1", ProductID: "p1", VariantID: strPtr("v1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_GetProductOnlyActiveVariants(t *testing.T) {
	m := seedMemory(t)
	require.NoError(t, m.PutVariant(domain.Variant{ID: "v2", ProductID: "p2", Name: "retired"}))

	p, err := m.GetProduct(context.Background(), "p2")
	require.NoError(t, err)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "v1", p.Variants[0].ID)

	_, err = m.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_Facets(t *testing.T) {
	m := seedMemory(t)

	f, err := m.Facets(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Bolt"}, f.Brands)
	assert.Equal(t, []string{"edible", "flower"}, f.Categories)
	assert.Equal(t, []string{"hybrid"}, f.Strains)
	assert.Equal(t, "9.5", f.PriceMin.String())
	assert.Equal(t, "18", f.PriceMax.String())
}

func TestMemory_ScopingAcrossRandomStores(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		m := NewMemory()
		stores := 2 + rng.Intn(4)
		for s := 0; s < stores; s++ {
			m.PutStore(domain.Store{ID: fmt.Sprintf("s%d", s), IsActive: rng.Intn(5) > 0})
		}
		for p := 0; p < 10; p++ {
			pid := fmt.Sprintf("p%d", p)
			m.PutProduct(domain.Product{ID: pid, Name: pid, IsActive: rng.Intn(4) > 0})
			for s := 0; s < stores; s++ {
				if rng.Intn(2) == 0 {
					continue
				}
				require.NoError(t, m.PutStoreProduct(domain.StoreProduct{
					ID:        fmt.Sprintf("sp-%d-%d", s, p),
					StoreID:   fmt.Sprintf("s%d", s),
					ProductID: pid,
					Active:    rng.Intn(3) > 0,
				}))
			}
		}

		target := fmt.Sprintf("s%d", rng.Intn(stores))
		rows, total, err := m.FindListings(context.Background(), domain.ListingCriteria{StoreID: target}, domain.SortPopular, domain.Window{Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, total, len(rows))
		for _, row := range rows {
			require.Equal(t, target, row.StoreProduct.StoreID)
			require.True(t, row.StoreProduct.Active && row.Product.IsActive && row.Store.IsActive)
		}
	}
}
