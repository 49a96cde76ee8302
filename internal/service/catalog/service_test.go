package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storecatalog/internal/domain"
	catalogrepo "storecatalog/internal/repository/catalog"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func f64(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// scenarioSource holds the two end-to-end fixtures: P1 without variants and
// P2 with a priceless, potency-less variant override.
func scenarioSource(t *testing.T) *catalogrepo.Memory {
	t.Helper()
	m := catalogrepo.NewMemory()
	m.PutStore(domain.Store{ID: "S", Slug: "s", IsActive: true})
	m.PutStore(domain.Store{ID: "T", Slug: "t", IsActive: true})

	m.PutProduct(domain.Product{ID: "P1", Name: "Sour Diesel", Brand: "Acme", DefaultPrice: dec("20"), THCPercent: f64(5), IsActive: true})
	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp-p1", StoreID: "S", ProductID: "P1", Price: dec("18"), Stock: intPtr(3), Active: true}))

	m.PutProduct(domain.Product{ID: "P2", Name: "Pineapple Express", Brand: "Bolt", THCPercent: f64(10), IsActive: true})
	require.NoError(t, m.PutVariant(domain.Variant{ID: "V1", ProductID: "P2", Name: "3.5g", Price: dec("30"), Active: true}))
	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp-p2", StoreID: "S", ProductID: "P2", VariantID: strPtr("V1"), Stock: intPtr(5), Active: true}))

	require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp-t", StoreID: "T", ProductID: "P1", Price: dec("99"), Active: true}))
	return m
}

func TestResolveListings_BaseProductOverride(t *testing.T) {
	r := New(scenarioSource(t))

	page, err := r.ResolveListings(context.Background(), "S", ListingQuery{Q: "sour"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.True(t, item.Price.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, 3, item.Stock)
	require.NotNil(t, item.THCPercent)
	assert.Equal(t, 5.0, *item.THCPercent)
	assert.Nil(t, item.VariantID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestResolveListings_VariantFallbackScenario(t *testing.T) {
	r := New(scenarioSource(t))

	page, err := r.ResolveListings(context.Background(), "S", ListingQuery{THCMin: f64(1), THCMax: f64(100), Brands: []string{"Bolt"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.Equal(t, "P2", item.ProductID)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(30)), "variant price fills a missing override price")
	assert.Equal(t, 5, item.Stock)
	require.NotNil(t, item.THCPercent)
	assert.Equal(t, 10.0, *item.THCPercent)
}

func TestResolveListings_PriceFilterIgnoresFallbackPrice(t *testing.T) {
	r := New(scenarioSource(t))

	page, err := r.ResolveListings(context.Background(), "S", ListingQuery{PriceMin: dec("25"), PriceMax: dec("35")})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "P2 resolves to 30 but has no override price")
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.TotalPages)
}

func TestResolveListings_NeverCrossesStores(t *testing.T) {
	r := New(scenarioSource(t))

	page, err := r.ResolveListings(context.Background(), "S", ListingQuery{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, item := range page.Items {
		assert.Equal(t, "S", item.StoreID)
	}
}

func TestResolveListings_EmptyStoreRejected(t *testing.T) {
	r := New(scenarioSource(t))

	for _, id := range []string{"", "   "} {
		_, err := r.ResolveListings(context.Background(), id, ListingQuery{})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "storeId", vErr.Field)
	}
}

func TestResolveListings_Validation(t *testing.T) {
	r := New(scenarioSource(t))

	cases := []struct {
		name  string
		q     ListingQuery
		field string
	}{
		{"negative page", ListingQuery{Page: -1}, "page"},
		{"limit too large", ListingQuery{Limit: 51}, "limit"},
		{"negative limit", ListingQuery{Limit: -5}, "limit"},
		{"price inverted", ListingQuery{PriceMin: dec("10"), PriceMax: dec("5")}, "priceMin"},
		{"negative price", ListingQuery{PriceMin: dec("-1")}, "priceMin"},
		{"thc inverted", ListingQuery{THCMin: f64(20), THCMax: f64(10)}, "thcMin"},
		{"cbd inverted", ListingQuery{CBDMin: f64(2), CBDMax: f64(1)}, "cbdMin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.ResolveListings(context.Background(), "S", tc.q)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestResolveListings_UnknownSortFallsBackToPopular(t *testing.T) {
	m := scenarioSource(t)
	m.SetPurchases("P2", 40)
	m.SetPurchases("P1", 2)
	r := New(m)

	page, err := r.ResolveListings(context.Background(), "S", ListingQuery{Sort: "weird"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "P2", page.Items[0].ProductID)
	assert.Equal(t, "P1", page.Items[1].ProductID)
}

func TestResolveListings_PagesConcatenateToFullSet(t *testing.T) {
	m := catalogrepo.NewMemory()
	m.PutStore(domain.Store{ID: "S", IsActive: true})
	const n = 23
	for i := 0; i < n; i++ {
		pid := fmt.Sprintf("p%02d", i)
		m.PutProduct(domain.Product{ID: pid, Name: fmt.Sprintf("Item %d", i%4), IsActive: true})
		var price *decimal.Decimal
		if i%5 != 0 {
			price = dec(fmt.Sprintf("%d", i%7))
		}
		require.NoError(t, m.PutStoreProduct(domain.StoreProduct{ID: "sp-" + pid, StoreID: "S", ProductID: pid, Price: price, Active: true}))
	}
	r := New(m)

	for _, sort := range []domain.Sort{domain.SortPriceAsc, domain.SortPriceDesc, domain.SortNameAsc, domain.SortNameDesc, domain.SortPopular} {
		for _, limit := range []int{1, 4, 7, 23, 50} {
			first, err := r.ResolveListings(context.Background(), "S", ListingQuery{Limit: limit, Sort: sort})
			require.NoError(t, err)
			require.Equal(t, n, first.Total)
			require.Equal(t, (n+limit-1)/limit, first.TotalPages)

			seen := map[string]bool{}
			var all []domain.EffectiveListing
			for p := 1; p <= first.TotalPages; p++ {
				page, err := r.ResolveListings(context.Background(), "S", ListingQuery{Page: p, Limit: limit, Sort: sort})
				require.NoError(t, err)
				for _, item := range page.Items {
					require.False(t, seen[item.StoreProductID], "duplicate %s sort=%s limit=%d", item.StoreProductID, sort, limit)
					seen[item.StoreProductID] = true
				}
				all = append(all, page.Items...)
			}
			assert.Len(t, all, n, "sort=%s limit=%d", sort, limit)

			whole, err := r.ResolveListings(context.Background(), "S", ListingQuery{Limit: 50, Sort: sort})
			require.NoError(t, err)
			assert.Equal(t, whole.Items, all, "sort=%s limit=%d", sort, limit)
		}
	}
}

func TestResolveListings_PageBeyondEnd(t *testing.T) {
	r := New(scenarioSource(t))

	page, err := r.ResolveListings(context.Background(), "S", ListingQuery{Page: 9, Limit: 1})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestResolveProductDetail(t *testing.T) {
	m := scenarioSource(t)
	require.NoError(t, m.PutVariant(domain.Variant{ID: "V2", ProductID: "P2", Name: "7g", THCPercent: f64(22), Active: true}))
	require.NoError(t, m.PutVariant(domain.Variant{ID: "V3", ProductID: "P2", Name: "retired", Active: false}))
	r := New(m)

	detail, err := r.ResolveProductDetail(context.Background(), "P2", "S")
	require.NoError(t, err)
	assert.Equal(t, "Pineapple Express", detail.Name)
	require.Len(t, detail.Variants, 2)

	byID := map[string]domain.DetailVariant{}
	for _, v := range detail.Variants {
		require.NotNil(t, v.VariantID)
		byID[*v.VariantID] = v
	}
	v1 := byID["V1"]
	assert.True(t, v1.Available)
	assert.True(t, v1.Price.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 5, v1.Stock)
	assert.Equal(t, 10.0, *v1.THCPercent)

	v2 := byID["V2"]
	assert.False(t, v2.Available, "no override at this store")
	assert.Nil(t, v2.Price)
	assert.Equal(t, 0, v2.Stock)
	assert.Equal(t, 22.0, *v2.THCPercent)
}

func TestResolveProductDetail_ImplicitBaseVariant(t *testing.T) {
	r := New(scenarioSource(t))

	detail, err := r.ResolveProductDetail(context.Background(), "P1", "S")
	require.NoError(t, err)
	require.Len(t, detail.Variants, 1)
	base := detail.Variants[0]
	assert.Nil(t, base.VariantID)
	assert.True(t, base.Available)
	assert.True(t, base.Price.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, 3, base.Stock)
	require.NotNil(t, base.StoreProductID)
	assert.Equal(t, "sp-p1", *base.StoreProductID)

	other, err := r.ResolveProductDetail(context.Background(), "P1", "T")
	require.NoError(t, err)
	assert.True(t, other.Variants[0].Price.Equal(decimal.NewFromInt(99)))
}

func TestResolveProductDetail_NotFound(t *testing.T) {
	m := scenarioSource(t)
	m.PutProduct(domain.Product{ID: "P3", Name: "Hidden", IsActive: false})
	r := New(m)

	for _, id := range []string{"missing-id", "", "P3"} {
		_, err := r.ResolveProductDetail(context.Background(), id, "S")
		assert.ErrorIs(t, err, domain.ErrNotFound, "product %q", id)
	}

	_, err := r.ResolveProductDetail(context.Background(), "P1", "")
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestFacets(t *testing.T) {
	r := New(scenarioSource(t))

	f, err := r.Facets(context.Background(), "S")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Bolt"}, f.Brands)
	require.NotNil(t, f.PriceMin)
	assert.True(t, f.PriceMin.Equal(decimal.NewFromInt(18)))
	assert.True(t, f.PriceMax.Equal(decimal.NewFromInt(18)))

	_, err = r.Facets(context.Background(), "")
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

type failingSource struct {
	catalogrepo.Repository
	err error
}

func (f failingSource) FindListings(context.Context, domain.ListingCriteria, domain.Sort, domain.Window) ([]domain.ListingRow, int, error) {
	return nil, 0, f.err
}

func (f failingSource) GetProduct(context.Context, string) (*domain.Product, error) {
	return nil, f.err
}

func (f failingSource) Facets(context.Context, string) (*domain.Facets, error) {
	return nil, f.err
}

func TestResolver_SourceFailuresSurface(t *testing.T) {
	cause := errors.New("connection reset")
	r := New(failingSource{err: cause})
	ctx := context.Background()

	page, err := r.ResolveListings(ctx, "S", ListingQuery{})
	assert.Nil(t, page, "no partial page on failure")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.ErrorIs(t, err, cause)
	var sErr *domain.SourceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "find listings", sErr.Op)

	_, err = r.ResolveProductDetail(ctx, "P1", "S")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Facets(ctx, "S")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestResolver_CancelledContext(t *testing.T) {
	r := New(scenarioSource(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, err := r.ResolveListings(ctx, "S", ListingQuery{})
	assert.Nil(t, page)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildCriteria_CleansSets(t *testing.T) {
	c := BuildCriteria("S", ListingQuery{Q: "  blue ", Brands: []string{"Acme", " ", "Acme", "Bolt"}, Strains: []string{""}})
	assert.Equal(t, "S", c.StoreID)
	assert.Equal(t, "blue", c.Search)
	assert.Equal(t, []string{"Acme", "Bolt"}, c.Brands)
	assert.Nil(t, c.Strains)
	assert.False(t, c.Price.IsSet())
}
