package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"storecatalog/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestCompileCriteria_BasePredicateOnly(t *testing.T) {
	where, args := compileCriteria(domain.ListingCriteria{StoreID: "store"})

	assert.Equal(t, " WHERE sp.store_id = $1 AND sp.active AND p.is_active AND s.is_active", where)
	assert.Equal(t, []any{"store"}, args)
}

func TestCompileCriteria_AllFilters(t *testing.T) {
	where, args := compileCriteria(domain.ListingCriteria{
		StoreID:    "store",
		InStock:    true,
		Price:      domain.DecimalRange{Min: dec("10"), Max: dec("20.5")},
		Search:     "50%_off",
		Brands:     []string{"Acme"},
		Categories: []string{"flower", "vape"},
		Strains:    []string{"indica"},
		THC:        domain.PercentRange{Max: f64(10)},
		CBD:        domain.PercentRange{Min: f64(1), Max: f64(2)},
	})

	assert.Contains(t, where, "sp.stock > 0")
	assert.Contains(t, where, "sp.price >= $2::text::numeric")
	assert.Contains(t, where, "sp.price <= $3::text::numeric")
	assert.Contains(t, where, "(p.name ILIKE $4 OR p.brand ILIKE $4)")
	assert.Contains(t, where, "p.brand = ANY($5::text[])")
	assert.Contains(t, where, "p.category = ANY($6::text[])")
	assert.Contains(t, where, "p.strain = ANY($7::text[])")
	assert.Contains(t, where, "((v.thc_percent IS NOT NULL AND v.thc_percent <= $8::float8) OR (v.thc_percent IS NULL AND (p.thc_percent IS NULL OR p.thc_percent <= $9::float8)))")
	assert.Contains(t, where, "v.cbd_percent >= $10::float8 AND v.cbd_percent <= $11::float8")
	assert.Equal(t, 13, len(args))
	assert.Equal(t, "10", args[1])
	assert.Equal(t, "20.5", args[2])
	assert.Equal(t, `%50\%\_off%`, args[3])
}

func TestOrderBy(t *testing.T) {
	assert.True(t, strings.HasPrefix(orderBy(domain.SortPriceAsc), "sp.price ASC NULLS LAST"))
	assert.True(t, strings.HasPrefix(orderBy(domain.SortPriceDesc), "sp.price DESC NULLS LAST"))
	assert.True(t, strings.HasPrefix(orderBy(domain.SortNameDesc), `p.name COLLATE "C" DESC`))
	assert.True(t, strings.HasPrefix(orderBy(domain.SortPopular), "p.purchases_30d DESC"))
	for _, s := range []domain.Sort{domain.SortPriceAsc, domain.SortNameAsc, domain.SortPopular} {
		assert.True(t, strings.HasSuffix(orderBy(s), "sp.created_at ASC, sp.id ASC"))
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := parseDecimal(nil)
	assert.NoError(t, err)
	assert.Nil(t, d)

	s := "18.00"
	d, err = parseDecimal(&s)
	assert.NoError(t, err)
	assert.Equal(t, "18", d.String())

	bad := "abc"
	_, err = parseDecimal(&bad)
	assert.Error(t, err)
}
